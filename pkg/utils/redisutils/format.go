package redisutils

import (
	"strconv"
)

// FormatID() formats a nodeID into a string
func FormatID(ID uint64) string {
	return strconv.FormatUint(ID, 10)
}

// FormatIDs() formats a slice of nodeIDs into a slice of strings, ready to be
// passed to SADD and similar commands.
func FormatIDs(IDs []uint64) []string {
	strIDs := make([]string, len(IDs))
	for i, ID := range IDs {
		strIDs[i] = FormatID(ID)
	}
	return strIDs
}

// ParseID() parses a nodeID from the specified string
func ParseID(strVal string) (uint64, error) {
	return strconv.ParseUint(strVal, 10, 64)
}

// ParseIDs() parses a slice of nodeIDs from the specified strings
func ParseIDs(strIDs []string) ([]uint64, error) {
	IDs := make([]uint64, len(strIDs))
	for i, strID := range strIDs {
		ID, err := ParseID(strID)
		if err != nil {
			return nil, err
		}
		IDs[i] = ID
	}
	return IDs, nil
}

// ParseInt() parses an int from the specified string
func ParseInt(strVal string) (int, error) {
	return strconv.Atoi(strVal)
}

// ParseFloat64() parses a float64 from the specified string
func ParseFloat64(strVal string) (float64, error) {
	return strconv.ParseFloat(strVal, 64)
}

// FormatFloat64() formats a float64 with the minimal number of digits that
// parse back to the same value.
func FormatFloat64(val float64) string {
	return strconv.FormatFloat(val, 'g', -1, 64)
}
