package redistore

import (
	"fmt"
	"slices"
)

const (
	KeyWalkPrefix      string = "walk:"
	KeyVisitedSuffix   string = "visited"
	KeyScoresSuffix    string = "scores"
	KeySamplesSuffix   string = "samples"
	KeyExploredPrefix  string = "explored:"
	KeyNeighborsPrefix string = "neighbors:"
)

// KeyPrefix() returns the prefix shared by all the keys of the run.
func (S *WalkStore) KeyPrefix() string {
	return KeyWalkPrefix + S.runID + ":"
}

// KeyVisited() returns the Redis key of the set of explored nodeIDs.
func (S *WalkStore) KeyVisited() string {
	return S.KeyPrefix() + KeyVisitedSuffix
}

// KeyScores() returns the Redis key of the hash nodeID --> bot score.
func (S *WalkStore) KeyScores() string {
	return S.KeyPrefix() + KeyScoresSuffix
}

// KeySamples() returns the Redis key of the list of samples.
func (S *WalkStore) KeySamples() string {
	return S.KeyPrefix() + KeySamplesSuffix
}

// KeyExplored() returns the Redis key of the explored fields of nodeID.
func (S *WalkStore) KeyExplored(nodeID uint64) string {
	return fmt.Sprintf("%v%v%d", S.KeyPrefix(), KeyExploredPrefix, nodeID)
}

// KeyNeighbors() returns the Redis key of the neighbor set of nodeID.
func (S *WalkStore) KeyNeighbors(nodeID uint64) string {
	return fmt.Sprintf("%v%v%d", S.KeyPrefix(), KeyNeighborsPrefix, nodeID)
}

func sortIDs(IDs []uint64) []uint64 {
	slices.Sort(IDs)
	return IDs
}
