/*
The walks package performs a simple random walk over the social graph, where
two accounts are neighbors if one follows the other.

The walk is made of three parts:

- NeighborCache fetches the neighbors of a node once, and remembers them.

- Selector picks the next node uniformly among the neighbors, skipping the
protected accounts it can't explore.

- Walker drives the two, backtracking to the previous node when a node can't
be explored.
*/
package walks

import (
	"fmt"

	"github.com/vertex-lab/botpop/pkg/models"
)

// The configuration parameters of the walk.
type Config struct {
	// the maximum number of followers (or friends) fetched for each node.
	MaxResults int

	// the maximum number of visibility queries issued by one selection.
	MaxQueries int

	// the maximum number of consecutive backtracks before giving up.
	MaxBacktracks int
}

func NewConfig() Config {
	return Config{
		MaxResults:    5000,
		MaxQueries:    900,
		MaxBacktracks: 1000,
	}
}

// Validate() returns the appropriate error if a parameter is not positive.
func (c Config) Validate() error {
	if c.MaxResults <= 0 {
		return models.ErrInvalidMaxResults
	}

	if c.MaxQueries <= 0 {
		return models.ErrInvalidMaxQueries
	}

	if c.MaxBacktracks <= 0 {
		return models.ErrInvalidMaxBacktracks
	}

	return nil
}

func (c Config) Print() {
	fmt.Println("Walk:")
	fmt.Printf("  MaxResults: %d\n", c.MaxResults)
	fmt.Printf("  MaxQueries: %d\n", c.MaxQueries)
	fmt.Printf("  MaxBacktracks: %d\n", c.MaxBacktracks)
}
