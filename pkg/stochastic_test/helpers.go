package stochastictest

import (
	"math"

	mockdb "github.com/vertex-lab/botpop/pkg/database/mock"
)

const (
	botScore   = 0.99
	humanScore = 0.01
)

// Setup is a graph together with the quantities a long walk should converge to.
type Setup struct {
	DB *mockdb.Database

	// the fraction of nodes that are bots
	BotFraction float64

	// the fraction of samples that are bots when the walk is stationary
	SampledFraction float64
}

// SetupGraph() returns the graph of the specified type.
func SetupGraph(graphType string) Setup {
	switch graphType {

	case "chord":
		// 60 nodes on a ring, each linked to the nodes at distance 1 and 7.
		// A node in three is a bot, and also links to four humans across the ring,
		// so bots have degree 8 and humans 6 on average.
		const size = 60
		DB := mockdb.NewDatabase()
		for i := uint64(0); i < size; i++ {
			DB.AddEdge(i+1, (i+1)%size+1)
			DB.AddEdge(i+1, (i+7)%size+1)

			if i%3 == 0 {
				for _, chord := range []uint64{13, 29, 41, 52} {
					DB.AddEdge(i+1, (i+chord)%size+1)
				}
			}
		}

		score(DB)
		return Setup{DB: DB, BotFraction: 1.0 / 3.0, SampledFraction: 0.4}

	case "clique":
		// 12 nodes all linked to each other, the first 4 are bots
		const size = 12
		DB := mockdb.NewDatabase()
		for i := uint64(1); i <= size; i++ {
			for j := i + 1; j <= size; j++ {
				DB.AddEdge(i, j)
			}
		}

		for i := uint64(1); i <= size; i++ {
			DB.Scores[i] = humanScore
			if i <= 4 {
				DB.Scores[i] = botScore
			}
		}
		return Setup{DB: DB, BotFraction: 1.0 / 3.0, SampledFraction: 1.0 / 3.0}

	default:
		return Setup{}
	}
}

// score marks as bots the nodes whose (ID - 1) is a multiple of three.
func score(DB *mockdb.Database) {
	for nodeID := range DB.NodeIndex {
		DB.Scores[nodeID] = humanScore
		if (nodeID-1)%3 == 0 {
			DB.Scores[nodeID] = botScore
		}
	}
}

// fraction returns the fraction of the sequence made of bots.
func fraction(sequence []uint64, labels map[uint64]bool) float64 {
	if len(sequence) == 0 {
		return math.NaN()
	}

	bots := 0
	for _, nodeID := range sequence {
		if labels[nodeID] {
			bots++
		}
	}
	return float64(bots) / float64(len(sequence))
}
