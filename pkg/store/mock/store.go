// The mock store package defines an in-memory WalkStore. Nothing is ever
// evicted: the store grows with the walk and is discarded with it.
package mock

import (
	"context"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/vertex-lab/botpop/pkg/models"
)

// the in-memory version of the WalkStore interface.
type WalkStore struct {
	// associates each explored nodeID with what the walk learned about it
	ExploredIndex map[uint64]models.Explored

	// associates each explored nodeID with its neighbor set
	NeighborIndex map[uint64]mapset.Set[uint64]

	// the bot scores, written once per node
	ScoreIndex map[uint64]float64

	// the samples in walk order
	SampleList []models.SampleRecord
}

// NewWalkStore() returns an empty WalkStore.
func NewWalkStore() *WalkStore {
	return &WalkStore{
		ExploredIndex: make(map[uint64]models.Explored),
		NeighborIndex: make(map[uint64]mapset.Set[uint64]),
		ScoreIndex:    make(map[uint64]float64),
	}
}

// Validate() returns an error if the store is nil
func (S *WalkStore) Validate() error {
	if S == nil {
		return models.ErrNilStorePointer
	}
	return nil
}

// Size() returns the number of explored nodes (ignores errors).
func (S *WalkStore) Size(ctx context.Context) int {
	_ = ctx
	if S == nil {
		return 0
	}
	return len(S.ExploredIndex)
}

// IsVisited() returns whether nodeID has been explored (ignores errors).
func (S *WalkStore) IsVisited(ctx context.Context, nodeID uint64) bool {
	_ = ctx
	if S == nil {
		return false
	}
	_, exists := S.ExploredIndex[nodeID]
	return exists
}

// Explore() stores the node and its neighbor set, marking it as visited.
func (S *WalkStore) Explore(ctx context.Context, node models.Explored, neighbors []uint64) error {
	if err := S.Validate(); err != nil {
		return err
	}

	if S.IsVisited(ctx, node.ID) {
		return fmt.Errorf("%w: %d", models.ErrNodeAlreadyExplored, node.ID)
	}

	S.ExploredIndex[node.ID] = node
	S.NeighborIndex[node.ID] = mapset.NewThreadUnsafeSet(neighbors...)
	return nil
}

// Explored() returns what is known about a visited node.
func (S *WalkStore) Explored(ctx context.Context, nodeID uint64) (*models.Explored, error) {
	_ = ctx
	if err := S.Validate(); err != nil {
		return nil, err
	}

	node, exists := S.ExploredIndex[nodeID]
	if !exists {
		return nil, fmt.Errorf("%w: %d", models.ErrNodeNotFoundStore, nodeID)
	}

	return &node, nil
}

// Neighbors() returns the sorted neighbor set of a visited node.
func (S *WalkStore) Neighbors(ctx context.Context, nodeID uint64) ([]uint64, error) {
	_ = ctx
	if err := S.Validate(); err != nil {
		return nil, err
	}

	neighbors, exists := S.NeighborIndex[nodeID]
	if !exists {
		return nil, fmt.Errorf("%w: %d", models.ErrNodeNotFoundStore, nodeID)
	}

	IDs := neighbors.ToSlice()
	slices.Sort(IDs)
	return IDs, nil
}

// AddNeighbor() adds neighborID to the neighbor set of the visited nodeID.
func (S *WalkStore) AddNeighbor(ctx context.Context, nodeID, neighborID uint64) error {
	_ = ctx
	if err := S.Validate(); err != nil {
		return err
	}

	neighbors, exists := S.NeighborIndex[nodeID]
	if !exists {
		return fmt.Errorf("%w: %d", models.ErrNodeNotFoundStore, nodeID)
	}

	neighbors.Add(neighborID)
	return nil
}

// SetScore() stores the bot score of nodeID.
func (S *WalkStore) SetScore(ctx context.Context, nodeID uint64, score float64) error {
	_ = ctx
	if err := S.Validate(); err != nil {
		return err
	}

	if _, exists := S.ScoreIndex[nodeID]; exists {
		return fmt.Errorf("%w: %d", models.ErrScoreAlreadySet, nodeID)
	}

	S.ScoreIndex[nodeID] = score
	return nil
}

// Score() returns the bot score of nodeID.
func (S *WalkStore) Score(ctx context.Context, nodeID uint64) (float64, error) {
	_ = ctx
	if err := S.Validate(); err != nil {
		return 0, err
	}

	score, exists := S.ScoreIndex[nodeID]
	if !exists {
		return 0, fmt.Errorf("%w: %d", models.ErrScoreNotFound, nodeID)
	}

	return score, nil
}

// AppendSample() appends a record to the ordered samples of the walk.
func (S *WalkStore) AppendSample(ctx context.Context, sample models.SampleRecord) error {
	_ = ctx
	if err := S.Validate(); err != nil {
		return err
	}

	S.SampleList = append(S.SampleList, sample)
	return nil
}

// Samples() returns all the samples in walk order.
func (S *WalkStore) Samples(ctx context.Context) ([]models.SampleRecord, error) {
	_ = ctx
	if err := S.Validate(); err != nil {
		return nil, err
	}

	return slices.Clone(S.SampleList), nil
}
