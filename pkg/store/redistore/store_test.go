package redistore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/redisutils"
)

// setupStore returns an empty store on the test Redis, skipping the test if it's not reachable.
func setupStore(t *testing.T, runID string) (*WalkStore, *redis.Client) {
	t.Helper()
	ctx := context.Background()
	cl := redisutils.SetupTestClient()
	if err := redisutils.Ping(ctx, cl); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	redisutils.CleanupRedis(cl)
	t.Cleanup(func() { redisutils.CleanupRedis(cl) })

	S, err := NewWalkStore(ctx, cl, runID)
	if err != nil {
		t.Fatalf("NewWalkStore(): expected nil, got %v", err)
	}
	return S, cl
}

func TestNewWalkStore(t *testing.T) {
	ctx := context.Background()
	if _, err := NewWalkStore(ctx, nil, "run"); !errors.Is(err, models.ErrNilClientPointer) {
		t.Errorf("NewWalkStore(): expected %v, got %v", models.ErrNilClientPointer, err)
	}

	var S *WalkStore
	if err := S.Validate(); !errors.Is(err, models.ErrNilStorePointer) {
		t.Errorf("Validate(): expected %v, got %v", models.ErrNilStorePointer, err)
	}

	if err := (&WalkStore{}).Validate(); !errors.Is(err, models.ErrNilClientPointer) {
		t.Errorf("Validate(): expected %v, got %v", models.ErrNilClientPointer, err)
	}
}

func TestExplore(t *testing.T) {
	S, _ := setupStore(t, "run")
	ctx := context.Background()

	node := models.Explored{ID: 1, Followers: 2, Friends: 3, Degree: 4}
	if err := S.Explore(ctx, node, []uint64{9, 2, 5, 7}); err != nil {
		t.Fatalf("Explore(): expected nil, got %v", err)
	}

	if err := S.Explore(ctx, node, nil); !errors.Is(err, models.ErrNodeAlreadyExplored) {
		t.Fatalf("Explore(): expected %v, got %v", models.ErrNodeAlreadyExplored, err)
	}

	if !S.IsVisited(ctx, 1) || S.IsVisited(ctx, 2) {
		t.Errorf("IsVisited(): expected only node 1 to be visited")
	}

	if size := S.Size(ctx); size != 1 {
		t.Errorf("Size(): expected 1, got %d", size)
	}

	explored, err := S.Explored(ctx, 1)
	if err != nil {
		t.Fatalf("Explored(): expected nil, got %v", err)
	}

	if !reflect.DeepEqual(*explored, node) {
		t.Errorf("Explored(): expected %v, got %v", node, *explored)
	}

	if _, err := S.Explored(ctx, 2); !errors.Is(err, models.ErrNodeNotFoundStore) {
		t.Errorf("Explored(): expected %v, got %v", models.ErrNodeNotFoundStore, err)
	}
}

func TestNeighbors(t *testing.T) {
	S, _ := setupStore(t, "run")
	ctx := context.Background()

	if err := S.Explore(ctx, models.Explored{ID: 1, Degree: 3}, []uint64{9, 2, 5}); err != nil {
		t.Fatalf("Explore(): expected nil, got %v", err)
	}

	if err := S.Explore(ctx, models.Explored{ID: 2}, []uint64{}); err != nil {
		t.Fatalf("Explore(): expected nil, got %v", err)
	}

	if err := S.AddNeighbor(ctx, 1, 3); err != nil {
		t.Fatalf("AddNeighbor(): expected nil, got %v", err)
	}

	if err := S.AddNeighbor(ctx, 99, 3); !errors.Is(err, models.ErrNodeNotFoundStore) {
		t.Fatalf("AddNeighbor(): expected %v, got %v", models.ErrNodeNotFoundStore, err)
	}

	testCases := []struct {
		name              string
		nodeID            uint64
		expectedNeighbors []uint64
		expectedError     error
	}{
		{name: "with added neighbor", nodeID: 1, expectedNeighbors: []uint64{2, 3, 5, 9}},
		{name: "dangling", nodeID: 2, expectedNeighbors: []uint64{}},
		{name: "not explored", nodeID: 99, expectedError: models.ErrNodeNotFoundStore},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			neighbors, err := S.Neighbors(ctx, test.nodeID)
			if !errors.Is(err, test.expectedError) {
				t.Fatalf("Neighbors(): expected %v, got %v", test.expectedError, err)
			}

			if !reflect.DeepEqual(neighbors, test.expectedNeighbors) {
				t.Errorf("Neighbors(): expected %v, got %v", test.expectedNeighbors, neighbors)
			}
		})
	}

	// the degree is not affected by added neighbors
	explored, err := S.Explored(ctx, 1)
	if err != nil || explored.Degree != 3 {
		t.Errorf("Explored(): expected degree 3, got %v (%v)", explored, err)
	}
}

func TestScores(t *testing.T) {
	S, _ := setupStore(t, "run")
	ctx := context.Background()

	if _, err := S.Score(ctx, 1); !errors.Is(err, models.ErrScoreNotFound) {
		t.Fatalf("Score(): expected %v, got %v", models.ErrScoreNotFound, err)
	}

	if err := S.SetScore(ctx, 1, 0.97); err != nil {
		t.Fatalf("SetScore(): expected nil, got %v", err)
	}

	if err := S.SetScore(ctx, 1, 0.1); !errors.Is(err, models.ErrScoreAlreadySet) {
		t.Fatalf("SetScore(): expected %v, got %v", models.ErrScoreAlreadySet, err)
	}

	score, err := S.Score(ctx, 1)
	if err != nil || score != 0.97 {
		t.Errorf("Score(): expected (0.97, nil), got (%v, %v)", score, err)
	}
}

func TestSamples(t *testing.T) {
	S, cl := setupStore(t, "run")
	ctx := context.Background()

	expected := []models.SampleRecord{
		{NodeID: 1, Followers: 2, Friends: 3, Neighbors: 4},
		{NodeID: 5, Followers: 0, Friends: 1, Neighbors: 1},
		{NodeID: 1, Followers: 2, Friends: 3, Neighbors: 5},
	}

	for _, sample := range expected {
		if err := S.AppendSample(ctx, sample); err != nil {
			t.Fatalf("AppendSample(): expected nil, got %v", err)
		}
	}

	samples, err := S.Samples(ctx)
	if err != nil {
		t.Fatalf("Samples(): expected nil, got %v", err)
	}

	if !reflect.DeepEqual(samples, expected) {
		t.Errorf("Samples(): expected %v, got %v", expected, samples)
	}

	// runs on the same server don't see each other
	other, err := NewWalkStore(ctx, cl, "other")
	if err != nil {
		t.Fatalf("NewWalkStore(): expected nil, got %v", err)
	}

	samples, err = other.Samples(ctx)
	if err != nil || len(samples) != 0 {
		t.Errorf("Samples(): expected no samples for another run, got %v (%v)", samples, err)
	}
}
