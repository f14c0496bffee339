package mock

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/vertex-lab/botpop/pkg/models"
)

func TestValidate(t *testing.T) {
	var nilStore *WalkStore
	if err := nilStore.Validate(); !errors.Is(err, models.ErrNilStorePointer) {
		t.Fatalf("Validate(): expected %v, got %v", models.ErrNilStorePointer, err)
	}

	if err := NewWalkStore().Validate(); err != nil {
		t.Fatalf("Validate(): expected nil, got %v", err)
	}
}

func TestExplore(t *testing.T) {
	ctx := context.Background()
	S := NewWalkStore()
	node := models.Explored{ID: 1, Followers: 2, Friends: 1, Degree: 3}

	if S.IsVisited(ctx, 1) {
		t.Fatalf("IsVisited(): expected false before Explore()")
	}

	if err := S.Explore(ctx, node, []uint64{4, 2, 3}); err != nil {
		t.Fatalf("Explore(): expected nil, got %v", err)
	}

	if err := S.Explore(ctx, node, []uint64{5}); !errors.Is(err, models.ErrNodeAlreadyExplored) {
		t.Fatalf("Explore(): expected %v, got %v", models.ErrNodeAlreadyExplored, err)
	}

	if !S.IsVisited(ctx, 1) || S.Size(ctx) != 1 {
		t.Fatalf("expected node 1 to be the only visited node")
	}

	explored, err := S.Explored(ctx, 1)
	if err != nil || *explored != node {
		t.Fatalf("Explored(): expected (%v, nil), got (%v, %v)", node, explored, err)
	}

	neighbors, err := S.Neighbors(ctx, 1)
	if err != nil || !reflect.DeepEqual(neighbors, []uint64{2, 3, 4}) {
		t.Fatalf("Neighbors(): expected ([2 3 4], nil), got (%v, %v)", neighbors, err)
	}
}

func TestAddNeighbor(t *testing.T) {
	testCases := []struct {
		name              string
		nodeID            uint64
		neighborID        uint64
		expectedNeighbors []uint64
		expectedError     error
	}{
		{
			name:          "node not explored",
			nodeID:        7,
			neighborID:    1,
			expectedError: models.ErrNodeNotFoundStore,
		},
		{
			name:              "new neighbor",
			nodeID:            1,
			neighborID:        0,
			expectedNeighbors: []uint64{0, 2, 3},
		},
		{
			name:              "existing neighbor",
			nodeID:            1,
			neighborID:        3,
			expectedNeighbors: []uint64{2, 3},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			S := NewWalkStore()
			S.Explore(ctx, models.Explored{ID: 1, Degree: 2}, []uint64{2, 3})

			err := S.AddNeighbor(ctx, test.nodeID, test.neighborID)
			if !errors.Is(err, test.expectedError) {
				t.Fatalf("AddNeighbor(): expected %v, got %v", test.expectedError, err)
			}

			if test.expectedError != nil {
				return
			}

			neighbors, _ := S.Neighbors(ctx, test.nodeID)
			if !reflect.DeepEqual(neighbors, test.expectedNeighbors) {
				t.Errorf("Neighbors(): expected %v, got %v", test.expectedNeighbors, neighbors)
			}

			explored, _ := S.Explored(ctx, test.nodeID)
			if explored.Degree != 2 {
				t.Errorf("AddNeighbor(): the degree changed to %d", explored.Degree)
			}
		})
	}
}

func TestScores(t *testing.T) {
	ctx := context.Background()
	S := NewWalkStore()

	if _, err := S.Score(ctx, 1); !errors.Is(err, models.ErrScoreNotFound) {
		t.Fatalf("Score(): expected %v, got %v", models.ErrScoreNotFound, err)
	}

	if err := S.SetScore(ctx, 1, -1); err != nil {
		t.Fatalf("SetScore(): expected nil, got %v", err)
	}

	if err := S.SetScore(ctx, 1, 0.9); !errors.Is(err, models.ErrScoreAlreadySet) {
		t.Fatalf("SetScore(): expected %v, got %v", models.ErrScoreAlreadySet, err)
	}

	if score, _ := S.Score(ctx, 1); score != -1 {
		t.Errorf("Score(): expected -1, got %v", score)
	}
}

func TestSamples(t *testing.T) {
	ctx := context.Background()
	S := NewWalkStore()
	samples := []models.SampleRecord{
		{NodeID: 1, Followers: 0, Friends: 1, Neighbors: 1},
		{NodeID: 2, Followers: 1, Friends: 1, Neighbors: 1},
		{NodeID: 1, Followers: 0, Friends: 1, Neighbors: 1},
	}

	for _, s := range samples {
		if err := S.AppendSample(ctx, s); err != nil {
			t.Fatalf("AppendSample(): expected nil, got %v", err)
		}
	}

	got, err := S.Samples(ctx)
	if err != nil {
		t.Fatalf("Samples(): expected nil, got %v", err)
	}

	if !reflect.DeepEqual(got, samples) {
		t.Errorf("Samples(): expected %v, got %v", samples, got)
	}
}
