// The redistore package defines a WalkStore on Redis. All the keys of a walk
// share the prefix "walk:<runID>:", so that different runs can share the same server.
package redistore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/records"
	"github.com/vertex-lab/botpop/pkg/utils/redisutils"
)

// WalkStore fulfills the WalkStore interface defined in models
type WalkStore struct {
	client *redis.Client
	runID  string
}

// ExploredFields are the fields of an explored node in Redis. This struct is used for serialize and deserialize.
type ExploredFields struct {
	Followers int `redis:"followers"`
	Friends   int `redis:"friends"`
	Degree    int `redis:"degree"`
}

// NewWalkStore() returns the WalkStore of the run. If the run already has
// keys on the server, the store picks up where it was left.
func NewWalkStore(ctx context.Context, cl *redis.Client, runID string) (*WalkStore, error) {
	if cl == nil {
		return nil, models.ErrNilClientPointer
	}

	if runID == "" {
		return nil, errors.New("the runID must be non-empty")
	}

	if err := redisutils.Ping(ctx, cl); err != nil {
		return nil, err
	}

	return &WalkStore{client: cl, runID: runID}, nil
}

// RunID() returns the identifier of the run.
func (S *WalkStore) RunID() string {
	return S.runID
}

// Validate() check if the store and client are nil and returns the appropriare error
func (S *WalkStore) Validate() error {
	if S == nil {
		return models.ErrNilStorePointer
	}

	if S.client == nil {
		return models.ErrNilClientPointer
	}

	return nil
}

// Size() returns the number of explored nodes. In case of errors, it returns 0.
func (S *WalkStore) Size(ctx context.Context) int {
	if err := S.Validate(); err != nil {
		return 0
	}

	size, err := S.client.SCard(ctx, S.KeyVisited()).Result()
	if err != nil {
		return 0
	}
	return int(size)
}

// IsVisited() returns whether nodeID has been explored. In case of errors, it returns false.
func (S *WalkStore) IsVisited(ctx context.Context, nodeID uint64) bool {
	if err := S.Validate(); err != nil {
		return false
	}

	visited, err := S.client.SIsMember(ctx, S.KeyVisited(), nodeID).Result()
	if err != nil {
		return false
	}
	return visited
}

// Explore() stores the node and its neighbor set in a transaction, marking it as visited.
func (S *WalkStore) Explore(ctx context.Context, node models.Explored, neighbors []uint64) error {
	if err := S.Validate(); err != nil {
		return err
	}

	if S.IsVisited(ctx, node.ID) {
		return fmt.Errorf("%w: %d", models.ErrNodeAlreadyExplored, node.ID)
	}

	fields := ExploredFields{
		Followers: node.Followers,
		Friends:   node.Friends,
		Degree:    node.Degree,
	}

	pipe := S.client.TxPipeline()
	pipe.HSet(ctx, S.KeyExplored(node.ID), fields)
	if len(neighbors) > 0 {
		pipe.SAdd(ctx, S.KeyNeighbors(node.ID), redisutils.FormatIDs(neighbors))
	}
	pipe.SAdd(ctx, S.KeyVisited(), node.ID)

	_, err := pipe.Exec(ctx)
	return err
}

// Explored() returns what is known about a visited node.
func (S *WalkStore) Explored(ctx context.Context, nodeID uint64) (*models.Explored, error) {
	if err := S.Validate(); err != nil {
		return nil, err
	}

	cmd := S.client.HGetAll(ctx, S.KeyExplored(nodeID))
	if cmd.Err() != nil {
		return nil, cmd.Err()
	}

	// if an empty map is returned, it means the node was not found
	if len(cmd.Val()) == 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrNodeNotFoundStore, nodeID)
	}

	var fields ExploredFields
	if err := cmd.Scan(&fields); err != nil {
		return nil, err
	}

	return &models.Explored{
		ID:        nodeID,
		Followers: fields.Followers,
		Friends:   fields.Friends,
		Degree:    fields.Degree,
	}, nil
}

// Neighbors() returns the sorted neighbor set of a visited node.
func (S *WalkStore) Neighbors(ctx context.Context, nodeID uint64) ([]uint64, error) {
	if err := S.Validate(); err != nil {
		return nil, err
	}

	strIDs, err := S.client.SMembers(ctx, S.KeyNeighbors(nodeID)).Result()
	if err != nil {
		return nil, err
	}

	// an empty set might mean node not found
	if len(strIDs) == 0 && !S.IsVisited(ctx, nodeID) {
		return nil, fmt.Errorf("%w: %d", models.ErrNodeNotFoundStore, nodeID)
	}

	IDs, err := redisutils.ParseIDs(strIDs)
	if err != nil {
		return nil, err
	}

	return sortIDs(IDs), nil
}

// AddNeighbor() adds neighborID to the neighbor set of the visited nodeID.
func (S *WalkStore) AddNeighbor(ctx context.Context, nodeID, neighborID uint64) error {
	if err := S.Validate(); err != nil {
		return err
	}

	if !S.IsVisited(ctx, nodeID) {
		return fmt.Errorf("%w: %d", models.ErrNodeNotFoundStore, nodeID)
	}

	return S.client.SAdd(ctx, S.KeyNeighbors(nodeID), neighborID).Err()
}

// SetScore() stores the bot score of nodeID, or returns an error wrapping ErrScoreAlreadySet.
func (S *WalkStore) SetScore(ctx context.Context, nodeID uint64, score float64) error {
	if err := S.Validate(); err != nil {
		return err
	}

	set, err := S.client.HSetNX(ctx, S.KeyScores(), redisutils.FormatID(nodeID), redisutils.FormatFloat64(score)).Result()
	if err != nil {
		return err
	}

	if !set {
		return fmt.Errorf("%w: %d", models.ErrScoreAlreadySet, nodeID)
	}
	return nil
}

// Score() returns the bot score of nodeID, or an error wrapping ErrScoreNotFound.
func (S *WalkStore) Score(ctx context.Context, nodeID uint64) (float64, error) {
	if err := S.Validate(); err != nil {
		return 0, err
	}

	score, err := S.client.HGet(ctx, S.KeyScores(), redisutils.FormatID(nodeID)).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %d", models.ErrScoreNotFound, nodeID)
	}

	return score, err
}

// AppendSample() appends a record to the samples list of the walk.
func (S *WalkStore) AppendSample(ctx context.Context, sample models.SampleRecord) error {
	if err := S.Validate(); err != nil {
		return err
	}

	return S.client.RPush(ctx, S.KeySamples(), records.FormatSample(sample)).Err()
}

// Samples() returns all the samples in walk order.
func (S *WalkStore) Samples(ctx context.Context) ([]models.SampleRecord, error) {
	if err := S.Validate(); err != nil {
		return nil, err
	}

	lines, err := S.client.LRange(ctx, S.KeySamples(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	samples := make([]models.SampleRecord, len(lines))
	for i, line := range lines {
		if samples[i], err = records.ParseSample(line); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	return samples, nil
}
