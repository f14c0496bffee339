// The redisdb package defines a Redis snapshot of the social graph that
// fulfills the GraphSource, Inspector, Classifier and KeyIndex interfaces in models.
package redisdb

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/redisutils"
)

const (
	KeyDatabase        string = "database"
	KeyLastNodeID      string = "lastNodeID"
	KeyKeyIndex        string = "keyIndex"
	KeyNodePrefix      string = "node:"
	KeyFollowsPrefix   string = "follows:"
	KeyFollowersPrefix string = "followers:"
)

// Database fulfills the GraphSource, Inspector, Classifier and KeyIndex interfaces defined in models
type Database struct {
	client *redis.Client
}

// NewDatabase() returns a Database on the client. The lastNodeID is
// initialized only if missing, so an existing snapshot is preserved.
func NewDatabase(ctx context.Context, cl *redis.Client) (*Database, error) {
	if cl == nil {
		return nil, models.ErrNilClientPointer
	}

	// the first ID will be 1, since we increment and return with HIncrBy
	if err := cl.HSetNX(ctx, KeyDatabase, KeyLastNodeID, 0).Err(); err != nil {
		return nil, err
	}

	return &Database{client: cl}, nil
}

// Validate() check if DB and client are nil and returns the appropriare error
func (DB *Database) Validate() error {
	if DB == nil {
		return models.ErrNilDBPointer
	}

	if DB.client == nil {
		return models.ErrNilClientPointer
	}

	return nil
}

// AddNode() adds a node with its relationships to the database. The nodeID is
// the one in the metadata; the relationships are added in both directions.
func (DB *Database) AddNode(ctx context.Context, node *models.Node) error {
	if err := DB.Validate(); err != nil {
		return err
	}

	nodeID := node.Metadata.ID
	exists, err := DB.client.Exists(ctx, KeyNode(nodeID)).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: %d", models.ErrNodeAlreadyInDB, nodeID)
	}

	pipe := DB.client.TxPipeline()
	pipe.HSet(ctx, KeyNode(nodeID), node.Metadata)
	if node.Metadata.Pubkey != "" {
		pipe.HSetNX(ctx, KeyKeyIndex, node.Metadata.Pubkey, nodeID)
	}

	if node.BotScore != nil {
		pipe.HSet(ctx, KeyNode(nodeID), models.KeyBotScore, redisutils.FormatFloat64(*node.BotScore))
	}

	AddFollows(ctx, pipe, nodeID, node.Follows)
	AddFollowers(ctx, pipe, nodeID, node.Followers)

	_, err = pipe.Exec(ctx)
	return err
}

// AddFollows() adds the follows of nodeID to the database
func AddFollows(ctx context.Context, pipe redis.Pipeliner, nodeID uint64, addedFollows []uint64) {
	strFollows := redisutils.FormatIDs(addedFollows)
	if len(strFollows) == 0 {
		return
	}

	pipe.SAdd(ctx, KeyFollows(nodeID), strFollows)

	// add nodeID to the followers of the other nodes
	for _, added := range addedFollows {
		pipe.SAdd(ctx, KeyFollowers(added), nodeID)
	}
}

// AddFollowers() adds the followers of nodeID to the database
func AddFollowers(ctx context.Context, pipe redis.Pipeliner, nodeID uint64, addedFollowers []uint64) {
	strFollowers := redisutils.FormatIDs(addedFollowers)
	if len(strFollowers) == 0 {
		return
	}

	pipe.SAdd(ctx, KeyFollowers(nodeID), strFollowers)

	// add nodeID to the follows of the other nodes
	for _, added := range addedFollowers {
		pipe.SAdd(ctx, KeyFollows(added), nodeID)
	}
}

// SetScore() writes the bot score of an existing nodeID.
func (DB *Database) SetScore(ctx context.Context, nodeID uint64, score float64) error {
	if err := DB.Validate(); err != nil {
		return err
	}

	if err := DB.exists(ctx, nodeID); err != nil {
		return err
	}

	return DB.client.HSet(ctx, KeyNode(nodeID), models.KeyBotScore, redisutils.FormatFloat64(score)).Err()
}

// ContainsNode() returns wheter the DB contains nodeID. In case of errors returns false.
func (DB *Database) ContainsNode(ctx context.Context, nodeID uint64) bool {
	return DB.exists(ctx, nodeID) == nil
}

func (DB *Database) exists(ctx context.Context, nodeID uint64) error {
	if err := DB.Validate(); err != nil {
		return err
	}

	exists, err := DB.client.Exists(ctx, KeyNode(nodeID)).Result()
	if err != nil {
		return err
	}

	if exists <= 0 {
		return fmt.Errorf("%w: %d", models.ErrNodeNotFoundDB, nodeID)
	}
	return nil
}

// Followers() returns at most limit followers of nodeID, in ascending order.
func (DB *Database) Followers(ctx context.Context, nodeID uint64, limit int) ([]uint64, error) {
	return DB.relation(ctx, KeyFollowers(nodeID), nodeID, limit)
}

// Friends() returns at most limit follows of nodeID, in ascending order.
func (DB *Database) Friends(ctx context.Context, nodeID uint64, limit int) ([]uint64, error) {
	return DB.relation(ctx, KeyFollows(nodeID), nodeID, limit)
}

func (DB *Database) relation(ctx context.Context, key string, nodeID uint64, limit int) ([]uint64, error) {
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	strIDs, err := DB.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	// an empty set might mean node not found
	if len(strIDs) == 0 {
		if err := DB.exists(ctx, nodeID); err != nil {
			return nil, err
		}
		return []uint64{}, nil
	}

	IDs, err := redisutils.ParseIDs(strIDs)
	if err != nil {
		return nil, err
	}

	slices.Sort(IDs)
	if limit > 0 && len(IDs) > limit {
		IDs = IDs[:limit]
	}

	return IDs, nil
}

// IsProtected() returns whether the relationships of nodeID are not retrievable.
func (DB *Database) IsProtected(ctx context.Context, nodeID uint64) (bool, error) {
	if err := DB.Validate(); err != nil {
		return false, err
	}

	protected, err := DB.client.HGet(ctx, KeyNode(nodeID), models.KeyProtected).Bool()
	if errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("%w: %d", models.ErrNodeNotFoundDB, nodeID)
	}

	return protected, err
}

// Score() returns the bot score of nodeID, or an error wrapping ErrScoreNotFound.
func (DB *Database) Score(ctx context.Context, nodeID uint64) (float64, error) {
	if err := DB.Validate(); err != nil {
		return 0, err
	}

	score, err := DB.client.HGet(ctx, KeyNode(nodeID), models.KeyBotScore).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %d", models.ErrScoreNotFound, nodeID)
	}

	return score, err
}

// NodeIDs() returns the nodeIDs of the pubkeys. Unknown pubkeys get a new
// nodeID and an empty node, so their relationships can be added later.
func (DB *Database) NodeIDs(ctx context.Context, pubkeys ...string) ([]uint64, error) {
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	if len(pubkeys) == 0 {
		return []uint64{}, nil
	}

	strIDs, err := DB.client.HMGet(ctx, KeyKeyIndex, pubkeys...).Result()
	if err != nil {
		return nil, err
	}

	nodeIDs := make([]uint64, len(pubkeys))
	for i, strID := range strIDs {
		if strID != nil {
			if nodeIDs[i], err = redisutils.ParseID(strID.(string)); err != nil {
				return nil, err
			}
			continue
		}

		if nodeIDs[i], err = DB.assign(ctx, pubkeys[i]); err != nil {
			return nil, err
		}
	}

	return nodeIDs, nil
}

// assign gives a new nodeID to the pubkey. The nodeID is taken outside the
// transaction, which implies there might be "holes", meaning IDs not
// associated with any node.
func (DB *Database) assign(ctx context.Context, pubkey string) (uint64, error) {
	nodeID, err := DB.client.HIncrBy(ctx, KeyDatabase, KeyLastNodeID, 1).Result()
	if err != nil {
		return 0, err
	}

	set, err := DB.client.HSetNX(ctx, KeyKeyIndex, pubkey, nodeID).Result()
	if err != nil {
		return 0, err
	}

	if !set {
		// another client assigned the pubkey in the meantime
		strID, err := DB.client.HGet(ctx, KeyKeyIndex, pubkey).Result()
		if err != nil {
			return 0, err
		}
		return redisutils.ParseID(strID)
	}

	meta := models.NodeMeta{ID: uint64(nodeID), Pubkey: pubkey}
	if err := DB.client.HSet(ctx, KeyNode(nodeID), meta).Err(); err != nil {
		return 0, err
	}

	return uint64(nodeID), nil
}

// Pubkeys() returns the pubkeys of the nodeIDs, or an error wrapping
// ErrNodeNotFoundDB if one of them has no pubkey.
func (DB *Database) Pubkeys(ctx context.Context, nodeIDs ...uint64) ([]string, error) {
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	if len(nodeIDs) == 0 {
		return []string{}, nil
	}

	pipe := DB.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(nodeIDs))
	for i, nodeID := range nodeIDs {
		cmds[i] = pipe.HGet(ctx, KeyNode(nodeID), models.KeyPubkey)
	}

	// if the error is redis.Nil, deal with it later
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	pubkeys := make([]string, len(nodeIDs))
	for i, cmd := range cmds {
		if errors.Is(cmd.Err(), redis.Nil) {
			return nil, fmt.Errorf("%w: %d", models.ErrNodeNotFoundDB, nodeIDs[i])
		}
		pubkeys[i] = cmd.Val()
	}

	return pubkeys, nil
}

// Size() returns the number of nodes with a pubkey in the DB. In case of errors, it returns 0.
func (DB *Database) Size(ctx context.Context) int {
	if err := DB.Validate(); err != nil {
		return 0
	}

	size, err := DB.client.HLen(ctx, KeyKeyIndex).Result()
	if err != nil {
		return 0
	}

	return int(size)
}

// ------------------------------------HELPERS----------------------------------

// the nodes of the test graphs.
const (
	A uint64 = iota + 1
	B
	C
	D
)

// function that returns a DB setup based on the DBType
func SetupDB(cl *redis.Client, DBType string) (*Database, error) {
	ctx := context.Background()
	if cl == nil {
		return nil, models.ErrNilClientPointer
	}

	switch DBType {
	case "nil":
		return nil, nil

	case "nil-client":
		return &Database{}, nil

	case "empty":
		return NewDatabase(ctx, cl)

	case "one-node":
		DB, err := NewDatabase(ctx, cl)
		if err != nil {
			return nil, err
		}

		score := 0.5
		node := &models.Node{Metadata: models.NodeMeta{ID: A, Pubkey: "a"}, BotScore: &score}
		if err := DB.AddNode(ctx, node); err != nil {
			return nil, err
		}
		return DB, nil

	case "star":
		// A <--> B, C <--> B, D <--> B, with B the only bot and D protected
		DB, err := NewDatabase(ctx, cl)
		if err != nil {
			return nil, err
		}

		scores := []float64{0.1, 0.99, 0.3, 0.05}
		nodes := []*models.Node{
			{Metadata: models.NodeMeta{ID: A, Pubkey: "a"}, Follows: []uint64{B}},
			{Metadata: models.NodeMeta{ID: B, Pubkey: "b"}, Follows: []uint64{A, C, D}},
			{Metadata: models.NodeMeta{ID: C, Pubkey: "c"}, Follows: []uint64{B}},
			{Metadata: models.NodeMeta{ID: D, Pubkey: "d", Protected: true}, Follows: []uint64{B}},
		}

		for i, node := range nodes {
			node.BotScore = &scores[i]
			if err := DB.AddNode(ctx, node); err != nil {
				return nil, err
			}
		}

		if err := cl.HSet(ctx, KeyDatabase, KeyLastNodeID, D).Err(); err != nil {
			return nil, err
		}
		return DB, nil

	default:
		return nil, nil // default to nil
	}
}

// KeyNode() returns the Redis key for the node with specified nodeID
func KeyNode(nodeID interface{}) string {
	return fmt.Sprintf("%v%d", KeyNodePrefix, nodeID)
}

// KeyFollows() returns the Redis key for the follows of the specified nodeID
func KeyFollows(nodeID interface{}) string {
	return fmt.Sprintf("%v%d", KeyFollowsPrefix, nodeID)
}

// KeyFollowers() returns the Redis key for the followers of the specified nodeID
func KeyFollowers(nodeID interface{}) string {
	return fmt.Sprintf("%v%d", KeyFollowersPrefix, nodeID)
}
