// The mock database package allows for testing that are decoupled from a
// particular social network. The Database fulfills GraphSource, Inspector,
// Classifier and KeyIndex, and can be instructed to fail on specific nodes.
package mock

import (
	"context"
	"errors"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/vertex-lab/botpop/pkg/models"
)

type NodeSet = mapset.Set[uint64]

var ErrInjected = errors.New("injected failure")

// simulates a simple social graph for testing.
type Database struct {

	// a map that associates each nodeID with its node metadata
	NodeIndex map[uint64]*models.NodeMeta

	// a map that associates each public key with a unique nodeID
	KeyIndex map[string]uint64

	// maps that associate each nodeID with the set of its follows/followers
	Follow   map[uint64]NodeSet
	Follower map[uint64]NodeSet

	// the bot score of each classified node
	Scores map[uint64]float64

	// the nodes for which the corresponding call fails
	FailFollowers NodeSet
	FailFriends   NodeSet
	FailInspect   NodeSet

	// the number of calls received by the boundary methods
	FetchCount int
	QueryCount int
	ScoreCount int

	// the last nodeID assigned by NodeIDs()
	LastNodeID uint64
}

// NewDatabase() creates and returns a new Database instance.
func NewDatabase() *Database {
	return &Database{
		NodeIndex:     make(map[uint64]*models.NodeMeta),
		KeyIndex:      make(map[string]uint64),
		Follow:        make(map[uint64]NodeSet),
		Follower:      make(map[uint64]NodeSet),
		Scores:        make(map[uint64]float64),
		FailFollowers: mapset.NewThreadUnsafeSet[uint64](),
		FailFriends:   mapset.NewThreadUnsafeSet[uint64](),
		FailInspect:   mapset.NewThreadUnsafeSet[uint64](),
	}
}

// Validate() returns an error if the DB is nil
func (DB *Database) Validate() error {
	if DB == nil {
		return models.ErrNilDBPointer
	}
	return nil
}

// AddNode() adds the node with its relationships and its score (if any).
func (DB *Database) AddNode(ctx context.Context, node *models.Node) error {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return err
	}

	nodeID := node.Metadata.ID
	if _, exists := DB.NodeIndex[nodeID]; exists {
		return models.ErrNodeAlreadyInDB
	}

	meta := node.Metadata
	DB.NodeIndex[nodeID] = &meta
	DB.set(DB.Follow, nodeID)
	DB.set(DB.Follower, nodeID)

	if meta.Pubkey != "" {
		DB.KeyIndex[meta.Pubkey] = nodeID
	}

	for _, ID := range node.Follows {
		DB.AddFollow(nodeID, ID)
	}

	for _, ID := range node.Followers {
		DB.AddFollow(ID, nodeID)
	}

	if node.BotScore != nil {
		DB.Scores[nodeID] = *node.BotScore
	}

	return nil
}

// AddFollow() adds the relationship follower --> followed.
func (DB *Database) AddFollow(follower, followed uint64) {
	DB.set(DB.Follow, follower).Add(followed)
	DB.set(DB.Follower, followed).Add(follower)
}

// AddEdge() makes a and b follow each other.
func (DB *Database) AddEdge(a, b uint64) {
	DB.AddFollow(a, b)
	DB.AddFollow(b, a)
}

func (DB *Database) set(index map[uint64]NodeSet, nodeID uint64) NodeSet {
	if _, exists := DB.NodeIndex[nodeID]; !exists {
		DB.NodeIndex[nodeID] = &models.NodeMeta{ID: nodeID}
	}

	if _, exists := index[nodeID]; !exists {
		index[nodeID] = mapset.NewThreadUnsafeSet[uint64]()
	}
	return index[nodeID]
}

// Followers() returns at most limit followers of nodeID, in ascending order.
func (DB *Database) Followers(ctx context.Context, nodeID uint64, limit int) ([]uint64, error) {
	return DB.relation(ctx, DB.Follower, DB.FailFollowers, nodeID, limit)
}

// Friends() returns at most limit follows of nodeID, in ascending order.
func (DB *Database) Friends(ctx context.Context, nodeID uint64, limit int) ([]uint64, error) {
	return DB.relation(ctx, DB.Follow, DB.FailFriends, nodeID, limit)
}

func (DB *Database) relation(
	ctx context.Context,
	index map[uint64]NodeSet,
	fail NodeSet,
	nodeID uint64,
	limit int) ([]uint64, error) {

	_ = ctx
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	DB.FetchCount++
	if fail.Contains(nodeID) {
		return nil, fmt.Errorf("%w: fetching node %d", ErrInjected, nodeID)
	}

	if _, exists := DB.NodeIndex[nodeID]; !exists {
		return nil, fmt.Errorf("%w: %d", models.ErrNodeNotFoundDB, nodeID)
	}

	IDs := index[nodeID].ToSlice()
	slices.Sort(IDs)
	if limit > 0 && len(IDs) > limit {
		IDs = IDs[:limit]
	}

	return IDs, nil
}

// IsProtected() returns whether nodeID is protected. Every call is counted, failed ones included.
func (DB *Database) IsProtected(ctx context.Context, nodeID uint64) (bool, error) {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return false, err
	}

	DB.QueryCount++
	if DB.FailInspect.Contains(nodeID) {
		return false, fmt.Errorf("%w: inspecting node %d", ErrInjected, nodeID)
	}

	node, exists := DB.NodeIndex[nodeID]
	if !exists {
		return false, fmt.Errorf("%w: %d", models.ErrNodeNotFoundDB, nodeID)
	}

	return node.Protected, nil
}

// Score() returns the bot score of nodeID.
func (DB *Database) Score(ctx context.Context, nodeID uint64) (float64, error) {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return 0, err
	}

	DB.ScoreCount++
	score, exists := DB.Scores[nodeID]
	if !exists {
		return 0, fmt.Errorf("%w: %d", models.ErrScoreNotFound, nodeID)
	}

	return score, nil
}

// NodeIDs() returns the nodeIDs of the pubkeys, assigning new ones to the unknown pubkeys.
func (DB *Database) NodeIDs(ctx context.Context, pubkeys ...string) ([]uint64, error) {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	nodeIDs := make([]uint64, len(pubkeys))
	for i, pubkey := range pubkeys {
		nodeID, exists := DB.KeyIndex[pubkey]
		if !exists {
			DB.LastNodeID++
			nodeID = DB.LastNodeID
			DB.KeyIndex[pubkey] = nodeID
			DB.NodeIndex[nodeID] = &models.NodeMeta{ID: nodeID, Pubkey: pubkey}
		}

		nodeIDs[i] = nodeID
	}

	return nodeIDs, nil
}

// Pubkeys() returns the pubkeys of the nodeIDs.
func (DB *Database) Pubkeys(ctx context.Context, nodeIDs ...uint64) ([]string, error) {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	pubkeys := make([]string, len(nodeIDs))
	for i, nodeID := range nodeIDs {
		node, exists := DB.NodeIndex[nodeID]
		if !exists || node.Pubkey == "" {
			return nil, fmt.Errorf("%w: %d", models.ErrNodeNotFoundDB, nodeID)
		}

		pubkeys[i] = node.Pubkey
	}

	return pubkeys, nil
}

// ------------------------------------HELPERS----------------------------------

// the nodes of the "star" graph.
const (
	A uint64 = iota + 1
	B
	C
	D
)

// function that returns a DB setup based on the DBType
func SetupDB(DBType string) *Database {
	switch DBType {

	case "nil":
		return nil

	case "empty":
		return NewDatabase()

	case "one-node":
		DB := NewDatabase()
		DB.NodeIndex[A] = &models.NodeMeta{ID: A}
		DB.Follow[A] = mapset.NewThreadUnsafeSet[uint64]()
		DB.Follower[A] = mapset.NewThreadUnsafeSet[uint64]()
		DB.Scores[A] = 0.5
		return DB

	case "path":
		// A <--> B
		DB := NewDatabase()
		DB.AddEdge(A, B)
		DB.Scores[A] = 0.1
		DB.Scores[B] = 0.2
		return DB

	case "star":
		// A <--> B, C <--> B, D <--> B, with B the only bot
		DB := NewDatabase()
		DB.AddEdge(A, B)
		DB.AddEdge(B, C)
		DB.AddEdge(B, D)
		DB.Scores = map[uint64]float64{A: 0.1, B: 0.99, C: 0.3, D: 0.05}
		return DB

	case "directed":
		// A --> B --> C, so B learns about A only by being reached from it
		DB := NewDatabase()
		DB.AddFollow(A, B)
		DB.AddFollow(B, C)
		return DB

	case "protected-neighbor":
		// A <--> B, with B protected
		DB := NewDatabase()
		DB.AddEdge(A, B)
		DB.NodeIndex[B].Protected = true
		return DB

	case "failing-neighbor":
		// A <--> B, A <--> C, with the followers of B not retrievable
		DB := NewDatabase()
		DB.AddEdge(A, B)
		DB.AddEdge(A, C)
		DB.FailFollowers.Add(B)
		return DB

	case "failing-seed":
		// A <--> B, with the friends of A not retrievable
		DB := NewDatabase()
		DB.AddEdge(A, B)
		DB.FailFriends.Add(A)
		return DB

	default:
		return nil // default to nil
	}
}
