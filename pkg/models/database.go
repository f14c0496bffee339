/*
The models package defines the fundamental structures and interfaces used in this project.
Interfaces:

GraphSource, Inspector, Classifier:
The boundary to the social network. GraphSource returns the followers and friends
of an account, Inspector tells whether an account is protected (its neighbors
cannot be fetched), and Classifier scores how likely an account is to be a bot.

KeyIndex:
Associates Nostr pubkeys to the numeric nodeIDs used by the walk.

WalkStore:
The WalkStore interface abstracts the state of a single random walk: the
explored nodes with their neighbor sets, the bot scores and the ordered samples.
*/
package models

import (
	"context"
	"errors"
)

const (
	KeyID        string = "id"
	KeyPubkey    string = "pubkey"
	KeyProtected string = "protected"
	KeyBotScore  string = "bot_score"
)

// NodeMeta contains the metadata about a node of the social graph, meaning
// everything that is not a relationship.
type NodeMeta struct {
	ID        uint64 `redis:"id"`
	Pubkey    string `redis:"pubkey,omitempty"`
	Protected bool   `redis:"protected"`
}

// Node represent the basic structure of a node in the social graph snapshot.
type Node struct {
	Metadata  NodeMeta
	Follows   []uint64
	Followers []uint64

	// the bot score of the node, nil if the node was never classified
	BotScore *float64
}

// GraphSource fetches the relationships of accounts from the social network.
type GraphSource interface {
	// Followers() returns at most limit followers of nodeID.
	Followers(ctx context.Context, nodeID uint64, limit int) ([]uint64, error)

	// Friends() returns at most limit accounts followed by nodeID.
	Friends(ctx context.Context, nodeID uint64, limit int) ([]uint64, error)
}

// Inspector answers visibility queries about accounts.
type Inspector interface {
	// IsProtected() returns whether the relationships of nodeID are not retrievable.
	IsProtected(ctx context.Context, nodeID uint64) (bool, error)
}

// Classifier scores accounts. The score is a probability-like value in [0,1].
type Classifier interface {
	// Score() returns the bot score of nodeID.
	Score(ctx context.Context, nodeID uint64) (float64, error)
}

// KeyIndex associates Nostr pubkeys with nodeIDs.
type KeyIndex interface {
	// NodeIDs() returns the nodeIDs of the pubkeys, assigning a new nodeID to
	// every pubkey that was never seen before.
	NodeIDs(ctx context.Context, pubkeys ...string) ([]uint64, error)

	// Pubkeys() returns the pubkeys of the nodeIDs. If one of them is not found,
	// ErrNodeNotFoundDB is returned.
	Pubkeys(ctx context.Context, nodeIDs ...uint64) ([]string, error)
}

//--------------------------ERROR-CODES--------------------------

var ErrNilDBPointer = errors.New("database pointer is nil")
var ErrNodeNotFoundDB = errors.New("node not found in the database")
var ErrNodeAlreadyInDB = errors.New("node already in the database")
var ErrScoreNotFound = errors.New("bot score not found")

var ErrNilClientPointer = errors.New("nil client pointer")

var ErrGraphFetch = errors.New("failed to fetch the neighbors")
var ErrClassification = errors.New("failed to classify the node")
