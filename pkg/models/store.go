package models

import (
	"context"
	"errors"
)

// SampleRecord is one step of the walk: the sampled node, the number of its
// followers and friends, and the size of its neighbor set at that step.
type SampleRecord struct {
	NodeID    uint64
	Followers int
	Friends   int
	Neighbors int
}

// Explored contains what the walk learned about a node when it was explored
// for the first time. Degree is never modified afterwards.
type Explored struct {
	ID        uint64
	Followers int
	Friends   int
	Degree    int
}

// VisitedRegistry tells whether a node has already been explored by the walk.
type VisitedRegistry interface {
	// IsVisited() returns whether nodeID has been explored (ignores errors).
	IsVisited(ctx context.Context, nodeID uint64) bool
}

// WalkStore handles the state of a single random walk.
type WalkStore interface {
	VisitedRegistry

	// Validate() returns the appropriate error if the store is nil.
	Validate() error

	// Size() returns the number of explored nodes (ignores errors).
	Size(ctx context.Context) int

	// Explore() stores the node and its neighbor set, marking it as visited.
	// Either everything is written or nothing is. Exploring a visited node
	// returns ErrNodeAlreadyExplored.
	Explore(ctx context.Context, node Explored, neighbors []uint64) error

	// Explored() returns what is known about a visited node.
	Explored(ctx context.Context, nodeID uint64) (*Explored, error)

	// Neighbors() returns the sorted neighbor set of a visited node.
	Neighbors(ctx context.Context, nodeID uint64) ([]uint64, error)

	// AddNeighbor() adds neighborID to the neighbor set of the visited nodeID.
	// The degree of nodeID is left untouched.
	AddNeighbor(ctx context.Context, nodeID, neighborID uint64) error

	// SetScore() stores the bot score of nodeID. Scores are written once.
	SetScore(ctx context.Context, nodeID uint64, score float64) error

	// Score() returns the bot score of nodeID, or ErrScoreNotFound.
	Score(ctx context.Context, nodeID uint64) (float64, error)

	// AppendSample() appends a record to the ordered samples of the walk.
	AppendSample(ctx context.Context, sample SampleRecord) error

	// Samples() returns all the samples in walk order.
	Samples(ctx context.Context) ([]SampleRecord, error)
}

//---------------------------------ERROR-CODES---------------------------------

// store errors
var ErrNilStorePointer = errors.New("nil walk store pointer")
var ErrNodeNotFoundStore = errors.New("node not explored by the walk")
var ErrNodeAlreadyExplored = errors.New("node already explored by the walk")
var ErrScoreAlreadySet = errors.New("bot score already set")

// walk errors
var ErrSelectionExhausted = errors.New("no acceptable neighbor within the query budget")
var ErrReseedRequired = errors.New("the initial node cannot be explored, a new seed is required")
var ErrNoContinuation = errors.New("the walk has no continuation")
var ErrBacktrackLimit = errors.New("too many consecutive backtracks")
var ErrWalkTerminated = errors.New("the walk is terminated")
var ErrInvalidMaxResults = errors.New("max results per fetch should be greater than zero")
var ErrInvalidMaxQueries = errors.New("max verification queries should be greater than zero")
var ErrInvalidMaxBacktracks = errors.New("max backtracks should be greater than zero")

// estimation errors
var ErrDegenerateDegree = errors.New("node with non-positive degree in the sequence")
var ErrDegreeNotFound = errors.New("degree not found for a node in the sequence")
var ErrLabelNotFound = errors.New("label not found for a node in the sequence")
var ErrInvalidCut = errors.New("cut should be non-negative")
var ErrInvalidResumeInput = errors.New("invalid resume input")
