// The package crawler fetches the follow lists of Nostr pubkeys from relays,
// and exposes them as the followers and friends of the corresponding nodes.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
)

var (
	RelevantKinds = []int{
		nostr.KindFollowList,
	}

	Relays = []string{
		"wss://purplepag.es",
		"wss://njump.me",
		"wss://relay.snort.social",
		"wss://relay.damus.io",
		"wss://relay.primal.net",
		"wss://relay.nostr.band",
		"wss://nostr-pub.wellorder.net",
		"wss://relay.nostr.net",
		"wss://nos.lol",
		"wss://wot.utxo.one",
	}
)

const DefaultTimeout = 15 * time.Second

var ErrNilIndex = errors.New("nil key index")

// QueryFunc returns the events that match the filter, closing the channel
// once every relay has sent them all.
type QueryFunc func(ctx context.Context, filter nostr.Filter) <-chan nostr.RelayEvent

/*
Source fulfills the GraphSource and Inspector interfaces over Nostr:

- the friends of a node are the pubkeys in its latest follow list (kind:3).

- the followers of a node are the authors of the follow lists that tag it.

- a node is protected if no follow list can be found for it, since then its
friends are unknown.

Pubkeys and nodeIDs are associated by the KeyIndex; the KeyCache avoids
querying it for pubkeys already resolved.
*/
type Source struct {
	query   QueryFunc
	index   models.KeyIndex
	keys    models.KeyCache
	timeout time.Duration
	log     *logger.Aggregate
}

// NewSource() returns a Source that queries the relays with the pool.
func NewSource(pool *nostr.SimplePool, relays []string, index models.KeyIndex, log *logger.Aggregate) (*Source, error) {
	query := func(ctx context.Context, filter nostr.Filter) <-chan nostr.RelayEvent {
		return pool.SubManyEose(ctx, relays, nostr.Filters{filter})
	}
	return NewSourceWithQuery(query, index, log)
}

// NewSourceWithQuery() returns a Source that fetches events with query.
func NewSourceWithQuery(query QueryFunc, index models.KeyIndex, log *logger.Aggregate) (*Source, error) {
	if query == nil {
		return nil, errors.New("nil query function")
	}

	if index == nil {
		return nil, ErrNilIndex
	}

	return &Source{
		query:   query,
		index:   index,
		keys:    models.NewKeyCache(),
		timeout: DefaultTimeout,
		log:     log,
	}, nil
}

// Friends() returns at most limit nodes followed by nodeID, in ascending order.
// A node without follow list has no friends.
func (s *Source) Friends(ctx context.Context, nodeID uint64, limit int) ([]uint64, error) {
	pubkey, err := s.pubkey(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	event, err := s.followList(ctx, pubkey)
	if err != nil {
		return nil, err
	}

	if event == nil {
		return []uint64{}, nil
	}

	pubkeys := ParsePubkeys(event.Tags)
	pubkeys = slices.DeleteFunc(pubkeys, func(pk string) bool { return pk == pubkey })
	return s.nodeIDs(ctx, pubkeys, limit)
}

// Followers() returns at most limit nodes that follow nodeID, in ascending order.
func (s *Source) Followers(ctx context.Context, nodeID uint64, limit int) ([]uint64, error) {
	pubkey, err := s.pubkey(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	filter := nostr.Filter{
		Kinds: RelevantKinds,
		Tags:  nostr.TagMap{"p": {pubkey}},
		Limit: limit,
	}

	latest, err := s.fetch(ctx, filter)
	if err != nil {
		return nil, err
	}

	authors := make([]string, 0, len(latest))
	for _, event := range latest {
		if event.PubKey != pubkey {
			authors = append(authors, event.PubKey)
		}
	}

	// the relays don't apply the limit to the union of their results
	slices.Sort(authors)
	return s.nodeIDs(ctx, authors, limit)
}

// IsProtected() returns whether nodeID has no retrievable follow list.
func (s *Source) IsProtected(ctx context.Context, nodeID uint64) (bool, error) {
	pubkey, err := s.pubkey(ctx, nodeID)
	if err != nil {
		return false, err
	}

	event, err := s.followList(ctx, pubkey)
	if err != nil {
		return false, err
	}

	return event == nil, nil
}

// followList() returns the latest follow list of the pubkey, or nil if there is none.
func (s *Source) followList(ctx context.Context, pubkey string) (*nostr.Event, error) {
	filter := nostr.Filter{
		Kinds:   RelevantKinds,
		Authors: []string{pubkey},
	}

	latest, err := s.fetch(ctx, filter)
	if err != nil {
		return nil, err
	}

	return latest[KeyPubkeyKind(pubkey, nostr.KindFollowList)], nil
}

// fetch() queries the events matching the filter, returning the latest event
// for each pair (pubkey, kind). If the relays are still sending events when the
// timeout expires, the partial result is discarded and an error is returned.
func (s *Source) fetch(ctx context.Context, filter nostr.Filter) (map[string]*nostr.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	latest := Latest(s.query(ctx, filter))

	// the relays didn't send all their events before the timeout or the cancellation
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("incomplete query: %w", context.Cause(ctx))
	}

	return latest, nil
}

// Latest() consumes the events, returning the latest valid event of each pair (pubkey, kind).
// Events with invalid ID or signature are ignored.
func Latest(events <-chan nostr.RelayEvent) map[string]*nostr.Event {
	latest := make(map[string]*nostr.Event)
	for event := range events {

		if event.Event == nil {
			continue
		}

		if !event.CheckID() {
			continue
		}

		if match, err := event.CheckSignature(); err != nil || !match {
			continue
		}

		key := KeyPubkeyKind(event.PubKey, event.Kind)
		e, exists := latest[key]
		if !exists || event.CreatedAt > e.CreatedAt {
			latest[key] = event.Event
		}
	}

	return latest
}

// pubkey() returns the pubkey of nodeID.
func (s *Source) pubkey(ctx context.Context, nodeID uint64) (string, error) {
	pubkeys, err := s.index.Pubkeys(ctx, nodeID)
	if err != nil {
		return "", err
	}
	return pubkeys[0], nil
}

// nodeIDs() returns at most limit sorted nodeIDs of the pubkeys, resolving
// through the KeyCache first.
func (s *Source) nodeIDs(ctx context.Context, pubkeys []string, limit int) ([]uint64, error) {
	nodeIDs := make([]uint64, 0, len(pubkeys))
	missing := make([]string, 0, len(pubkeys))

	for _, pk := range pubkeys {
		if ID, ok := s.keys.Load(pk); ok {
			nodeIDs = append(nodeIDs, ID)
			continue
		}
		missing = append(missing, pk)
	}

	if len(missing) > 0 {
		IDs, err := s.index.NodeIDs(ctx, missing...)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %d pubkeys: %w", len(missing), err)
		}

		for i, ID := range IDs {
			s.keys.Store(missing[i], ID)
		}
		nodeIDs = append(nodeIDs, IDs...)
	}

	slices.Sort(nodeIDs)
	nodeIDs = slices.Compact(nodeIDs)
	if limit > 0 && len(nodeIDs) > limit {
		nodeIDs = nodeIDs[:limit]
	}

	return nodeIDs, nil
}

// Keys() returns the pubkey --> nodeID associations resolved so far.
func (s *Source) Keys() map[string]uint64 {
	return models.ToMap(s.keys)
}

// ------------------------------------HELPERS----------------------------------

// ParsePubkeys returns the slice of pubkeys that are correctly listed in the nostr.Tags.
// Badly formatted tags are ignored.
func ParsePubkeys(tags nostr.Tags) []string {
	const followPrefix = "p"

	pubkeys := make([]string, 0, len(tags))
	for _, tag := range tags {

		if len(tag) < 2 {
			continue
		}

		if tag[0] != followPrefix {
			continue
		}

		if !nostr.IsValidPublicKey(tag[1]) {
			continue
		}

		pubkeys = append(pubkeys, tag[1])
	}

	return pubkeys
}

// KeyPubkeyKind() returns the string "<pubkey>:<kind>", useful as a key in maps that need to associates one value to the pair (pubkey, kind).
func KeyPubkeyKind(pubkey string, kind int) string {
	return fmt.Sprintf("%s:%d", pubkey, kind)
}

// Close() iterates over the relays in the pool and closes all connections.
func Close(logger *logger.Aggregate, pool *nostr.SimplePool) {
	logger.Info("closing relay connections...")
	pool.Relays.Range(func(_ string, relay *nostr.Relay) bool {
		relay.Close()
		return true
	})
}

// HandleSignals() listens for OS signals and triggers context cancellation.
func HandleSignals(cancel context.CancelFunc, l *logger.Aggregate) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	<-signalChan // Block until a signal is received
	l.Info("signal received. Shutting down...")
	cancel()
}
