package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vertex-lab/botpop/pkg/classifier"
	"github.com/vertex-lab/botpop/pkg/crawler"
	"github.com/vertex-lab/botpop/pkg/database/redisdb"
	"github.com/vertex-lab/botpop/pkg/metrics"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/records"
	"github.com/vertex-lab/botpop/pkg/sampling"
	mockstore "github.com/vertex-lab/botpop/pkg/store/mock"
	"github.com/vertex-lab/botpop/pkg/store/redistore"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
	"github.com/vertex-lab/botpop/pkg/utils/redisutils"
	"github.com/vertex-lab/botpop/pkg/utils/throttle"
	"github.com/vertex-lab/botpop/pkg/walks"
)

func runWalk(cmd *cobra.Command, args []string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}

	run := sampling.Config{
		TargetSamples:     walkFlags.samples,
		Duration:          walkDuration(walkFlags.days, walkFlags.hours, walkFlags.minutes),
		CalcBotPopulation: walkFlags.calcBotPpl,
		Cut:               walkFlags.cut,
	}

	if err := run.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := redisutils.SetupClient(config.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	DB, err := redisdb.NewDatabase(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to connect to the graph database: %w", err)
	}

	initial, err := initialNode(ctx, DB)
	if err != nil {
		return err
	}

	start := time.Now()
	paths := records.NewPaths(config.OutputDir, start, initial, run.TargetSamples, run.Duration)
	if err := os.MkdirAll(paths.Dir, 0755); err != nil {
		return err
	}

	logFile, err := records.OpenAppend(paths.Log())
	if err != nil {
		return err
	}
	defer logFile.Close()

	log := newLogger(config.LogFormat, logFile)
	nostr.InfoLogger = stdlog.New(log.Writer(), "", 0)
	nostr.DebugLogger = stdlog.New(log.Writer(), "", 0)

	PrintTitle(log)
	config.Print()
	run.Print()

	go crawler.HandleSignals(cancel, log)

	if config.MetricsAddr != "" {
		server := serveMetrics(config.MetricsAddr, log)
		defer server.Shutdown(context.Background())
	}

	source, inspector, closeSource, err := setupBoundary(config, DB, log)
	if err != nil {
		return err
	}
	defer closeSource()

	store, err := setupStore(ctx, config, client, log)
	if err != nil {
		return err
	}

	seed := config.RandomSeed()
	log.Info("random seed: %d", seed)

	walker, err := walks.NewWalker(config.Walks(), store, source, inspector, rand.New(rand.NewSource(seed)), log, initial)
	if err != nil {
		return err
	}

	var adapter *classifier.Adapter
	if run.CalcBotPopulation {
		if adapter, err = classifier.NewAdapter(DB, walkFlags.threshold, log); err != nil {
			return err
		}
	}

	writer, closeWriter, err := openWriter(paths, run, walkFlags.threshold)
	if err != nil {
		return err
	}
	defer closeWriter()

	sampler, err := sampling.NewSampler(run, walker, store, adapter, writer, log)
	if err != nil {
		return err
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	if config.DisplayStats {
		go DisplayStats(statsCtx, sampler.Stats, store)
	}

	result, err := sampler.Run(ctx)
	stopStats()

	if errors.Is(err, models.ErrReseedRequired) {
		fmt.Printf("\nThe walk cannot start from node %d: %v\n", initial, err)
		fmt.Println("Choose another initial node and start a new walk.")
		log.Error("reseed required: %v", err)
		return err
	}

	if err != nil {
		log.Error("the walk failed: %v", err)
		return err
	}

	PrintResult(result, paths, run, walkFlags.threshold)
	return nil
}

// walkDuration() returns the duration of the walk.
func walkDuration(days, hours, minutes int) time.Duration {
	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute
}

// initialNode() returns the nodeID of the initial account, resolving the pubkey if one is given.
func initialNode(ctx context.Context, index models.KeyIndex) (uint64, error) {
	if walkFlags.initialPubkey == "" {
		return walkFlags.initial, nil
	}

	if !nostr.IsValidPublicKey(walkFlags.initialPubkey) {
		return 0, fmt.Errorf("pubkey %s is not valid", walkFlags.initialPubkey)
	}

	IDs, err := index.NodeIDs(ctx, walkFlags.initialPubkey)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve the initial pubkey: %w", err)
	}
	return IDs[0], nil
}

func newLogger(format string, file *os.File) *logger.Aggregate {
	if format == FormatConsole {
		return logger.NewConsole(file)
	}
	return logger.New(file)
}

// setupBoundary() returns the graph source and the inspector of the walk,
// throttled as configured, and the function that releases them.
func setupBoundary(config *Config, DB *redisdb.Database, log *logger.Aggregate) (models.GraphSource, models.Inspector, func(), error) {
	var source models.GraphSource = DB
	var inspector models.Inspector = DB
	closeSource := func() {}

	if config.GraphSource == SourceNostr {
		pool := nostr.NewSimplePool(context.Background())
		relays, err := crawler.NewSource(pool, config.Relays, DB, log)
		if err != nil {
			return nil, nil, nil, err
		}

		source, inspector = relays, relays
		closeSource = func() { crawler.Close(log, pool) }
	}

	limiter := throttle.New(source, inspector, config.QueriesPerSecond)
	log.Info("graph source: %s, at most %v calls per second", config.GraphSource, limiter.Limit())
	return limiter, limiter, closeSource, nil
}

// setupStore() returns the store of the walk. A Redis store lives in its own
// namespace, one for each run.
func setupStore(ctx context.Context, config *Config, client *redis.Client, log *logger.Aggregate) (models.WalkStore, error) {
	if config.WalkStore == StoreMemory {
		return mockstore.NewWalkStore(), nil
	}

	store, err := redistore.NewWalkStore(ctx, client, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the walk store: %w", err)
	}

	log.Info("walk store namespace: %s", store.KeyPrefix())
	return store, nil
}

// openWriter() opens the logs of the walk for appending, returning the
// records.Writer and the function that closes them.
func openWriter(paths records.Paths, run sampling.Config, threshold float64) (*records.Writer, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, file := range files {
			file.Close()
		}
	}

	open := func(path string) (*os.File, error) {
		file, err := records.OpenAppend(path)
		if err != nil {
			closeAll()
			return nil, err
		}
		files = append(files, file)
		return file, nil
	}

	samples, err := open(paths.SampleList())
	if err != nil {
		return nil, nil, err
	}

	writer := &records.Writer{Samples: samples}
	if !run.CalcBotPopulation {
		return writer, closeAll, nil
	}

	if writer.Scores, err = open(paths.BotScore()); err != nil {
		return nil, nil, err
	}

	if writer.Estimates, err = open(paths.Estimate(threshold, run.Cut)); err != nil {
		return nil, nil, err
	}

	return writer, closeAll, nil
}

// serveMetrics() exposes the Prometheus metrics at addr/metrics.
func serveMetrics(addr string, log *logger.Aggregate) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server: %v", err)
		}
	}()

	log.Info("serving metrics at %s/metrics", addr)
	return server
}
