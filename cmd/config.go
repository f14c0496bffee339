package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nbd-wtf/go-nostr"
	"github.com/vertex-lab/botpop/pkg/crawler"
	"github.com/vertex-lab/botpop/pkg/utils/redisutils"
	"github.com/vertex-lab/botpop/pkg/walks"
)

const (
	SourceRedis = "redis"
	SourceNostr = "nostr"

	StoreMemory = "memory"
	StoreRedis  = "redis"

	FormatJSON    = "json"
	FormatConsole = "console"
)

type SystemConfig struct {
	GraphSource      string   `envconfig:"GRAPH_SOURCE" default:"redis"`
	RedisURL         string   `envconfig:"REDIS_URL"`
	Relays           []string `envconfig:"RELAYS"`
	WalkStore        string   `envconfig:"WALK_STORE" default:"memory"`
	QueriesPerSecond float64  `envconfig:"QUERIES_PER_SECOND" default:"0"`
	OutputDir        string   `envconfig:"OUTPUT_DIR" default:"outputs"`
	LogFormat        string   `envconfig:"LOG_FORMAT" default:"json"`
	MetricsAddr      string   `envconfig:"METRICS_ADDR"`
	DisplayStats     bool     `envconfig:"DISPLAY_STATS" default:"false"`

	// the seed of the random walk. Zero means a seed derived from the clock.
	Seed int64 `envconfig:"SEED" default:"0"`
}

// The limits of the walk engine, see walks.Config.
type WalkConfig struct {
	MaxResults    int `envconfig:"MAX_RESULTS" default:"5000"`
	MaxQueries    int `envconfig:"MAX_QUERIES" default:"900"`
	MaxBacktracks int `envconfig:"MAX_BACKTRACKS" default:"1000"`
}

// The configuration parameters for the system and the walk.
type Config struct {
	SystemConfig
	WalkConfig
}

func NewSystemConfig() SystemConfig {
	return SystemConfig{
		GraphSource: SourceRedis,
		RedisURL:    redisutils.DefaultURL,
		Relays:      crawler.Relays,
		WalkStore:   StoreMemory,
		OutputDir:   "outputs",
		LogFormat:   FormatJSON,
	}
}

// NewConfig() returns a config with default parameters.
func NewConfig() *Config {
	walk := walks.NewConfig()
	return &Config{
		SystemConfig: NewSystemConfig(),
		WalkConfig: WalkConfig{
			MaxResults:    walk.MaxResults,
			MaxQueries:    walk.MaxQueries,
			MaxBacktracks: walk.MaxBacktracks,
		},
	}
}

// Walks() returns the walks.Config of c.
func (c *Config) Walks() walks.Config {
	return walks.Config{
		MaxResults:    c.MaxResults,
		MaxQueries:    c.MaxQueries,
		MaxBacktracks: c.MaxBacktracks,
	}
}

// RandomSeed() returns the seed of the walk.
func (c *Config) RandomSeed() int64 {
	if c.Seed == 0 {
		return time.Now().UnixNano()
	}
	return c.Seed
}

// Validate() returns an error if a parameter is not valid.
func (c *Config) Validate() error {
	switch c.GraphSource {
	case SourceRedis, SourceNostr:
	default:
		return fmt.Errorf("GRAPH_SOURCE should be %q or %q, got %q", SourceRedis, SourceNostr, c.GraphSource)
	}

	switch c.WalkStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("WALK_STORE should be %q or %q, got %q", StoreMemory, StoreRedis, c.WalkStore)
	}

	switch c.LogFormat {
	case FormatJSON, FormatConsole:
	default:
		return fmt.Errorf("LOG_FORMAT should be %q or %q, got %q", FormatJSON, FormatConsole, c.LogFormat)
	}

	if c.GraphSource == SourceNostr {
		if len(c.Relays) == 0 {
			return errors.New("list of relays is empty")
		}

		for _, relay := range c.Relays {
			if !nostr.IsValidRelayURL(relay) {
				return fmt.Errorf("relay \"%s\" is not a valid url", relay)
			}
		}
	}

	if c.QueriesPerSecond < 0 {
		return fmt.Errorf("QUERIES_PER_SECOND should be non-negative, got %v", c.QueriesPerSecond)
	}

	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is empty")
	}

	return c.Walks().Validate()
}

func (c SystemConfig) Print() {
	fmt.Println("System:")
	fmt.Printf("  GraphSource: %s\n", c.GraphSource)
	fmt.Printf("  RedisURL: %s\n", c.RedisURL)
	if c.GraphSource == SourceNostr {
		fmt.Printf("  Relays: %v\n", c.Relays)
	}
	fmt.Printf("  WalkStore: %s\n", c.WalkStore)
	fmt.Printf("  QueriesPerSecond: %v\n", c.QueriesPerSecond)
	fmt.Printf("  OutputDir: %s\n", c.OutputDir)
	fmt.Printf("  LogFormat: %s\n", c.LogFormat)
	fmt.Printf("  MetricsAddr: %s\n", c.MetricsAddr)
	fmt.Printf("  DisplayStats: %t\n", c.DisplayStats)
}

func (c *Config) Print() {
	c.SystemConfig.Print()
	c.Walks().Print()
}

// LoadConfig() loads the .env file if present, then reads the variables from
// the environment and parses them into a config struct.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading the .env file: %w", err)
	}

	config := NewConfig()
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if config.RedisURL == "" {
		config.RedisURL = redisutils.DefaultURL
	}

	if len(config.Relays) == 0 {
		config.Relays = crawler.Relays
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
