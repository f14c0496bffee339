package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vertex-lab/botpop/pkg/crawler"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/redisutils"
	"github.com/vertex-lab/botpop/pkg/walks"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env file

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, SourceRedis, config.GraphSource)
	assert.Equal(t, redisutils.DefaultURL, config.RedisURL)
	assert.Equal(t, crawler.Relays, config.Relays)
	assert.Equal(t, StoreMemory, config.WalkStore)
	assert.Equal(t, "outputs", config.OutputDir)
	assert.Equal(t, walks.NewConfig(), config.Walks())
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GRAPH_SOURCE", "nostr")
	t.Setenv("RELAYS", "wss://relay.damus.io,wss://nos.lol")
	t.Setenv("WALK_STORE", "redis")
	t.Setenv("QUERIES_PER_SECOND", "2.5")
	t.Setenv("MAX_QUERIES", "10")
	t.Setenv("SEED", "42")
	t.Setenv("LOG_FORMAT", "console")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, SourceNostr, config.GraphSource)
	assert.Equal(t, []string{"wss://relay.damus.io", "wss://nos.lol"}, config.Relays)
	assert.Equal(t, StoreRedis, config.WalkStore)
	assert.Equal(t, 2.5, config.QueriesPerSecond)
	assert.Equal(t, 10, config.Walks().MaxQueries)
	assert.Equal(t, 5000, config.Walks().MaxResults)
	assert.Equal(t, int64(42), config.RandomSeed())
	assert.Equal(t, FormatConsole, config.LogFormat)
}

func TestLoadConfigInvalid(t *testing.T) {
	testCases := []struct {
		name          string
		key, value    string
		expectedError error
	}{
		{name: "unknown graph source", key: "GRAPH_SOURCE", value: "twitter"},
		{name: "unknown walk store", key: "WALK_STORE", value: "disk"},
		{name: "unknown log format", key: "LOG_FORMAT", value: "xml"},
		{name: "negative rate", key: "QUERIES_PER_SECOND", value: "-1"},
		{name: "not a number", key: "MAX_RESULTS", value: "many"},
		{name: "zero max queries", key: "MAX_QUERIES", value: "0", expectedError: models.ErrInvalidMaxQueries},
		{name: "zero max backtracks", key: "MAX_BACKTRACKS", value: "0", expectedError: models.ErrInvalidMaxBacktracks},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(test.key, test.value)

			_, err := LoadConfig()
			require.Error(t, err)
			if test.expectedError != nil {
				assert.ErrorIs(t, err, test.expectedError)
			}
		})
	}
}

func TestLoadConfigInvalidRelay(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GRAPH_SOURCE", "nostr")
	t.Setenv("RELAYS", "wss://relay.damus.io,not a relay")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestWalkDuration(t *testing.T) {
	assert.Equal(t, 0*time.Second, walkDuration(0, 0, 0))
	assert.Equal(t, 36*time.Hour+5*time.Minute, walkDuration(1, 12, 5))
}
