package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vertex-lab/botpop/pkg/classifier"
	"github.com/vertex-lab/botpop/pkg/database/redisdb"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/records"
	"github.com/vertex-lab/botpop/pkg/sampling"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
	"github.com/vertex-lab/botpop/pkg/utils/redisutils"
)

func runEstimate(cmd *cobra.Command, args []string) error {
	kind, _, err := records.ParsePath(estimateFlags.file)
	if err != nil {
		return err
	}

	ctx := context.Background()
	log := logger.NewConsole(os.Stderr)

	// only a sample log needs the classifier, a score log already has the scores
	var scorer models.Classifier
	if kind == records.SampleList {
		config, err := LoadConfig()
		if err != nil {
			return err
		}

		client, err := redisutils.SetupClient(config.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		DB, err := redisdb.NewDatabase(ctx, client)
		if err != nil {
			return fmt.Errorf("failed to connect to the graph database: %w", err)
		}
		scorer = DB
	}

	adapter, err := classifier.NewAdapter(scorer, estimateFlags.threshold, log)
	if err != nil {
		return err
	}

	result, err := sampling.Recompute(ctx, estimateFlags.file, estimateFlags.cut, adapter, log)
	if err != nil {
		return err
	}

	fmt.Printf("Replayed %d samples of %d distinct nodes from a %v file\n", result.Summary.Samples, result.Summary.Distinct, kind)
	if result.BotScorePath != "" {
		fmt.Printf("Bot scores: %s\n", result.BotScorePath)
	}
	fmt.Printf("Estimates: %s\n", result.EstimatePath)
	fmt.Printf("Bot population: %v\n", result.Final())
	return nil
}
