package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/records"
	"github.com/vertex-lab/botpop/pkg/sampling"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
)

func DisplayStats(ctx context.Context, stats sampling.Stats, store models.WalkStore) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	const statsLines = 8
	firstDisplay := true
	clearStats := func() {
		if !firstDisplay {
			// Move the cursor up by `statsLines` and clear those lines
			fmt.Printf("\033[%dA", statsLines)
			fmt.Print("\033[J")
		}
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n  > Stopping stats display...\n")
			return

		case <-ticker.C:
			goroutines := runtime.NumGoroutine()
			memStats := new(runtime.MemStats)
			runtime.ReadMemStats(memStats)

			clearStats()
			fmt.Printf("\n--- Walk Stats ---\n")
			fmt.Printf("Samples: %d\n", stats.Samples.Value())
			fmt.Printf("Distinct nodes: %d\n", stats.Distinct.Value())
			fmt.Printf("Explored nodes: %d\n", store.Size(ctx))
			fmt.Printf("Bot population: %v\n", stats.Estimate.Load())
			fmt.Printf("Goroutines: %d\n", goroutines)
			fmt.Printf("Memory Usage: %.2f MB\n", float64(memStats.Alloc)/(1024*1024))
			firstDisplay = false
		}
	}
}

// PrintTitle() prints a title.
func PrintTitle(l *logger.Aggregate) {
	fmt.Println("------------------------------")
	fmt.Println("Bot population walk is running")
	fmt.Println("------------------------------")

	l.Info("------------------------------------------------------")
	l.Info("bot population walk is starting up")
}

// PrintResult() prints how the walk ended and where its logs are.
func PrintResult(result sampling.Result, paths records.Paths, run sampling.Config, threshold float64) {
	fmt.Printf("\nThe walk is %v: %d samples, %d distinct nodes\n", result.Outcome, result.Samples, result.Distinct)
	if result.Outcome == sampling.NoContinuation {
		fmt.Printf("The walk cannot continue: %v\n", result.Reason)
		fmt.Println("Start a new walk from another initial node to collect more samples.")
	}

	fmt.Printf("Mean degree: %.2f, harmonic mean degree: %.2f\n", result.Summary.MeanDegree, result.Summary.HarmonicMeanDegree)
	fmt.Printf("Samples: %s\n", paths.SampleList())

	if run.CalcBotPopulation {
		fmt.Printf("Bot scores: %s\n", paths.BotScore())
		fmt.Printf("Estimates: %s\n", paths.Estimate(threshold, run.Cut))
		fmt.Printf("Bot population: %v\n", result.Estimate)
	}
}
