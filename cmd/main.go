package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vertex-lab/botpop/pkg/classifier"
)

var rootCmd = &cobra.Command{
	Use:   "botpop",
	Short: "Estimate the fraction of bots in a social network with a random walk",
	Long: `botpop walks the social graph from an initial account, recording every sampled
account, and estimates the fraction of bots by weighting each sample with the
inverse of its degree.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// the flags of the rw command
var walkFlags struct {
	initial       uint64
	initialPubkey string
	samples       int
	days          int
	hours         int
	minutes       int
	calcBotPpl    bool
	threshold     float64
	cut           int
}

var walkCmd = &cobra.Command{
	Use:     "rw",
	Aliases: []string{"walk"},
	Short:   "Perform a random walk and record the samples",
	Example: `  botpop rw -i 42 -r 10000 --calc-bot-ppl
  botpop rw -i 42 --days 1 --hours 12 -t 0.9 -c 1000`,
	RunE: runWalk,
}

// the flags of the bot command
var estimateFlags struct {
	file      string
	threshold float64
	cut       int
}

var estimateCmd = &cobra.Command{
	Use:     "bot",
	Aliases: []string{"estimate"},
	Short:   "Compute the bot population from the logs of a past walk",
	Example: `  botpop bot -f outputs/2024-01-01-00-00-00-initial42-samplesize10000-samplinglist.txt
  botpop bot -f outputs/2024-01-01-00-00-00-initial42-samplesize10000-botscore.txt -t 0.9 -c 500`,
	RunE: runEstimate,
}

func init() {
	flags := walkCmd.Flags()
	flags.Uint64VarP(&walkFlags.initial, "initial", "i", 0, "nodeID of the initial account")
	flags.StringVar(&walkFlags.initialPubkey, "initial-pubkey", "", "pubkey of the initial account, when the graph source is nostr")
	flags.IntVarP(&walkFlags.samples, "samples", "r", 0, "number of samples to record")
	flags.IntVar(&walkFlags.days, "days", 0, "duration of the walk, days")
	flags.IntVar(&walkFlags.hours, "hours", 0, "duration of the walk, hours")
	flags.IntVar(&walkFlags.minutes, "minutes", 0, "duration of the walk, minutes")
	flags.BoolVar(&walkFlags.calcBotPpl, "calc-bot-ppl", false, "classify the sampled accounts and estimate the bot population")
	flags.Float64VarP(&walkFlags.threshold, "threshold", "t", classifier.DefaultThreshold, "bot score from which an account is a bot")
	flags.IntVarP(&walkFlags.cut, "cut", "c", 0, "number of initial samples excluded from the estimate")
	walkCmd.MarkFlagsOneRequired("initial", "initial-pubkey")
	walkCmd.MarkFlagsMutuallyExclusive("initial", "initial-pubkey")
	walkCmd.MarkFlagsMutuallyExclusive("samples", "days")
	walkCmd.MarkFlagsMutuallyExclusive("samples", "hours")
	walkCmd.MarkFlagsMutuallyExclusive("samples", "minutes")

	flags = estimateCmd.Flags()
	flags.StringVarP(&estimateFlags.file, "file", "f", "", "path of a -samplinglist or -botscore file")
	flags.Float64VarP(&estimateFlags.threshold, "threshold", "t", classifier.DefaultThreshold, "bot score from which an account is a bot")
	flags.IntVarP(&estimateFlags.cut, "cut", "c", 0, "number of initial samples excluded from the estimate")
	estimateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(walkCmd, estimateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
