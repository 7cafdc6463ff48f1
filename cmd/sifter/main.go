// Command sifter loads a fact file and runs either a flat constraint query
// or the three-pass MustMap/NoMap/TryMap match against it, printing the
// resulting assignments.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/95616ARG/sifter/internal/config"
	"github.com/95616ARG/sifter/internal/factfile"
	"github.com/95616ARG/sifter/internal/logging"
	"github.com/95616ARG/sifter/pkg/bridge"
	"github.com/95616ARG/sifter/pkg/triplets"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sifter",
	Short: "Run constraint queries and pattern matches against a triplet structure",
	Long: `sifter loads a YAML fact file describing nodes, facts, and either a flat
constraint query or a MustMap/NoMap/TryMap pattern, and reports the
satisfying assignments found by the solver.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return errors.Wrap(err, "loading config")
		}
		cfg = loaded

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level)
		if err != nil {
			return errors.Wrap(err, "initializing logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [fact-file]",
	Short: "Load a fact file and run its query or pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runFactFile,
}

func runFactFile(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	path := args[0]
	log := logger.With(zap.String("run_id", runID), zap.String("path", path))

	doc, err := factfile.Load(path)
	if err != nil {
		return errors.Wrap(err, "loading fact file")
	}
	log.Info("loaded fact file", zap.Int("nodes", len(doc.Names)))

	b := bridge.NewBridge(doc.Structure, cfg.Solver.WorkerLimit)
	defer b.Close()

	switch {
	case doc.Query != nil:
		return runQuery(log, b, doc.Query)
	case doc.Pattern != nil:
		return runPattern(cmd.Context(), log, b, doc.Pattern)
	default:
		log.Info("fact file declared no query or pattern; nothing to run")
		return nil
	}
}

func runQuery(log *zap.Logger, b *bridge.Bridge, q *factfile.Query) error {
	assignments := b.Assignments(q.NVariables, q.Constraints, q.MayEqual)
	log.Info("query complete", zap.Int("assignments", len(assignments)))
	for _, a := range assignments {
		fmt.Println(formatNodes(a))
	}
	return nil
}

func runPattern(ctx context.Context, log *zap.Logger, b *bridge.Bridge, p *bridge.Pattern) error {
	results, err := b.Match(ctx, *p)
	if err != nil {
		return errors.Wrap(err, "matching pattern")
	}
	log.Info("match complete", zap.Int("matches", len(results)))
	for _, r := range results {
		fmt.Printf("base=%s extra=%s\n", formatNodes(r.Base), formatNodes(r.Extra))
	}
	return nil
}

func formatNodes(nodes []triplets.Node) string {
	if len(nodes) == 0 {
		return "[]"
	}
	out := "["
	for i, n := range nodes {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%d", int64(n))
	}
	return out + "]"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "sifter.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
