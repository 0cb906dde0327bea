// lshdedup finds near-duplicate documents in a text corpus using
// MinHash signatures banded into an LSH index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nearduplicate/lshdedup/internal/config"
	"github.com/nearduplicate/lshdedup/internal/corpus"
	"github.com/nearduplicate/lshdedup/internal/lsh"
	"github.com/nearduplicate/lshdedup/internal/shingle"
	"github.com/nearduplicate/lshdedup/internal/store"
	"github.com/nearduplicate/lshdedup/internal/workerpool"
)

var version = "0.1.0-dev"

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lshdedup",
		Short: "Near-duplicate document detection via banded LSH over MinHash signatures",
		Long: `lshdedup finds near-duplicate documents in a text corpus.

It shingles each document, computes a MinHash signature over the
shingle sets, bands the signatures into an LSH index, and surfaces
document pairs whose exact Jaccard similarity exceeds a threshold
without ever comparing every pair directly.`,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newBuildCmd(),
		newQueryCmd(),
		newPairsCmd(),
		newSensitivityCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lshdedup version %s\n", version)
		},
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.NewLoader().LoadFile(configFile)
}

// signalContext returns a context canceled on SIGINT/SIGTERM, so a build
// or pairs run in progress can stop its in-flight worker pool tasks
// instead of leaving them to finish against a process that's already on
// its way out.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[*] Shutting down gracefully...")
		cancel()
	}()
	return ctx, cancel
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an LSH index from a CSV corpus and write it to a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			reader := &corpus.CSVReader{
				Path:       cfg.Corpus.Path,
				IDColumn:   cfg.Corpus.IDColumn,
				TextColumn: cfg.Corpus.TextColumn,
			}
			rows, err := reader.Read()
			if err != nil {
				return fmt.Errorf("reading corpus: %w", err)
			}
			fmt.Printf("[*] Loaded %d documents from %s\n", len(rows), cfg.Corpus.Path)

			pre, err := shingle.New(cfg.Shingle.Flags(), cfg.Shingle.K)
			if err != nil {
				return err
			}

			docs := make([]shingle.Set, len(rows))
			for i, row := range rows {
				docs[i] = pre.Shingles(row.Text)
			}

			family, err := cfg.Index.HashFamily()
			if err != nil {
				return err
			}

			pool, err := workerpool.New(cfg.Index.Workers)
			if err != nil {
				return fmt.Errorf("creating worker pool: %w", err)
			}
			defer pool.Shutdown()

			ctx, cancel := signalContext()
			defer cancel()

			idx, err := lsh.Build(ctx, docs, cfg.Index.M, cfg.Index.R, family, cfg.Shingle.Flags(), cfg.Shingle.K, pool)
			if err != nil {
				return fmt.Errorf("building index: %w", err)
			}

			if err := (&store.Snapshotter{Indent: true}).SaveFile(idx, cfg.Output.SnapshotPath); err != nil {
				return fmt.Errorf("saving snapshot: %w", err)
			}
			fmt.Printf("[*] Index built: %d docs, %d bands. Snapshot written to %s\n", len(docs), idx.Bands(), cfg.Output.SnapshotPath)

			pairs, err := idx.AllPairs(ctx, cfg.Query.Tau, pool)
			if err != nil {
				return fmt.Errorf("computing all-pairs: %w", err)
			}
			if err := store.WritePairsCSVFile(pairs, cfg.Output.PairsCSVPath); err != nil {
				return fmt.Errorf("writing pairs csv: %w", err)
			}
			fmt.Printf("[*] Found %d near-duplicate pairs (tau=%.3f). Written to %s\n", len(pairs), cfg.Query.Tau, cfg.Output.PairsCSVPath)

			return nil
		},
	}
	return cmd
}

func newQueryCmd() *cobra.Command {
	var snapshotPath string
	var tau float64
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Find documents near-duplicate to the given text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			idx, err := store.LoadFile(snapshotPath)
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}

			results, err := idx.Query(args[0], tau)
			if err != nil {
				return fmt.Errorf("querying index: %w", err)
			}

			fmt.Printf("[*] %d matching documents (tau=%.3f):\n", len(results), tau)
			for _, docID := range results {
				fmt.Printf("  %d\n", docID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "index.json", "Path to the index snapshot")
	cmd.Flags().Float64Var(&tau, "tau", 0.5, "Similarity threshold")
	return cmd
}

func newPairsCmd() *cobra.Command {
	var snapshotPath, outputPath string
	var tau float64
	var workers int
	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "Enumerate every near-duplicate pair in an indexed corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			idx, err := store.LoadFile(snapshotPath)
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}

			pool, err := workerpool.New(workers)
			if err != nil {
				return fmt.Errorf("creating worker pool: %w", err)
			}
			defer pool.Shutdown()

			ctx, cancel := signalContext()
			defer cancel()

			pairs, err := idx.AllPairs(ctx, tau, pool)
			if err != nil {
				return fmt.Errorf("computing all-pairs: %w", err)
			}

			if err := store.WritePairsCSVFile(pairs, outputPath); err != nil {
				return fmt.Errorf("writing pairs csv: %w", err)
			}
			fmt.Printf("[*] Found %d near-duplicate pairs (tau=%.3f). Written to %s\n", len(pairs), tau, outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "index.json", "Path to the index snapshot")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "pairs.csv", "Path to the pairs CSV output")
	cmd.Flags().Float64Var(&tau, "tau", 0.5, "Similarity threshold")
	cmd.Flags().IntVarP(&workers, "workers", "w", 8, "Number of concurrent verification workers")
	return cmd
}

func newSensitivityCmd() *cobra.Command {
	var s1, s2 float64
	var m, r int
	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Compute the closed-form false-negative/false-positive probabilities for a banding scheme",
		RunE: func(cmd *cobra.Command, args []string) error {
			p1, p2 := lsh.Sensitivity(s1, s2, m, r)
			fmt.Printf("M=%d r=%d B=%d\n", m, r, m/r)
			fmt.Printf("p1 (miss probability at s1=%.3f): %.6f\n", s1, p1)
			fmt.Printf("p2 (hit probability at s2=%.3f):  %.6f\n", s2, p2)
			return nil
		},
	}
	cmd.Flags().Float64Var(&s1, "s1", 0.3, "Lower similarity bound")
	cmd.Flags().Float64Var(&s2, "s2", 0.8, "Upper similarity bound")
	cmd.Flags().IntVar(&m, "m", 100, "Signature length")
	cmd.Flags().IntVar(&r, "r", 5, "Band width")
	return cmd
}
