// Package main provides the graphragd CLI entry point: a thin cobra
// command tree that wires the façade together for manual exercising.
// Process lifecycle (daemonizing, supervisors, health probes beyond a
// single endpoint) is explicitly out of scope.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/graphrag-core/pkg/config"
	"github.com/orneryd/graphrag-core/pkg/facade"
	"github.com/orneryd/graphrag-core/pkg/graphengine"
	"github.com/orneryd/graphrag-core/pkg/kvstore"
	"github.com/orneryd/graphrag-core/pkg/memdecay"
	"github.com/orneryd/graphrag-core/pkg/model"
	"github.com/orneryd/graphrag-core/pkg/vectorindex"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphragd",
		Short: "graphragd - Graph-RAG cognitive database core",
		Long: `graphragd wires the graph engine, vector index, memory-decay
manager, and retrieval engine behind a single service façade.

Components:
  - property graph with typed nodes and weighted, typed edges
  - cosine-similarity vector index (Flat/Hnsw/Ivf, auto-selected by population)
  - Ebbinghaus/power-law/hyperbolic memory decay
  - hybrid vector+graph retrieval with hop-weighted composite scoring`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("graphragd v%s\n", version)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a façade instance and block until interrupted",
		Long:  "Opens storage, builds the graph/vector/decay stack, and idles until SIGINT/SIGTERM, for manual exercising via a future transport adapter.",
		RunE:  runServe,
	}
	serveCmd.Flags().String("data-dir", "", "Badger data directory (empty = in-memory only)")
	rootCmd.AddCommand(serveCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Open storage and print node/edge/decay statistics",
		RunE:  runStats,
	}
	statsCmd.Flags().String("data-dir", "", "Badger data directory (empty = in-memory only)")
	rootCmd.AddCommand(statsCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Insert synthetic nodes and report throughput",
		RunE:  runBench,
	}
	benchCmd.Flags().Int("count", 1000, "number of synthetic nodes to insert")
	rootCmd.AddCommand(benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildService opens storage (if configured) and assembles the façade
// stack from cfg, matching the teacher's runServe "configure, then open,
// then wire" sequencing.
func buildService(cfg *config.Config) (*facade.Service, kvstore.Engine, error) {
	var storage kvstore.Engine
	if cfg.Storage.DataDir != "" {
		badger, err := kvstore.NewBadgerEngine(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening badger store: %w", err)
		}
		storage = badger
	} else {
		storage = kvstore.NewMemoryEngine()
	}

	graph := graphengine.New()
	vector := buildVectorIndex(cfg.Vector)
	decay := memdecay.New(cfg.Decay)

	svc := facade.New(graph, vector, decay, storage)
	return svc, storage, nil
}

func buildVectorIndex(cfg config.VectorConfig) vectorindex.Index {
	switch cfg.Backend {
	case vectorindex.BackendHNSW:
		return vectorindex.NewHNSWIndex(cfg.Dimension, vectorindex.DefaultHNSWConfig())
	case vectorindex.BackendIVF:
		return vectorindex.NewIVFIndex(cfg.Dimension, vectorindex.DefaultIVFConfig())
	case vectorindex.BackendFlat:
		return vectorindex.NewFlatIndex(cfg.Dimension)
	default:
		return vectorindex.NewAuto(cfg.Dimension)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg := config.LoadFromEnv()
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Printf("graphragd: data_dir=%q vector_dim=%d decay_curve=%s", cfg.Storage.DataDir, cfg.Vector.Dimension, cfg.Decay.Curve)

	svc, storage, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	log.Println("graphragd: ready")
	if !svc.Health(context.Background()) {
		return fmt.Errorf("facade failed initial health check")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("graphragd: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stats := svc.Stats(ctx)
	log.Printf("graphragd: final stats nodes=%d edges=%d embedded=%d", stats.NodeCount, stats.EdgeCount, stats.EmbeddedCount)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg := config.LoadFromEnv()
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	svc, storage, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	stats := svc.Stats(context.Background())
	fmt.Printf("nodes:    %d\n", stats.NodeCount)
	fmt.Printf("edges:    %d\n", stats.EdgeCount)
	fmt.Printf("embedded: %d\n", stats.EmbeddedCount)
	fmt.Printf("tracked:  %d\n", stats.Memory.Total)
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")

	cfg := config.LoadFromEnv()
	svc, storage, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < count; i++ {
		_, err := svc.AddNode(ctx, facade.AddNodeRequest{
			Content:  fmt.Sprintf("synthetic node %d", i),
			NodeType: model.NodeFact,
		})
		if err != nil {
			return fmt.Errorf("inserting node %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("inserted %d nodes in %v (%.0f nodes/sec)\n", count, elapsed, float64(count)/elapsed.Seconds())

	queryStart := time.Now()
	resp, err := svc.Query(ctx, facade.QueryRequest{QueryText: "synthetic", Limit: 10})
	if err != nil {
		return fmt.Errorf("benchmark query: %w", err)
	}
	fmt.Printf("query matched %d/%d nodes in %v\n", len(resp.Nodes), resp.TotalCount, time.Since(queryStart))

	return nil
}
