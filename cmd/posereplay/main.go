package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"rig-poser/internal/batch"
	"rig-poser/internal/config"
	"rig-poser/internal/models"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	modelsFile := flag.String("models", "", "Path to a models.yaml profile table (default: built-in)")
	rigPath := flag.String("rig", "", "glTF rig to pose (default: demo rig per model)")
	recordDir := flag.String("record", "", "Directory for recording sessions (default: cwd)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	export := flag.Bool("export", false, "Write the posed rig as pose.glb into each session")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] script.yaml...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	scripts := flag.Args()
	if len(scripts) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *modelsFile != "" {
		cfg.ModelsPath = *modelsFile
	}
	if *rigPath != "" {
		cfg.RigPath = *rigPath
	}
	if *recordDir != "" {
		cfg.RecordDir = *recordDir
	}

	table := models.Default()
	if cfg.ModelsPath != "" {
		var err error
		table, err = models.Load(cfg.ModelsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading models: %v\n", err)
			os.Exit(1)
		}
	}

	// Validate the base settings once; each script re-resolves its own copy.
	probe := cfg
	if err := probe.Resolve(config.Flags{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.RecordDir == "" {
		cfg.RecordDir = probe.RecordDir
	}
	if err := os.MkdirAll(cfg.RecordDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	n := *workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > len(scripts) {
		n = len(scripts)
	}

	fmt.Printf("Rig poser replay\n")
	fmt.Printf("Scripts: %d, Workers: %d\n", len(scripts), n)
	fmt.Printf("Output: %s\n", cfg.RecordDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(batch.Config{
		Base:    cfg,
		Table:   table,
		Workers: n,
		Export:  *export,
	}, scripts)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Printf("  %s: %s\n", r.Script, r.Error)
			continue
		}
		fmt.Printf("  %s: %s frames=%d pinches=%d rotations=%d errors=%d\n",
			r.Script, filepath.Base(r.Dir), r.Frames, r.Pinches, r.Rotations, r.Failures)
	}
	fmt.Printf("Replayed: %d/%d\n", len(results)-failed, len(results))

	indexPath := filepath.Join(cfg.RecordDir, "replay_index.json")
	if err := batch.WriteManifest(indexPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: index write failed: %v\n", err)
	} else {
		fmt.Printf("Index: %s\n", indexPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
