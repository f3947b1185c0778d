package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"rig-poser/internal/camera"
	"rig-poser/internal/config"
	"rig-poser/internal/manip"
	"rig-poser/internal/models"
	"rig-poser/internal/monitoring"
	"rig-poser/internal/recorder"
	"rig-poser/internal/rigio"
	"rig-poser/internal/viewer"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	modelsFile := flag.String("models", "", "Path to a models.yaml profile table (default: built-in)")
	model := flag.String("model", "", "Model id to pose (default: miku)")
	mode := flag.String("mode", "", "Operation mode: mouse, touch, midair, front (default: mouse)")
	rigPath := flag.String("rig", "", "glTF rig to pose (default: demo rig)")
	recordDir := flag.String("record", "", "Directory for the recording session (default: cwd)")
	width := flag.Int("width", 0, "Window width (default: 1280)")
	height := flag.Int("height", 0, "Window height (default: 720)")
	list := flag.Bool("list", false, "List model ids and exit")

	flag.Parse()

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

	// CLI flags override config file
	if err := cfg.Resolve(config.Flags{
		Model:     *model,
		Mode:      *mode,
		RigPath:   *rigPath,
		RecordDir: *recordDir,
		Width:     *width,
		Height:    *height,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
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

	if *list {
		for _, id := range table.IDs() {
			fmt.Println(id)
		}
		return
	}

	profile, err := table.Profile(models.ID(cfg.Model))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m, err := rigio.Open(cfg.RigPath, profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rig: %v\n", err)
		os.Exit(1)
	}

	cam := camera.New(cfg.WindowWidth, cfg.WindowHeight)
	cam.Frame(m.WorldVertices())

	if err := os.MkdirAll(cfg.RecordDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	rec, err := recorder.New(cfg.RecordDir, profile.ID, cfg.OperationMode, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting recorder: %v\n", err)
		os.Exit(1)
	}

	e, err := manip.New(m, cam, profile, manip.OptionsFromConfig(cfg, manip.Notifiers{manip.LogNotifier{}, rec}))
	if err != nil {
		rec.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model: %s (%d bones, %d handles)\n", profile.ID, len(m.Skeleton.Bones), len(e.Handles()))
	fmt.Printf("Mode: %s\n", cfg.OperationMode)
	fmt.Printf("Session: %s\n", rec.Dir())
	fmt.Println("------------------------------------------------------------")

	runErr := viewer.Run(viewer.NewGame(e, cam, rec, cfg), fmt.Sprintf("rig poser: %s", profile.ID))

	if err := rec.WritePose(m.Skeleton); err != nil {
		monitoring.Logf("poser: %v", err)
	}
	if err := rec.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: recorder close: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
