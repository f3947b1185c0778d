// Package batch replays many scripts concurrently, one recording session
// per script.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"rig-poser/internal/camera"
	"rig-poser/internal/config"
	"rig-poser/internal/manip"
	"rig-poser/internal/models"
	"rig-poser/internal/monitoring"
	"rig-poser/internal/raster"
	"rig-poser/internal/recorder"
	"rig-poser/internal/replay"
	"rig-poser/internal/rigio"
	"rig-poser/internal/skeleton"
)

// ExportFile is the posed rig written into each session directory.
const ExportFile = "pose.glb"

// Config holds all shared resources for a batch run.
type Config struct {
	Base    config.Config
	Table   *models.Table
	Workers int
	Export  bool

	// Now stamps session directories. Defaults to time.Now.
	Now func() time.Time
}

// Result holds the outcome of replaying one script.
type Result struct {
	Script    string
	Model     models.ID
	Dir       string
	Frames    int
	Pinches   int
	Rotations int
	Failures  int
	Success   bool
	Error     string
}

// Run replays all scripts using a worker pool.
func Run(cfg Config, scripts []string) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	total := len(scripts)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					fmt.Printf("  [%d/%d] %.1f scripts/sec\n", p, total, float64(p)/elapsed)
				}
			}
		}
	}()

	// Worker pool
	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processScript(cfg, scripts[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range scripts {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

func processScript(cfg Config, path string) Result {
	res := Result{Script: path}
	if err := replayScript(cfg, path, &res); err != nil {
		monitoring.Logf("batch: %s: %v", path, err)
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

func replayScript(cfg Config, path string, res *Result) error {
	s, err := replay.Load(path)
	if err != nil {
		return err
	}

	c := cfg.Base
	if err := c.Resolve(config.Flags{Model: s.Model, Mode: s.Mode, Width: s.Width, Height: s.Height}); err != nil {
		return err
	}
	res.Model = models.ID(c.Model)

	profile, err := cfg.Table.Profile(res.Model)
	if err != nil {
		return err
	}
	m, err := rigio.Open(c.RigPath, profile)
	if err != nil {
		return err
	}

	cam := camera.New(c.WindowWidth, c.WindowHeight)
	cam.Frame(m.WorldVertices())

	now := cfg.Now()
	rec, err := recorder.New(c.RecordDir, res.Model, c.OperationMode, now)
	if err != nil {
		return err
	}
	rec.Now = cfg.Now
	res.Dir = rec.Dir()
	defer func() {
		if err := rec.Close(); err != nil {
			monitoring.Logf("batch: %s: %v", path, err)
		}
	}()

	e, err := manip.New(m, cam, profile, manip.OptionsFromConfig(c, rec))
	if err != nil {
		return err
	}

	player := &replay.Player{
		Engine:    e,
		Projector: cam,
		Start:     now,
		OnSnapshot: func(int) error {
			img := raster.RenderPose(m, *cam, raster.HandleMarkers(e.Handles()), c.SnapshotSize, c.SnapshotSupersample, raster.DefaultStyle())
			_, err := rec.WriteSnapshot(rec.NextSnapshotName(c.SnapshotFormat), img)
			return err
		},
	}
	out, err := player.Run(s)
	res.Frames = out.Frames
	res.Pinches = out.Ended
	res.Rotations = out.Rotations
	res.Failures = len(out.Errors)
	if err != nil {
		return err
	}
	for _, ferr := range out.Errors {
		rec.Logf("error: %v", ferr)
	}

	if err := rec.WritePose(m.Skeleton); err != nil {
		return err
	}
	if cfg.Export {
		if err := exportModel(filepath.Join(rec.Dir(), ExportFile), m); err != nil {
			return err
		}
	}
	return nil
}

func exportModel(path string, m *skeleton.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "batch: export")
	}
	if err := rigio.Export(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
