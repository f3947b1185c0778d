// Package viewer runs the interactive posing window on ebiten. Input is
// polled each tick, posted to the engine's queue and applied by the same
// frame that draws the result.
package viewer

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"rig-poser/internal/camera"
	"rig-poser/internal/config"
	"rig-poser/internal/manip"
	"rig-poser/internal/monitoring"
	"rig-poser/internal/raster"
	"rig-poser/internal/recorder"
	"rig-poser/internal/skeleton"
)

var (
	background  = color.NRGBA{R: 32, G: 32, B: 40, A: 255}
	vertexColor = color.NRGBA{R: 170, G: 170, B: 185, A: 255}
	boneColor   = color.NRGBA{R: 90, G: 200, B: 120, A: 255}
	pivotColor  = color.NRGBA{R: 240, G: 220, B: 90, A: 255}
)

// Game is the ebiten.Game driving one posing session.
type Game struct {
	engine   *manip.Engine
	queue    *manip.Queue
	camera   *camera.Camera
	recorder *recorder.Recorder
	cfg      config.Config

	input   pointerInput
	status  string
	lastErr error
}

// NewGame wires the engine to the window. rec may be nil.
func NewGame(e *manip.Engine, cam *camera.Camera, rec *recorder.Recorder, cfg config.Config) *Game {
	return &Game{
		engine:   e,
		queue:    manip.NewQueue(0),
		camera:   cam,
		recorder: rec,
		cfg:      cfg,
		input: pointerInput{
			touch: cfg.OperationMode == config.ModeTouch,
			depth: manip.MouseDepth,
		},
	}
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(g.cfg.WindowWidth, g.cfg.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.input.poll(time.Now(), g.queue.Post)
	effects, err := g.engine.Frame(g.queue)
	for _, eff := range effects {
		if eff.Err != nil {
			err = eff.Err
		}
	}
	if err != nil && err != g.lastErr {
		g.status = err.Error()
	}
	g.lastErr = err

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.engine.Reset(time.Now())
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.snapshot()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.savePose()
	}
	return nil
}

func (g *Game) snapshot() {
	if g.recorder == nil {
		return
	}
	img := raster.RenderPose(g.engine.Model(), *g.camera, raster.HandleMarkers(g.engine.Handles()), g.cfg.SnapshotSize, g.cfg.SnapshotSupersample, raster.DefaultStyle())
	name := g.recorder.NextSnapshotName(g.cfg.SnapshotFormat)
	if _, err := g.recorder.WriteSnapshot(name, img); err != nil {
		monitoring.Logf("viewer: %v", err)
		g.status = err.Error()
		return
	}
	g.status = "saved " + name
}

func (g *Game) savePose() {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.WritePose(g.engine.Model().Skeleton); err != nil {
		monitoring.Logf("viewer: %v", err)
		g.status = err.Error()
		return
	}
	g.status = "saved " + recorder.PoseFile
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	m := g.engine.Model()
	cam := g.camera

	for _, mesh := range m.Meshes {
		for _, v := range mesh.World {
			s := cam.Project(v)
			vector.DrawFilledRect(screen, float32(s[0])-1, float32(s[1])-1, 2, 2, vertexColor, false)
		}
	}

	joints := m.BoneWorldPositions()
	for i, b := range m.Skeleton.Bones {
		if b.Parent == skeleton.NoParent {
			continue
		}
		a, c := cam.Project(joints[b.Parent]), cam.Project(joints[i])
		vector.StrokeLine(screen, float32(a[0]), float32(a[1]), float32(c[0]), float32(c[1]), 1.5, boneColor, true)
	}

	for _, h := range g.engine.Handles() {
		s := cam.Project(h.Marker)
		vector.DrawFilledCircle(screen, float32(s[0]), float32(s[1]), 6, h.Color(), true)
	}
	if p, ok := g.engine.Pivot(); ok {
		vector.StrokeCircle(screen, float32(p[0]), float32(p[1]), 4, 1, pivotColor, true)
	}

	ebitenutil.DebugPrint(screen, g.hud())
}

func (g *Game) hud() string {
	target := "-"
	if i := g.engine.Target(); i >= 0 {
		target = g.engine.Handles()[i].Name
	}
	capture := ""
	if g.engine.Capture() {
		capture = " [capture]"
	}
	return fmt.Sprintf("%s  mode %s  %s  target %s%s  depth %.0f  TPS %.0f\n%s\nctrl+drag or click a marker, right-drag rotates, arrows nudge, S snapshot, P pose, R reset",
		g.engine.Model().Name, g.cfg.OperationMode, g.engine.State(), target, capture, g.input.depth, ebiten.ActualTPS(), g.status)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.camera.Viewport = camera.Viewport{Width: outsideWidth, Height: outsideHeight}
	return outsideWidth, outsideHeight
}
