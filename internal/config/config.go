package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mode is how the operator's pointer samples are produced.
type Mode string

const (
	ModeMouse  Mode = "mouse"
	ModeTouch  Mode = "touch"
	ModeMidAir Mode = "midair"
	ModeFront  Mode = "front"
)

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeMouse, ModeTouch, ModeMidAir, ModeFront:
		return m, nil
	}
	return "", fmt.Errorf("config: unknown operation mode %q", s)
}

// DepthOrientation is the sign applied to the depth term of a drag.
// Mid-air hands face the sensor, so their depth axis is inverted.
func (m Mode) DepthOrientation() float64 {
	if m == ModeMidAir {
		return -1
	}
	return 1
}

// Config holds the posing session settings.
type Config struct {
	// Scene
	Model         string `json:"model"`
	OperationMode Mode   `json:"operation_mode"`
	RigPath       string `json:"rig_path"`
	ModelsPath    string `json:"models_path"`
	RecordDir     string `json:"record_dir"`

	// Window
	WindowWidth  int `json:"window_width"`
	WindowHeight int `json:"window_height"`

	// Manipulation
	Tolerance      float64 `json:"tolerance"`
	SmoothingDepth int     `json:"smoothing_depth"`
	ClickMaxMillis int     `json:"click_max_ms"`
	ClickMaxDist   float64 `json:"click_max_dist"`
	NudgeDeg       float64 `json:"nudge_deg"`
	Sensitivity    float64 `json:"sensitivity"`

	// Snapshot settings
	SnapshotSize        int    `json:"snapshot_size"`
	SnapshotSupersample int    `json:"snapshot_supersample"`
	SnapshotFormat      string `json:"snapshot_format"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Model     string
	Mode      string
	RigPath   string
	RecordDir string
	Width     int
	Height    int
}

// Resolve applies flag overrides and fills empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) error {
	// CLI flags override config file
	if flags.Model != "" {
		c.Model = flags.Model
	}
	if flags.Mode != "" {
		c.OperationMode = Mode(flags.Mode)
	}
	if flags.RigPath != "" {
		c.RigPath = flags.RigPath
	}
	if flags.RecordDir != "" {
		c.RecordDir = flags.RecordDir
	}
	if flags.Width > 0 {
		c.WindowWidth = flags.Width
	}
	if flags.Height > 0 {
		c.WindowHeight = flags.Height
	}

	if c.Model == "" {
		c.Model = "miku"
	}
	if c.OperationMode == "" {
		c.OperationMode = ModeMouse
	}
	mode, err := ParseMode(string(c.OperationMode))
	if err != nil {
		return err
	}
	c.OperationMode = mode

	if c.RecordDir == "" {
		cwd, _ := os.Getwd()
		c.RecordDir = cwd
	}
	if c.RigPath != "" && !filepath.IsAbs(c.RigPath) {
		c.RigPath = filepath.Clean(c.RigPath)
	}

	// Defaults for window and manipulation settings
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1280
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 720
	}
	if c.Tolerance <= 0 {
		c.Tolerance = 10
	}
	if c.SmoothingDepth <= 0 {
		c.SmoothingDepth = 6
	}
	if c.ClickMaxMillis <= 0 {
		c.ClickMaxMillis = 200
	}
	if c.ClickMaxDist <= 0 {
		c.ClickMaxDist = 3
	}
	if c.NudgeDeg == 0 {
		c.NudgeDeg = 2.5
	}
	if c.Sensitivity <= 0 {
		c.Sensitivity = 1
	}
	if c.SnapshotSize <= 0 {
		c.SnapshotSize = 512
	}
	if c.SnapshotSupersample <= 0 {
		c.SnapshotSupersample = 2
	}
	if c.SnapshotFormat == "" {
		c.SnapshotFormat = "webp"
	}
	c.SnapshotFormat = strings.ToLower(strings.TrimPrefix(c.SnapshotFormat, "."))
	switch c.SnapshotFormat {
	case "webp", "tga", "png":
	default:
		return fmt.Errorf("config: unsupported snapshot format %q", c.SnapshotFormat)
	}

	return nil
}
