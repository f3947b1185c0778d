// Package replay drives the manipulation engine from a YAML gesture script,
// so poses can be produced and checked without a window.
package replay

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"rig-poser/internal/manip"
)

// Script is a recorded or hand-written gesture sequence.
type Script struct {
	Model  string `yaml:"model"`
	Mode   string `yaml:"mode"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Steps  []Step `yaml:"steps"`
}

// Step is one input action. Exactly one of Pointer, Key, Reset or
// Snapshot is set.
type Step struct {
	AfterMs int `yaml:"after_ms"`
	Repeat  int `yaml:"repeat"`

	Pointer string   `yaml:"pointer"` // down, move or up
	Button  string   `yaml:"button"`  // primary (default) or secondary
	Pick    string   `yaml:"pick"`    // place the pointer on this handle's marker
	X       *float64 `yaml:"x"`
	Y       *float64 `yaml:"y"`
	DX      float64  `yaml:"dx"`
	DY      float64  `yaml:"dy"`
	Depth   *float64 `yaml:"depth"`

	Key     string `yaml:"key"` // ctrl, up, down, left or right
	Release bool   `yaml:"release"`

	Reset    bool `yaml:"reset"`
	Snapshot bool `yaml:"snapshot"`
}

var keyNames = map[string]manip.Key{
	"ctrl":  manip.KeyControl,
	"up":    manip.KeyArrowUp,
	"down":  manip.KeyArrowDown,
	"left":  manip.KeyArrowLeft,
	"right": manip.KeyArrowRight,
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "replay: read %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "replay: %s", path)
	}
	return s, nil
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "replay: parse")
	}
	for i := range s.Steps {
		if err := s.Steps[i].validate(); err != nil {
			return nil, errors.Wrapf(err, "replay: step %d", i+1)
		}
	}
	return &s, nil
}

func (st *Step) validate() error {
	actions := 0
	if st.Pointer != "" {
		actions++
		switch st.Pointer = strings.ToLower(st.Pointer); st.Pointer {
		case "down", "move", "up":
		default:
			return errors.Errorf("unknown pointer action %q", st.Pointer)
		}
		switch st.Button = strings.ToLower(st.Button); st.Button {
		case "", "primary", "secondary":
		default:
			return errors.Errorf("unknown button %q", st.Button)
		}
	}
	if st.Key != "" {
		actions++
		st.Key = strings.ToLower(st.Key)
		if _, ok := keyNames[st.Key]; !ok {
			return errors.Errorf("unknown key %q", st.Key)
		}
	}
	if st.Reset {
		actions++
	}
	if st.Snapshot {
		actions++
	}
	if actions != 1 {
		return errors.Errorf("want exactly one action, got %d", actions)
	}
	if st.AfterMs < 0 || st.Repeat < 0 {
		return errors.New("negative after_ms or repeat")
	}
	return nil
}
