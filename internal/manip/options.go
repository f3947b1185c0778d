package manip

import (
	"time"

	"rig-poser/internal/config"
)

// OptionsFromConfig maps resolved session settings onto engine options.
// Touch mode picks handles on press; mid-air mode inverts the depth term.
func OptionsFromConfig(c config.Config, n Notifier) Options {
	return Options{
		Tolerance:        c.Tolerance,
		SmoothingDepth:   c.SmoothingDepth,
		ClickMaxDuration: time.Duration(c.ClickMaxMillis) * time.Millisecond,
		ClickMaxDistance: c.ClickMaxDist,
		NudgeDeg:         c.NudgeDeg,
		Sensitivity:      c.Sensitivity,
		DepthOrientation: c.OperationMode.DepthOrientation(),
		PickOnPress:      c.OperationMode == config.ModeTouch,
		Notifier:         n,
	}
}
