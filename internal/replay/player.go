package replay

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"rig-poser/internal/manip"
)

// FrameInterval separates the events of a repeated step.
const FrameInterval = 16 * time.Millisecond

// Result summarises a replay.
type Result struct {
	Frames    int
	Started   int
	Ended     int
	Rotations int
	Errors    []error
}

// Player feeds script steps through a queue, running one engine frame per
// event. Time is simulated from Start.
type Player struct {
	Engine    *manip.Engine
	Projector manip.Projector
	Start     time.Time

	// OnSnapshot is called for snapshot steps.
	OnSnapshot func(step int) error

	queue *manip.Queue
	now   time.Time
	pos   mgl64.Vec2
	depth float64
}

// Run plays every step of s.
func (p *Player) Run(s *Script) (Result, error) {
	var res Result
	p.queue = manip.NewQueue(1)
	p.now = p.Start
	p.depth = manip.MouseDepth

	for i, st := range s.Steps {
		p.now = p.now.Add(time.Duration(st.AfterMs) * time.Millisecond)

		if st.Snapshot {
			if p.OnSnapshot != nil {
				if err := p.OnSnapshot(i + 1); err != nil {
					return res, errors.Wrapf(err, "replay: step %d snapshot", i+1)
				}
			}
			continue
		}
		if st.Reset {
			p.tally(&res, []manip.Effect{p.Engine.Reset(p.now)}, nil)
			continue
		}

		n := st.Repeat
		if n == 0 {
			n = 1
		}
		for r := 0; r < n; r++ {
			if r > 0 {
				p.now = p.now.Add(FrameInterval)
			}
			ev, err := p.event(st)
			if err != nil {
				return res, errors.Wrapf(err, "replay: step %d", i+1)
			}
			p.queue.Post(ev)
			effects, err := p.Engine.Frame(p.queue)
			p.tally(&res, effects, err)
		}
	}
	return res, nil
}

func (p *Player) tally(res *Result, effects []manip.Effect, err error) {
	res.Frames++
	for _, eff := range effects {
		if eff.Started != nil {
			res.Started++
		}
		if eff.Ended != nil {
			res.Ended++
		}
		if eff.Rotated {
			res.Rotations++
		}
		if eff.Err != nil {
			res.Errors = append(res.Errors, eff.Err)
		}
	}
	if err != nil {
		res.Errors = append(res.Errors, err)
	}
}

func (p *Player) event(st Step) (manip.Event, error) {
	if st.Key != "" {
		k := keyNames[st.Key]
		if st.Release {
			return manip.KeyUp{Key: k}, nil
		}
		return manip.KeyDown{Key: k}, nil
	}

	if st.Pick != "" {
		found := false
		for _, h := range p.Engine.Handles() {
			if h.Name == st.Pick {
				p.pos = p.Projector.Project(h.Marker)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("no handle named %q", st.Pick)
		}
	}
	if st.X != nil {
		p.pos[0] = *st.X
	}
	if st.Y != nil {
		p.pos[1] = *st.Y
	}
	p.pos = p.pos.Add(mgl64.Vec2{st.DX, st.DY})
	if st.Depth != nil {
		p.depth = *st.Depth
	}

	ptr := manip.Pointer{Time: p.now, Pos: p.pos, Depth: p.depth}
	if st.Button == "secondary" {
		ptr.Button = manip.ButtonSecondary
	}
	switch st.Pointer {
	case "down":
		return manip.PointerDown{Pointer: ptr}, nil
	case "up":
		return manip.PointerUp{Pointer: ptr}, nil
	}
	return manip.PointerMove{Pointer: ptr}, nil
}
