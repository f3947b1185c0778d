package viewer

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"rig-poser/internal/manip"
)

var keyMap = []struct {
	keys []ebiten.Key
	key  manip.Key
}{
	{[]ebiten.Key{ebiten.KeyControlLeft, ebiten.KeyControlRight}, manip.KeyControl},
	{[]ebiten.Key{ebiten.KeyArrowUp}, manip.KeyArrowUp},
	{[]ebiten.Key{ebiten.KeyArrowDown}, manip.KeyArrowDown},
	{[]ebiten.Key{ebiten.KeyArrowLeft}, manip.KeyArrowLeft},
	{[]ebiten.Key{ebiten.KeyArrowRight}, manip.KeyArrowRight},
}

var buttonMap = []struct {
	mb     ebiten.MouseButton
	button manip.Button
}{
	{ebiten.MouseButtonLeft, manip.ButtonPrimary},
	{ebiten.MouseButtonRight, manip.ButtonSecondary},
}

// pointerInput turns ebiten's polled state into engine events.
type pointerInput struct {
	touch bool
	depth float64 // adjusted with the mouse wheel

	last    mgl64.Vec2
	touchID ebiten.TouchID
	touched bool
}

func (in *pointerInput) poll(now time.Time, post func(manip.Event) bool) {
	for _, km := range keyMap {
		for _, k := range km.keys {
			if inpututil.IsKeyJustPressed(k) {
				post(manip.KeyDown{Key: km.key})
			}
			if inpututil.IsKeyJustReleased(k) {
				post(manip.KeyUp{Key: km.key})
			}
		}
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		in.depth += dy
	}

	if in.touch {
		in.pollTouch(now, post)
		return
	}

	x, y := ebiten.CursorPosition()
	pos := mgl64.Vec2{float64(x), float64(y)}
	pointer := func(b manip.Button) manip.Pointer {
		return manip.Pointer{Time: now, Pos: pos, Depth: in.depth, Button: b}
	}

	for _, bm := range buttonMap {
		if inpututil.IsMouseButtonJustPressed(bm.mb) {
			post(manip.PointerDown{Pointer: pointer(bm.button)})
		}
	}
	if pos != in.last {
		post(manip.PointerMove{Pointer: pointer(manip.ButtonPrimary)})
		in.last = pos
	}
	for _, bm := range buttonMap {
		if inpututil.IsMouseButtonJustReleased(bm.mb) {
			post(manip.PointerUp{Pointer: pointer(bm.button)})
		}
	}
}

// pollTouch follows the first finger down as the primary pointer.
func (in *pointerInput) pollTouch(now time.Time, post func(manip.Event) bool) {
	if !in.touched {
		ids := inpututil.AppendJustPressedTouchIDs(nil)
		if len(ids) == 0 {
			return
		}
		in.touchID, in.touched = ids[0], true
		in.last = touchPos(in.touchID)
		post(manip.PointerDown{Pointer: manip.Pointer{Time: now, Pos: in.last, Depth: in.depth}})
		return
	}

	if inpututil.IsTouchJustReleased(in.touchID) {
		in.touched = false
		post(manip.PointerUp{Pointer: manip.Pointer{Time: now, Pos: in.last, Depth: in.depth}})
		return
	}
	if pos := touchPos(in.touchID); pos != in.last {
		in.last = pos
		post(manip.PointerMove{Pointer: manip.Pointer{Time: now, Pos: pos, Depth: in.depth}})
	}
}

func touchPos(id ebiten.TouchID) mgl64.Vec2 {
	x, y := ebiten.TouchPosition(id)
	return mgl64.Vec2{float64(x), float64(y)}
}
