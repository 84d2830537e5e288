package controls

import "fmt"

// Kind identifies what an input asks the viewer to do.
type Kind int

const (
	None Kind = iota
	Select
	Next
	Prev
	ToggleFullscreen
	ToggleHUD
	Quit
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Select:
		return "select"
	case Next:
		return "next"
	case Prev:
		return "prev"
	case ToggleFullscreen:
		return "fullscreen"
	case ToggleHUD:
		return "hud"
	case Quit:
		return "quit"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Action is one decoded input. Index is only used by Select.
type Action struct {
	Kind  Kind
	Index int
}

// Digit maps the keys 1..9 to Select actions for images 0..8.
func Digit(d int) Action {
	if d < 1 || d > 9 {
		return Action{}
	}
	return Action{Kind: Select, Index: d - 1}
}

// Navigator is the part of the renderer that input can drive.
type Navigator interface {
	SelectImage(index int) error
	NextImage() error
	PrevImage() error
}

// Navigate applies image actions to nav. It reports false for actions that
// belong to the host, such as Quit.
func Navigate(nav Navigator, a Action) (bool, error) {
	switch a.Kind {
	case Select:
		return true, nav.SelectImage(a.Index)
	case Next:
		return true, nav.NextImage()
	case Prev:
		return true, nav.PrevImage()
	}
	return false, nil
}
