/*
Package views contains the screens a session moves between and the router that
builds the next screen after a navigation.

A View owns only the state of its own screen. It renders to plain text, maps an
input event plus the text typed so far to a result event, and reads or writes the
Repository itself. Views never touch the socket or the broadcast hub; the session
applies every side effect a result event implies.
*/
package views

import (
	"context"

	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
)

// Target names the screen a View asks to move to.
type Target int

const (
	NoneView Target = iota
	MenuView
	RoomsView
	RoomView
	PeopleView
	MeView
	UserView
	DirectMessageView
)

func (t Target) String() string {
	switch t {
	case MenuView:
		return "menu"
	case RoomsView:
		return "rooms"
	case RoomView:
		return "room"
	case PeopleView:
		return "people"
	case MeView:
		return "me"
	case UserView:
		return "user"
	case DirectMessageView:
		return "direct_message"
	default:
		return "none"
	}
}

// View is the contract shared by every screen.
type View interface {
	// Render returns the full screen. Lines are separated by "\n".
	Render() string

	// RefreshData re-runs the screen's backing query with its current paging and filter.
	RefreshData(ctx context.Context)

	// HandleEvent applies one input event. text is the pending line in text-entry
	// modes and the cleaned input chunk otherwise.
	HandleEvent(ctx context.Context, ev protocol.Event, text string) protocol.Event

	// Target is the screen requested by the last navigating result event.
	Target() Target

	// Selection is the name under the cursor, or the peer name on conversation screens.
	Selection() string

	// SubjectID is the id the screen is about: the authenticated user on the login
	// screen, the room on a room screen, the viewed or messaged user elsewhere.
	SubjectID() int64

	// InitialMode is the terminal mode the session enters when the screen opens.
	InitialMode() protocol.Mode
}

// base supplies the defaults shared by every screen.
type base struct {
	target Target
}

func (b *base) Target() Target { return b.target }

func (*base) Selection() string { return "" }

func (*base) SubjectID() int64 { return repository.NoID }

func (*base) InitialMode() protocol.Mode { return protocol.Navigation }

func (*base) RefreshData(context.Context) {}

// navigate records t and passes ev through.
func (b *base) navigate(t Target, ev protocol.Event) protocol.Event {
	b.target = t
	return ev
}

// cursor is a selection index over a fixed option list.
type cursor struct {
	index int
}

func (c *cursor) move(ev protocol.Event, n int) {
	switch ev {
	case protocol.UpArrow:
		if c.index > 0 {
			c.index--
		}
	case protocol.DownArrow:
		if c.index < n-1 {
			c.index++
		}
	}
}
