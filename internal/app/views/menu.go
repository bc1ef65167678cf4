package views

import (
	"context"
	"strings"

	"telebbs/internal/app/protocol"
)

type menuOption struct {
	label  string
	target Target
}

// Quit has no target; choosing it ends the session.
var menuOptions = []menuOption{
	{"Rooms", RoomsView},
	{"People", PeopleView},
	{"Me", MeView},
	{"Quit", NoneView},
}

// MenuScreen is the home screen shown after login.
type MenuScreen struct {
	base
	cursor cursor
}

func NewMenuScreen() *MenuScreen {
	return &MenuScreen{}
}

func (v *MenuScreen) Render() string {
	var b strings.Builder
	writeTitle(&b, "Welcome to the BBS!")
	for i, opt := range menuOptions {
		writeOption(&b, opt.label, i == v.cursor.index)
	}
	writeHelp(&b, "Use Up/Down and Enter to select.")
	return b.String()
}

func (v *MenuScreen) HandleEvent(_ context.Context, ev protocol.Event, _ string) protocol.Event {
	switch ev {
	case protocol.UpArrow, protocol.DownArrow:
		v.cursor.move(ev, len(menuOptions))
		return ev
	case protocol.Enter:
		opt := menuOptions[v.cursor.index]
		if opt.target == NoneView {
			return protocol.Exit
		}
		return v.navigate(opt.target, protocol.NavigateView)
	}
	return ev
}
