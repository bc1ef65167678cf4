package views

import (
	"context"
	"fmt"
	"strings"

	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
	"telebbs/internal/pkg/errs"
	"telebbs/internal/pkg/logx"
)

// RoomsScreen lists rooms busiest first and lets the user search, create and join them.
type RoomsScreen struct {
	base
	repo   repository.Repository
	userID int64

	rooms []repository.Room
	pager pager
	state listState

	// input is the text typed while searching or creating.
	input string

	// query filters the listing after a completed search.
	query string

	// notice reports a failed create on the listing screen.
	notice string
}

func NewRoomsScreen(ctx context.Context, repo repository.Repository, userID int64) *RoomsScreen {
	v := &RoomsScreen{repo: repo, userID: userID}
	v.RefreshData(ctx)
	return v
}

func (v *RoomsScreen) RefreshData(ctx context.Context) {
	var (
		rooms []repository.Room
		err   error
	)
	if v.query != "" {
		rooms, err = v.repo.SearchRooms(ctx, v.query, v.pager.page)
	} else {
		rooms, err = v.repo.GetRooms(ctx, v.pager.page)
	}
	if err != nil {
		logx.Error(err, "Failed to load rooms", "page", v.pager.page, "query", v.query)
		rooms = nil
	}
	v.rooms = rooms
	v.pager.clamp(len(v.rooms))
}

func (v *RoomsScreen) Selection() string {
	if len(v.rooms) == 0 {
		return ""
	}
	return v.rooms[v.pager.cursor].Name
}

func (v *RoomsScreen) Render() string {
	var b strings.Builder
	writeTitle(&b, "Rooms")

	switch v.state {
	case stateSearching:
		b.WriteString(selectedStyle.Render("> Search (CTRL+Q to exit): "))
		b.WriteString(v.input)
		return b.String()
	case stateCreating:
		b.WriteString(titleStyle.Render("> Create Room (CTRL+Q to exit): "))
		b.WriteString(v.input)
		return b.String()
	}

	if v.notice != "" {
		writeError(&b, v.notice)
		b.WriteString("\n")
	}
	if v.query != "" {
		b.WriteString(helpStyle.Render(fmt.Sprintf("Matching %q", v.query)))
		b.WriteString("\n")
	}
	if len(v.rooms) == 0 {
		b.WriteString("  No rooms here yet.\n")
	}
	for i, r := range v.rooms {
		writeOption(&b, fmt.Sprintf("%s: %d online", r.Name, r.Online), i == v.pager.cursor)
	}
	writeHelp(&b,
		fmt.Sprintf("Page %d. Use Up/Down and Enter to join a room.", v.pager.page+1),
		"[S] Search for a room.",
		"[C] Create Room.",
		"[N] Next Page",
		"[H / CTRL+Q] Home",
	)
	return b.String()
}

func (v *RoomsScreen) HandleEvent(ctx context.Context, ev protocol.Event, text string) protocol.Event {
	if v.state != stateSelecting {
		return v.handleInput(ctx, ev, text)
	}

	switch ev {
	case protocol.UpArrow:
		if v.pager.up(len(v.rooms)) {
			v.RefreshData(ctx)
		}
	case protocol.DownArrow:
		if v.pager.down(len(v.rooms)) {
			v.RefreshData(ctx)
		}
	case protocol.KeyN:
		if v.pager.next(len(v.rooms)) {
			v.RefreshData(ctx)
		}
	case protocol.Enter:
		if len(v.rooms) == 0 {
			return protocol.Unknown
		}
		return v.navigate(RoomView, protocol.RoomJoin)
	case protocol.KeyH, protocol.CtrlQ:
		return v.navigate(MenuView, protocol.NavigateView)
	case protocol.KeyS:
		v.enter(stateSearching)
		return protocol.InputModeEnable
	case protocol.KeyC:
		v.enter(stateCreating)
		return protocol.InputModeEnable
	}
	return ev
}

func (v *RoomsScreen) handleInput(ctx context.Context, ev protocol.Event, text string) protocol.Event {
	switch ev {
	case protocol.CtrlQ:
		v.query = ""
		v.leaveInput(ctx)
		return protocol.InputModeDisable
	case protocol.Enter:
		input := strings.TrimSpace(text)
		if input == "" {
			return protocol.Unknown
		}
		if v.state == stateCreating {
			if _, err := v.repo.CreateRoom(ctx, input, v.userID); err != nil {
				if !isCustom(err) {
					logx.Error(err, "Failed to create room", "user_id", v.userID)
				}
				v.notice = errs.Message(err)
			}
			v.query = ""
		} else {
			v.query = input
		}
		v.leaveInput(ctx)
		return protocol.InputModeDisable
	}
	v.input = text
	return ev
}

func (v *RoomsScreen) enter(state listState) {
	v.state = state
	v.input = ""
	v.notice = ""
}

func (v *RoomsScreen) leaveInput(ctx context.Context) {
	v.state = stateSelecting
	v.input = ""
	v.pager.reset()
	v.RefreshData(ctx)
}
