package views

import (
	"context"
	"fmt"
	"strings"

	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/user"
	"telebbs/internal/pkg/logx"
)

// UsersScreen lists online users and searches the whole directory.
type UsersScreen struct {
	base
	repo repository.Repository

	users []user.User
	pager pager
	state listState
	input string
	query string
}

func NewUsersScreen(ctx context.Context, repo repository.Repository) *UsersScreen {
	v := &UsersScreen{repo: repo}
	v.RefreshData(ctx)
	return v
}

func (v *UsersScreen) RefreshData(ctx context.Context) {
	var (
		users []user.User
		err   error
	)
	if v.query != "" {
		users, err = v.repo.SearchUsers(ctx, v.query)
	} else {
		users, err = v.repo.GetOnlineUsers(ctx, v.pager.page)
	}
	if err != nil {
		logx.Error(err, "Failed to load users", "page", v.pager.page, "query", v.query)
		users = nil
	}
	v.users = users
	v.pager.clamp(len(v.users))
}

func (v *UsersScreen) Selection() string {
	if len(v.users) == 0 {
		return ""
	}
	return v.users[v.pager.cursor].Username
}

func (v *UsersScreen) Render() string {
	var b strings.Builder
	writeTitle(&b, "Users")

	if v.state == stateSearching {
		b.WriteString(selectedStyle.Render("> Search (CTRL+Q to exit): "))
		b.WriteString(v.input)
		return b.String()
	}

	if v.query != "" {
		b.WriteString(helpStyle.Render(fmt.Sprintf("Matching %q", v.query)))
		b.WriteString("\n")
	}
	if len(v.users) == 0 {
		b.WriteString("  Nobody here.\n")
	}
	for i, u := range v.users {
		writeOption(&b, fmt.Sprintf("%s: %s", u.Username, presence(u.LoggedIn)), i == v.pager.cursor)
	}
	writeHelp(&b,
		fmt.Sprintf("Page %d. Use Up/Down and Enter to select a user.", v.pager.page+1),
		"[S] Search for a user.",
		"[N] Next Page",
		"[H / CTRL+Q] Home",
	)
	return b.String()
}

func (v *UsersScreen) HandleEvent(ctx context.Context, ev protocol.Event, text string) protocol.Event {
	if v.state == stateSearching {
		return v.handleSearch(ctx, ev, text)
	}

	switch ev {
	case protocol.UpArrow:
		if v.pager.up(v.pageable()) {
			v.RefreshData(ctx)
		}
	case protocol.DownArrow:
		if v.pager.down(len(v.users)) {
			v.RefreshData(ctx)
		}
	case protocol.KeyN:
		if v.pager.next(v.pageable()) {
			v.RefreshData(ctx)
		}
	case protocol.Enter:
		if len(v.users) == 0 {
			return protocol.Unknown
		}
		return v.navigate(UserView, protocol.NavigateView)
	case protocol.KeyH, protocol.CtrlQ:
		return v.navigate(MenuView, protocol.NavigateView)
	case protocol.KeyS:
		v.state = stateSearching
		v.input = ""
		return protocol.InputModeEnable
	}
	return ev
}

// pageable is the row count used for paging; search results are a single page.
func (v *UsersScreen) pageable() int {
	if v.query != "" {
		return 0
	}
	return len(v.users)
}

func (v *UsersScreen) handleSearch(ctx context.Context, ev protocol.Event, text string) protocol.Event {
	switch ev {
	case protocol.CtrlQ:
		v.query = ""
	case protocol.Enter:
		query := strings.TrimSpace(text)
		if query == "" {
			return protocol.Unknown
		}
		v.query = query
	default:
		v.input = text
		return ev
	}

	v.state = stateSelecting
	v.input = ""
	v.pager.reset()
	v.RefreshData(ctx)
	return protocol.InputModeDisable
}
