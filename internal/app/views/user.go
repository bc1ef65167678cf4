package views

import (
	"context"
	"strings"

	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/user"
	"telebbs/internal/pkg/logx"
)

// UserScreen is a profile page. When it shows the viewer's own account it is the "Me" screen.
type UserScreen struct {
	base
	repo repository.Repository

	subjectID int64
	self      bool
	user      user.User
	loaded    bool
}

func NewUserScreen(ctx context.Context, repo repository.Repository, subjectID, viewerID int64) *UserScreen {
	v := &UserScreen{repo: repo, subjectID: subjectID, self: subjectID == viewerID}
	v.RefreshData(ctx)
	return v
}

func (v *UserScreen) RefreshData(ctx context.Context) {
	u, err := v.repo.GetUser(ctx, v.subjectID)
	if err != nil {
		logx.Error(err, "Failed to load user", "user_id", v.subjectID)
		return
	}
	v.user = u
	v.loaded = true
}

func (v *UserScreen) SubjectID() int64 { return v.subjectID }

func (v *UserScreen) Selection() string { return v.user.Username }

func (v *UserScreen) Render() string {
	var b strings.Builder
	if v.self {
		writeTitle(&b, "Me")
	} else {
		writeTitle(&b, v.user.Username)
	}

	if !v.loaded {
		writeError(&b, "This user could not be loaded.")
	} else {
		b.WriteString("username: " + v.user.Username + "\n")
		b.WriteString("status: " + presence(v.user.LoggedIn) + "\n")
		b.WriteString("member since: " + memberSince(v.user.CreatedAt) + "\n")
	}

	if v.self {
		writeHelp(&b, "[H] Home")
	} else {
		writeHelp(&b, "[S] Send Message", "[H] Home", "[CTRL+Q] Back")
	}
	return b.String()
}

func (v *UserScreen) HandleEvent(_ context.Context, ev protocol.Event, _ string) protocol.Event {
	switch ev {
	case protocol.KeyS:
		if v.self || !v.loaded {
			return protocol.Unknown
		}
		return v.navigate(DirectMessageView, protocol.NavigateView)
	case protocol.KeyH:
		return v.navigate(MenuView, protocol.NavigateView)
	case protocol.CtrlQ:
		if v.self {
			return v.navigate(MenuView, protocol.NavigateView)
		}
		return v.navigate(PeopleView, protocol.NavigateView)
	}
	return ev
}
