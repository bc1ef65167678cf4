package views

import (
	"context"
	"strings"

	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/user"
)

// DirectMessageScreen is a private conversation between the viewer and one peer.
type DirectMessageScreen struct {
	base
	conversation

	peer user.User
}

func NewDirectMessageScreen(ctx context.Context, repo repository.Repository, userID int64, peer user.User) *DirectMessageScreen {
	v := &DirectMessageScreen{peer: peer}
	v.conversation = conversation{
		selfID: userID,
		load: func(ctx context.Context, page int) ([]repository.Message, error) {
			return repo.GetDirectMessages(ctx, userID, peer.ID, page)
		},
		post: func(ctx context.Context, text string) error {
			return repo.PostDirectMessage(ctx, userID, peer.ID, text)
		},
	}
	v.refresh(ctx)
	return v
}

func (v *DirectMessageScreen) RefreshData(ctx context.Context) { v.refresh(ctx) }

// SubjectID is the recipient of messages sent from this screen.
func (v *DirectMessageScreen) SubjectID() int64 { return v.peer.ID }

// Selection is the peer's name so that leaving returns to their profile.
func (v *DirectMessageScreen) Selection() string { return v.peer.Username }

func (v *DirectMessageScreen) InitialMode() protocol.Mode { return protocol.LineInput }

func (v *DirectMessageScreen) Render() string {
	var b strings.Builder
	writeTitle(&b, "Messages with "+v.peer.Username)
	v.render(&b)
	return b.String()
}

func (v *DirectMessageScreen) HandleEvent(ctx context.Context, ev protocol.Event, text string) protocol.Event {
	if result, ok := v.handle(ctx, ev, text, protocol.DirectMessageSent); ok {
		return result
	}
	return v.navigate(UserView, protocol.NavigateView)
}
