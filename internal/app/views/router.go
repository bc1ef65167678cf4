package views

import (
	"context"
	"fmt"

	"telebbs/internal/app/repository"
)

// SessionContext is the part of session state a new screen may need.
type SessionContext struct {
	UserID int64
	RoomID int64
}

// Router builds the next screen for a navigation request.
type Router struct {
	repo repository.Repository
}

func NewRouter(repo repository.Repository) *Router {
	return &Router{repo: repo}
}

// Start returns the first screen of every session.
func (r *Router) Start() View {
	return NewLoginRegisterScreen(r.repo)
}

// Next returns the screen current's target leads to, or nil when there is no
// transition. Unauthenticated sessions only ever reach the login screen.
func (r *Router) Next(ctx context.Context, current View, sc SessionContext) (View, error) {
	target := current.Target()
	if target == NoneView {
		return nil, nil
	}
	if sc.UserID == repository.NoID {
		return NewLoginRegisterScreen(r.repo), nil
	}

	switch target {
	case MenuView:
		return NewMenuScreen(), nil

	case RoomsView:
		return NewRoomsScreen(ctx, r.repo, sc.UserID), nil

	case RoomView:
		name, err := r.repo.GetRoomNameByID(ctx, sc.RoomID)
		if err != nil {
			return nil, fmt.Errorf("open room %d: %w", sc.RoomID, err)
		}
		return NewRoomScreen(ctx, r.repo, sc.RoomID, name, sc.UserID), nil

	case PeopleView:
		return NewUsersScreen(ctx, r.repo), nil

	case MeView:
		return NewUserScreen(ctx, r.repo, sc.UserID, sc.UserID), nil

	case UserView:
		id, err := r.repo.GetUserIDByName(ctx, current.Selection())
		if err != nil {
			return nil, fmt.Errorf("open profile %q: %w", current.Selection(), err)
		}
		return NewUserScreen(ctx, r.repo, id, sc.UserID), nil

	case DirectMessageView:
		peer, err := r.repo.GetUser(ctx, current.SubjectID())
		if err != nil {
			return nil, fmt.Errorf("open conversation with %d: %w", current.SubjectID(), err)
		}
		return NewDirectMessageScreen(ctx, r.repo, sc.UserID, peer), nil
	}

	return nil, fmt.Errorf("unknown navigation target %v", target)
}
