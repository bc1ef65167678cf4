package views

import (
	"context"
	"strings"

	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
)

// RoomScreen shows a room's history and posts to it.
type RoomScreen struct {
	base
	conversation

	roomID   int64
	roomName string
}

func NewRoomScreen(ctx context.Context, repo repository.Repository, roomID int64, roomName string, userID int64) *RoomScreen {
	v := &RoomScreen{roomID: roomID, roomName: roomName}
	v.conversation = conversation{
		selfID: userID,
		load: func(ctx context.Context, page int) ([]repository.Message, error) {
			return repo.GetRoomMessages(ctx, roomID, page)
		},
		post: func(ctx context.Context, text string) error {
			return repo.PostRoomMessage(ctx, roomID, text, userID)
		},
	}
	v.refresh(ctx)
	return v
}

func (v *RoomScreen) RefreshData(ctx context.Context) { v.refresh(ctx) }

func (v *RoomScreen) SubjectID() int64 { return v.roomID }

func (v *RoomScreen) Selection() string { return v.roomName }

func (v *RoomScreen) InitialMode() protocol.Mode { return protocol.LineInput }

func (v *RoomScreen) Render() string {
	var b strings.Builder
	writeTitle(&b, v.roomName)
	v.render(&b)
	return b.String()
}

func (v *RoomScreen) HandleEvent(ctx context.Context, ev protocol.Event, text string) protocol.Event {
	if result, ok := v.handle(ctx, ev, text, protocol.RoomMessageSent); ok {
		return result
	}
	return v.navigate(RoomsView, protocol.RoomLeave)
}
