/*
Package repository is the durable-storage boundary of the BBS.

It defines the Repository contract consumed by views and sessions, the Room and
Message entities, and two implementations: Postgres (pgx pool) for deployments and
an in-memory store for development and tests. Both serialize writes so that online
counts move by exactly one per join or leave.
*/
package repository

import (
	"context"
	"time"

	"telebbs/internal/app/user"
)

// NoID marks "no user" / "no room". Store-assigned ids start at 1.
const NoID int64 = 0

// PageSize is the number of rows returned by every paged query.
const PageSize = 20

// MaxRoomNameLen bounds room names.
const MaxRoomNameLen = 40

// Room is a chat room and its live occupant counter.
type Room struct {
	ID      int64
	Name    string
	Online  int
	OwnerID int64
}

// Message is one line of room or direct-message history, joined with the author's name.
type Message struct {
	UserID    int64
	Username  string
	Text      string
	CreatedAt time.Time
}

// Repository is the storage contract. Paged queries take a zero-based page
// number and return at most PageSize rows; message pages are newest first.
type Repository interface {
	GetRooms(ctx context.Context, page int) ([]Room, error)
	SearchRooms(ctx context.Context, query string, page int) ([]Room, error)
	// GetRoomByName returns the room id or an errs.ErrRoomNotFound error.
	GetRoomByName(ctx context.Context, name string) (int64, error)
	GetRoomNameByID(ctx context.Context, id int64) (string, error)
	CreateRoom(ctx context.Context, name string, ownerID int64) (int64, error)
	// JoinRoom and LeaveRoom move the online count by exactly one.
	JoinRoom(ctx context.Context, id int64) error
	LeaveRoom(ctx context.Context, id int64) error

	GetOnlineUsers(ctx context.Context, page int) ([]user.User, error)
	SearchUsers(ctx context.Context, query string) ([]user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserIDByName(ctx context.Context, name string) (int64, error)
	// ValidateUser returns an errs.ErrInvalidCredentials error on mismatch.
	ValidateUser(ctx context.Context, username, password string) (int64, error)
	// CreateUser returns an errs.ErrUserAlreadyExists error on a duplicate name.
	CreateUser(ctx context.Context, username, password string) (int64, error)
	LoginUser(ctx context.Context, id int64) error
	LogoutUser(ctx context.Context, id int64) error

	PostRoomMessage(ctx context.Context, roomID int64, text string, userID int64) error
	GetRoomMessages(ctx context.Context, roomID int64, page int) ([]Message, error)
	PostDirectMessage(ctx context.Context, fromID, toID int64, text string) error
	GetDirectMessages(ctx context.Context, userA, userB int64, page int) ([]Message, error)
}
