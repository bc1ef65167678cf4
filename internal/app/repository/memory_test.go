package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"telebbs/internal/pkg/errs"
)

func TestMemoryUserLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.CreateUser(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := m.CreateUser(ctx, "alice", "other"); !errs.Is(err, errs.ErrUserAlreadyExists) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}
	if _, err := m.ValidateUser(ctx, "alice", "wrong"); !errs.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := m.ValidateUser(ctx, "nobody", "pw1"); !errs.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
	got, err := m.ValidateUser(ctx, "alice", "pw1")
	if err != nil || got != id {
		t.Fatalf("validate: got %d, %v", got, err)
	}

	if err := m.LoginUser(ctx, id); err != nil {
		t.Fatalf("login: %v", err)
	}
	online, _ := m.GetOnlineUsers(ctx, 0)
	if len(online) != 1 || online[0].Username != "alice" {
		t.Fatalf("unexpected online users %+v", online)
	}
	if err := m.LogoutUser(ctx, id); err != nil {
		t.Fatalf("logout: %v", err)
	}
	online, _ = m.GetOnlineUsers(ctx, 0)
	if len(online) != 0 {
		t.Fatalf("expected nobody online, got %+v", online)
	}
}

func TestMemoryRoomsPagingAndSearch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < PageSize+5; i++ {
		if _, err := m.CreateRoom(ctx, fmt.Sprintf("room-%02d", i), 1); err != nil {
			t.Fatalf("create room: %v", err)
		}
	}

	first, _ := m.GetRooms(ctx, 0)
	second, _ := m.GetRooms(ctx, 1)
	if len(first) != PageSize || len(second) != 5 {
		t.Fatalf("unexpected page sizes %d/%d", len(first), len(second))
	}

	found, _ := m.SearchRooms(ctx, "ROOM-0", 0)
	if len(found) != 10 {
		t.Fatalf("expected 10 case-insensitive matches, got %d", len(found))
	}

	if _, err := m.CreateRoom(ctx, "room-00", 1); !errs.Is(err, errs.ErrRoomCodeExists) {
		t.Fatalf("expected duplicate room error, got %v", err)
	}
	if _, err := m.CreateRoom(ctx, "   ", 1); !errs.Is(err, errs.ErrInvalidRoomName) {
		t.Fatalf("expected invalid room name, got %v", err)
	}
	if _, err := m.GetRoomByName(ctx, "missing"); !errs.Is(err, errs.ErrRoomNotFound) {
		t.Fatalf("expected room not found, got %v", err)
	}
}

func TestMemoryOnlineCountIsRelative(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, _ := m.CreateRoom(ctx, "lobby", 1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = m.JoinRoom(ctx, id) }()
		go func() { defer wg.Done(); _ = m.JoinRoom(ctx, id) }()
	}
	wg.Wait()
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() { defer wg.Done(); _ = m.LeaveRoom(ctx, id) }()
	}
	wg.Wait()

	rooms, _ := m.GetRooms(ctx, 0)
	if rooms[0].Online != 60 {
		t.Fatalf("expected 60 online, got %d", rooms[0].Online)
	}
}

func TestMemoryMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }

	alice, _ := m.CreateUser(ctx, "alice", "pw1")
	bob, _ := m.CreateUser(ctx, "bob", "pw2")
	carol, _ := m.CreateUser(ctx, "carol", "pw3")
	room, _ := m.CreateRoom(ctx, "lobby", alice)

	_ = m.PostRoomMessage(ctx, room, "first", alice)
	_ = m.PostRoomMessage(ctx, room, "second", bob)
	msgs, _ := m.GetRoomMessages(ctx, room, 0)
	if len(msgs) != 2 || msgs[0].Text != "second" || msgs[0].Username != "bob" {
		t.Fatalf("unexpected room messages %+v", msgs)
	}

	_ = m.PostDirectMessage(ctx, alice, bob, "hi bob")
	_ = m.PostDirectMessage(ctx, bob, alice, "hi alice")
	_ = m.PostDirectMessage(ctx, carol, alice, "not in thread")
	thread, _ := m.GetDirectMessages(ctx, bob, alice, 0)
	if len(thread) != 2 || thread[0].Text != "hi alice" || thread[1].Text != "hi bob" {
		t.Fatalf("unexpected thread %+v", thread)
	}
}
