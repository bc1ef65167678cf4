package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"telebbs/internal/app/user"
	"telebbs/internal/pkg/errs"
)

// Memory is a Repository held in process memory behind a single lock.
type Memory struct {
	mu sync.Mutex

	nextUserID int64
	nextRoomID int64

	users        map[int64]*user.User
	rooms        map[int64]*Room
	roomMessages map[int64][]storedMessage
	directs      []directMessage

	// now is swappable so tests get stable ordering.
	now func() time.Time
}

type storedMessage struct {
	userID    int64
	text      string
	createdAt time.Time
}

type directMessage struct {
	fromID, toID int64
	storedMessage
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:        make(map[int64]*user.User),
		rooms:        make(map[int64]*Room),
		roomMessages: make(map[int64][]storedMessage),
		now:          time.Now,
	}
}

func (m *Memory) GetRooms(ctx context.Context, page int) ([]Room, error) {
	return m.SearchRooms(ctx, "", page)
}

func (m *Memory) SearchRooms(_ context.Context, query string, page int) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query = strings.ToLower(query)
	rooms := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		if query == "" || strings.Contains(strings.ToLower(r.Name), query) {
			rooms = append(rooms, *r)
		}
	}
	// Busiest first, then by name, matching the Postgres ordering.
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Online != rooms[j].Online {
			return rooms[i].Online > rooms[j].Online
		}
		return rooms[i].Name < rooms[j].Name
	})
	return pageOf(rooms, page), nil
}

func (m *Memory) GetRoomByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rooms {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return NoID, errs.NewError(errs.ErrRoomNotFound)
}

func (m *Memory) GetRoomNameByID(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return "", errs.NewError(errs.ErrRoomNotFound)
	}
	return r.Name, nil
}

func (m *Memory) CreateRoom(_ context.Context, name string, ownerID int64) (int64, error) {
	if err := validateRoomName(name); err != nil {
		return NoID, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rooms {
		if r.Name == name {
			return NoID, errs.NewError(errs.ErrRoomCodeExists)
		}
	}
	m.nextRoomID++
	m.rooms[m.nextRoomID] = &Room{ID: m.nextRoomID, Name: name, OwnerID: ownerID}
	return m.nextRoomID, nil
}

func (m *Memory) JoinRoom(_ context.Context, id int64) error {
	return m.adjustOnline(id, 1)
}

func (m *Memory) LeaveRoom(_ context.Context, id int64) error {
	return m.adjustOnline(id, -1)
}

func (m *Memory) adjustOnline(id int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return errs.NewError(errs.ErrRoomNotFound)
	}
	r.Online += delta
	return nil
}

func (m *Memory) GetOnlineUsers(_ context.Context, page int) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]user.User, 0, len(m.users))
	for _, u := range m.users {
		if u.LoggedIn {
			users = append(users, *u)
		}
	}
	sortUsers(users)
	return pageOf(users, page), nil
}

func (m *Memory) SearchUsers(_ context.Context, query string) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query = strings.ToLower(query)
	users := make([]user.User, 0)
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.Username), query) {
			users = append(users, *u)
		}
	}
	sortUsers(users)
	return pageOf(users, 0), nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, errs.NewError(errs.ErrUserNotFound)
	}
	return *u, nil
}

func (m *Memory) GetUserIDByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u := m.findUser(name); u != nil {
		return u.ID, nil
	}
	return NoID, errs.NewError(errs.ErrUserNotFound)
}

func (m *Memory) ValidateUser(_ context.Context, username, password string) (int64, error) {
	m.mu.Lock()
	u := m.findUser(username)
	m.mu.Unlock()

	if u == nil || !user.CheckPassword(u.PasswordHash, password) {
		return NoID, errs.NewError(errs.ErrInvalidCredentials)
	}
	return u.ID, nil
}

func (m *Memory) CreateUser(_ context.Context, username, password string) (int64, error) {
	if cerr := user.ValidateCredentials(username, password); cerr != nil {
		return NoID, cerr
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return NoID, errs.NewError(errs.ErrUnknown, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findUser(username) != nil {
		return NoID, errs.NewError(errs.ErrUserAlreadyExists)
	}
	m.nextUserID++
	m.users[m.nextUserID] = &user.User{
		ID:           m.nextUserID,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    m.now(),
	}
	return m.nextUserID, nil
}

func (m *Memory) LoginUser(_ context.Context, id int64) error {
	return m.setLoggedIn(id, true)
}

func (m *Memory) LogoutUser(_ context.Context, id int64) error {
	return m.setLoggedIn(id, false)
}

func (m *Memory) setLoggedIn(id int64, loggedIn bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}
	u.LoggedIn = loggedIn
	return nil
}

func (m *Memory) PostRoomMessage(_ context.Context, roomID int64, text string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[roomID]; !ok {
		return errs.NewError(errs.ErrRoomNotFound)
	}
	m.roomMessages[roomID] = append(m.roomMessages[roomID], storedMessage{userID: userID, text: text, createdAt: m.now()})
	return nil
}

func (m *Memory) GetRoomMessages(_ context.Context, roomID int64, page int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.newestFirst(m.roomMessages[roomID], page), nil
}

func (m *Memory) PostDirectMessage(_ context.Context, fromID, toID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[toID]; !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}
	m.directs = append(m.directs, directMessage{
		fromID:        fromID,
		toID:          toID,
		storedMessage: storedMessage{userID: fromID, text: text, createdAt: m.now()},
	})
	return nil
}

func (m *Memory) GetDirectMessages(_ context.Context, userA, userB int64, page int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var thread []storedMessage
	for _, dm := range m.directs {
		if (dm.fromID == userA && dm.toID == userB) || (dm.fromID == userB && dm.toID == userA) {
			thread = append(thread, dm.storedMessage)
		}
	}
	return m.newestFirst(thread, page), nil
}

// newestFirst must be called with mu held.
func (m *Memory) newestFirst(stored []storedMessage, page int) []Message {
	msgs := make([]Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		s := stored[i]
		name := ""
		if u, ok := m.users[s.userID]; ok {
			name = u.Username
		}
		msgs = append(msgs, Message{UserID: s.userID, Username: name, Text: s.text, CreatedAt: s.createdAt})
	}
	return pageOf(msgs, page)
}

// findUser must be called with mu held.
func (m *Memory) findUser(name string) *user.User {
	for _, u := range m.users {
		if u.Username == name {
			return u
		}
	}
	return nil
}

func sortUsers(users []user.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
}

func pageOf[T any](rows []T, page int) []T {
	if page < 0 {
		page = 0
	}
	start := page * PageSize
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+PageSize, len(rows))
	return rows[start:end]
}

func validateRoomName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxRoomNameLen {
		return errs.NewError(errs.ErrInvalidRoomName, MaxRoomNameLen)
	}
	return nil
}
