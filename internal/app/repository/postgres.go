package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telebbs/internal/app/db"
	"telebbs/internal/app/user"
	"telebbs/internal/pkg/errs"
)

// Postgres is the pgx-backed Repository.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Postgres)(nil)

// NewPostgres wraps an already-migrated pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ResetPresence clears login flags and online counts left behind by a crash.
// It must run before the first session is accepted.
func (p *Postgres) ResetPresence(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `UPDATE users SET logged_in = FALSE WHERE logged_in`); err != nil {
		return fmt.Errorf("reset users: %w", err)
	}
	if _, err := p.pool.Exec(ctx, `UPDATE rooms SET online = 0 WHERE online <> 0`); err != nil {
		return fmt.Errorf("reset rooms: %w", err)
	}
	return nil
}

func (p *Postgres) GetRooms(ctx context.Context, page int) ([]Room, error) {
	return p.queryRooms(ctx, `
		SELECT id, name, online, COALESCE(owner_id, 0)
		FROM rooms
		ORDER BY online DESC, name
		LIMIT $1 OFFSET $2`, PageSize, offset(page))
}

func (p *Postgres) SearchRooms(ctx context.Context, query string, page int) ([]Room, error) {
	return p.queryRooms(ctx, `
		SELECT id, name, online, COALESCE(owner_id, 0)
		FROM rooms
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY online DESC, name
		LIMIT $2 OFFSET $3`, escapeLike(query), PageSize, offset(page))
}

func (p *Postgres) queryRooms(ctx context.Context, sql string, args ...any) ([]Room, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	rooms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Room, error) {
		var r Room
		err := row.Scan(&r.ID, &r.Name, &r.Online, &r.OwnerID)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan rooms: %w", err)
	}
	return rooms, nil
}

func (p *Postgres) GetRoomByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `SELECT id FROM rooms WHERE name = $1`, name).Scan(&id)
	if db.IsNoRows(err) {
		return NoID, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		return NoID, fmt.Errorf("get room by name: %w", err)
	}
	return id, nil
}

func (p *Postgres) GetRoomNameByID(ctx context.Context, id int64) (string, error) {
	var name string
	err := p.pool.QueryRow(ctx, `SELECT name FROM rooms WHERE id = $1`, id).Scan(&name)
	if db.IsNoRows(err) {
		return "", errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get room name: %w", err)
	}
	return name, nil
}

func (p *Postgres) CreateRoom(ctx context.Context, name string, ownerID int64) (int64, error) {
	if err := validateRoomName(name); err != nil {
		return NoID, err
	}

	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO rooms (name, owner_id) VALUES ($1, NULLIF($2, 0)) RETURNING id`,
		name, ownerID).Scan(&id)
	if db.IsUniqueViolation(err) {
		return NoID, errs.NewError(errs.ErrRoomCodeExists)
	}
	if err != nil {
		return NoID, fmt.Errorf("create room: %w", err)
	}
	return id, nil
}

func (p *Postgres) JoinRoom(ctx context.Context, id int64) error {
	return p.adjustOnline(ctx, id, 1)
}

func (p *Postgres) LeaveRoom(ctx context.Context, id int64) error {
	return p.adjustOnline(ctx, id, -1)
}

func (p *Postgres) adjustOnline(ctx context.Context, id int64, delta int) error {
	tag, err := p.pool.Exec(ctx, `UPDATE rooms SET online = online + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("adjust online count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewError(errs.ErrRoomNotFound)
	}
	return nil
}

func (p *Postgres) GetOnlineUsers(ctx context.Context, page int) ([]user.User, error) {
	return p.queryUsers(ctx, `
		SELECT id, username, logged_in, created_at
		FROM users
		WHERE logged_in
		ORDER BY username
		LIMIT $1 OFFSET $2`, PageSize, offset(page))
}

func (p *Postgres) SearchUsers(ctx context.Context, query string) ([]user.User, error) {
	return p.queryUsers(ctx, `
		SELECT id, username, logged_in, created_at
		FROM users
		WHERE username ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT $2`, escapeLike(query), PageSize)
}

func (p *Postgres) queryUsers(ctx context.Context, sql string, args ...any) ([]user.User, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.User, error) {
		var u user.User
		err := row.Scan(&u.ID, &u.Username, &u.LoggedIn, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (user.User, error) {
	var u user.User
	err := p.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, logged_in, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.LoggedIn, &u.CreatedAt)
	if db.IsNoRows(err) {
		return user.User{}, errs.NewError(errs.ErrUserNotFound)
	}
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (p *Postgres) GetUserIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, name).Scan(&id)
	if db.IsNoRows(err) {
		return NoID, errs.NewError(errs.ErrUserNotFound)
	}
	if err != nil {
		return NoID, fmt.Errorf("get user id: %w", err)
	}
	return id, nil
}

func (p *Postgres) ValidateUser(ctx context.Context, username, password string) (int64, error) {
	var (
		id   int64
		hash string
	)
	err := p.pool.QueryRow(ctx, `SELECT id, password_hash FROM users WHERE username = $1`, username).Scan(&id, &hash)
	if db.IsNoRows(err) {
		return NoID, errs.NewError(errs.ErrInvalidCredentials)
	}
	if err != nil {
		return NoID, fmt.Errorf("validate user: %w", err)
	}
	if !user.CheckPassword(hash, password) {
		return NoID, errs.NewError(errs.ErrInvalidCredentials)
	}
	return id, nil
}

func (p *Postgres) CreateUser(ctx context.Context, username, password string) (int64, error) {
	if cerr := user.ValidateCredentials(username, password); cerr != nil {
		return NoID, cerr
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return NoID, fmt.Errorf("hash password: %w", err)
	}

	var id int64
	err = p.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, hash).Scan(&id)
	if db.IsUniqueViolation(err) {
		return NoID, errs.NewError(errs.ErrUserAlreadyExists)
	}
	if err != nil {
		return NoID, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (p *Postgres) LoginUser(ctx context.Context, id int64) error {
	return p.setLoggedIn(ctx, id, true)
}

func (p *Postgres) LogoutUser(ctx context.Context, id int64) error {
	return p.setLoggedIn(ctx, id, false)
}

func (p *Postgres) setLoggedIn(ctx context.Context, id int64, loggedIn bool) error {
	tag, err := p.pool.Exec(ctx, `UPDATE users SET logged_in = $2 WHERE id = $1`, id, loggedIn)
	if err != nil {
		return fmt.Errorf("set logged_in: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewError(errs.ErrUserNotFound)
	}
	return nil
}

func (p *Postgres) PostRoomMessage(ctx context.Context, roomID int64, text string, userID int64) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO room_messages (room_id, user_id, body) VALUES ($1, $2, $3)`,
		roomID, userID, text)
	if err != nil {
		return fmt.Errorf("post room message: %w", err)
	}
	return nil
}

func (p *Postgres) GetRoomMessages(ctx context.Context, roomID int64, page int) ([]Message, error) {
	return p.queryMessages(ctx, `
		SELECT m.user_id, u.username, m.body, m.created_at
		FROM room_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2 OFFSET $3`, roomID, PageSize, offset(page))
}

func (p *Postgres) PostDirectMessage(ctx context.Context, fromID, toID int64, text string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO direct_messages (from_id, to_id, body) VALUES ($1, $2, $3)`,
		fromID, toID, text)
	if err != nil {
		return fmt.Errorf("post direct message: %w", err)
	}
	return nil
}

func (p *Postgres) GetDirectMessages(ctx context.Context, userA, userB int64, page int) ([]Message, error) {
	return p.queryMessages(ctx, `
		SELECT m.from_id, u.username, m.body, m.created_at
		FROM direct_messages m
		JOIN users u ON u.id = m.from_id
		WHERE (m.from_id = $1 AND m.to_id = $2) OR (m.from_id = $2 AND m.to_id = $1)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $3 OFFSET $4`, userA, userB, PageSize, offset(page))
}

func (p *Postgres) queryMessages(ctx context.Context, sql string, args ...any) ([]Message, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.UserID, &m.Username, &m.Text, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	return msgs, nil
}

func offset(page int) int {
	if page < 0 {
		return 0
	}
	return page * PageSize
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
