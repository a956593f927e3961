package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	logx "partnerbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const welcomeKey = "welcome_message"

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const userCols = `id, username, password, COALESCE(telegram_id, 0), COALESCE(link, ''), COALESCE(full_name, '')`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.TelegramID, &u.Link, &u.FullName)
	return u, err
}

func (s *sqliteStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *sqliteStore) userBy(ctx context.Context, where string, arg any) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *sqliteStore) UserByID(ctx context.Context, id int64) (User, error) {
	return s.userBy(ctx, `id = ?`, id)
}

func (s *sqliteStore) UserByUsername(ctx context.Context, username string) (User, error) {
	return s.userBy(ctx, `username = ?`, username)
}

func (s *sqliteStore) UserByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	if telegramID == 0 {
		return User{}, ErrNotFound
	}
	return s.userBy(ctx, `telegram_id = ?`, telegramID)
}

func (s *sqliteStore) AddUser(ctx context.Context, username, password string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, password) VALUES(?, ?)`, username, password)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) UpdateUsername(ctx context.Context, id int64, username string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ? WHERE id = ?`, username, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return err
	}
	return requireAffected(res)
}

func (s *sqliteStore) UpdatePassword(ctx context.Context, id int64, password string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password = ? WHERE id = ?`, password, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *sqliteStore) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *sqliteStore) Channel(ctx context.Context, kind ChannelKind) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id FROM channels WHERE kind = ?`, string(kind)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func (s *sqliteStore) SetChannel(ctx context.Context, kind ChannelKind, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels(kind, channel_id) VALUES(?, ?)
		 ON CONFLICT(kind) DO UPDATE SET channel_id = excluded.channel_id`,
		string(kind), channelID)
	return err
}

func (s *sqliteStore) Welcome(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, welcomeKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

func (s *sqliteStore) SetWelcome(ctx context.Context, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		welcomeKey, text)
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// modernc.org/sqlite surfaces SQLITE_CONSTRAINT_UNIQUE in the error text.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
