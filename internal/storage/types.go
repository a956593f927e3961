package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrUsernameTaken is returned when a create/rename collides with an
	// existing username. Callers are expected to pre-check; the store still
	// enforces it.
	ErrUsernameTaken = errors.New("storage: username taken")
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "file": dependency-free JSON snapshot backend
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// User is one directory record. TelegramID is zero until the user completes
// the external authentication flow that links a Telegram account.
type User struct {
	ID         int64
	Username   string
	Password   string // stored and displayed in plaintext, see DESIGN.md
	TelegramID int64
	Link       string
	FullName   string
}

// Linked reports whether a Telegram account is bound to this record.
func (u User) Linked() bool { return u.TelegramID != 0 }

// DisplayName prefers "FullName (@username)" when a non-blank full name is
// set, otherwise the bare username.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName + " (@" + u.Username + ")"
	}
	return u.Username
}

// ChannelKind selects one of the two configured publishing channels.
type ChannelKind string

const (
	ChannelLinks    ChannelKind = "links"
	ChannelMessages ChannelKind = "messages"
)

// Store is the persistence API consumed by the workflow handlers.
//
// Mutations return ErrNotFound for unknown ids and ErrUsernameTaken for
// username collisions; any other error means the write failed.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)
	UserByTelegramID(ctx context.Context, telegramID int64) (User, error)
	AddUser(ctx context.Context, username, password string) (int64, error)
	UpdateUsername(ctx context.Context, id int64, username string) error
	UpdatePassword(ctx context.Context, id int64, password string) error
	DeleteUser(ctx context.Context, id int64) error

	Channel(ctx context.Context, kind ChannelKind) (string, error)
	SetChannel(ctx context.Context, kind ChannelKind, channelID string) error

	Welcome(ctx context.Context) (string, error)
	SetWelcome(ctx context.Context, text string) error

	Close() error
}
