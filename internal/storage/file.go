package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "partnerbot/pkg/logx"
)

// fileStore is a dependency-free backend: the whole directory is one JSON
// snapshot rewritten atomically (temp file + rename) on every mutation.
// Fine for the small directories this bot manages.
type fileStore struct {
	path string
	log  logx.Logger

	mu   sync.Mutex
	data fileData
}

type fileData struct {
	NextID   int64             `json:"next_id"`
	Users    []User            `json:"users"`
	Channels map[string]string `json:"channels"`
	Welcome  *string           `json:"welcome,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	st := &fileStore{path: cfg.Path, log: log}
	st.data = fileData{NextID: 1, Channels: map[string]string{}}

	b, err := os.ReadFile(cfg.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fresh store
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(b, &st.data); err != nil {
			return nil, err
		}
		if st.data.Channels == nil {
			st.data.Channels = map[string]string{}
		}
		if st.data.NextID < 1 {
			st.data.NextID = 1
		}
	}
	return st, nil
}

// persist writes the snapshot. Caller must hold mu.
func (s *fileStore) persist() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) ListUsers(context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, len(s.data.Users))
	copy(out, s.data.Users)
	return out, nil
}

func (s *fileStore) find(match func(User) bool) (User, error) {
	for _, u := range s.data.Users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *fileStore) UserByID(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(u User) bool { return u.ID == id })
}

func (s *fileStore) UserByUsername(_ context.Context, username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(u User) bool { return u.Username == username })
}

func (s *fileStore) UserByTelegramID(_ context.Context, telegramID int64) (User, error) {
	if telegramID == 0 {
		return User{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(func(u User) bool { return u.TelegramID == telegramID })
}

func (s *fileStore) AddUser(_ context.Context, username, password string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.find(func(u User) bool { return u.Username == username }); err == nil {
		return 0, ErrUsernameTaken
	}
	id := s.data.NextID
	s.data.NextID++
	s.data.Users = append(s.data.Users, User{ID: id, Username: username, Password: password})
	if err := s.persist(); err != nil {
		s.data.Users = s.data.Users[:len(s.data.Users)-1]
		s.data.NextID = id
		return 0, err
	}
	return id, nil
}

func (s *fileStore) mutate(id int64, fn func(*User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Users {
		if s.data.Users[i].ID == id {
			prev := s.data.Users[i]
			fn(&s.data.Users[i])
			if err := s.persist(); err != nil {
				s.data.Users[i] = prev
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *fileStore) UpdateUsername(_ context.Context, id int64, username string) error {
	// The uniqueness scan and the write share one lock acquisition, like the
	// UNIQUE constraint of the sqlite backend.
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.Users {
		if u.Username == username && u.ID != id {
			return ErrUsernameTaken
		}
	}
	for i := range s.data.Users {
		if s.data.Users[i].ID == id {
			prev := s.data.Users[i]
			s.data.Users[i].Username = username
			if err := s.persist(); err != nil {
				s.data.Users[i] = prev
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *fileStore) UpdatePassword(_ context.Context, id int64, password string) error {
	return s.mutate(id, func(u *User) { u.Password = password })
}

func (s *fileStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Users {
		if s.data.Users[i].ID == id {
			prev := s.data.Users
			s.data.Users = append(append([]User{}, prev[:i]...), prev[i+1:]...)
			if err := s.persist(); err != nil {
				s.data.Users = prev
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *fileStore) Channel(_ context.Context, kind ChannelKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.data.Channels[string(kind)]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *fileStore) SetChannel(_ context.Context, kind ChannelKind, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data.Channels[string(kind)]
	s.data.Channels[string(kind)] = channelID
	if err := s.persist(); err != nil {
		if had {
			s.data.Channels[string(kind)] = prev
		} else {
			delete(s.data.Channels, string(kind))
		}
		return err
	}
	return nil
}

func (s *fileStore) Welcome(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Welcome == nil {
		return "", ErrNotFound
	}
	return *s.data.Welcome, nil
}

func (s *fileStore) SetWelcome(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.data.Welcome
	s.data.Welcome = &text
	if err := s.persist(); err != nil {
		s.data.Welcome = prev
		return err
	}
	return nil
}
