package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	logx "partnerbot/pkg/logx"
)

func openTestStore(t *testing.T, driver string) Store {
	t.Helper()
	ext := ".db"
	if driver == "file" {
		ext = ".json"
	}
	st, err := Open(Config{Driver: driver, Path: filepath.Join(t.TempDir(), "store"+ext)}, logx.Nop())
	if err != nil {
		t.Fatalf("open %s store: %v", driver, err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func forEachDriver(t *testing.T, fn func(t *testing.T, st Store)) {
	for _, driver := range []string{"sqlite", "file"} {
		t.Run(driver, func(t *testing.T) {
			fn(t, openTestStore(t, driver))
		})
	}
}

func TestUserCRUD(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		id, err := st.AddUser(ctx, "bob", "pw")
		if err != nil {
			t.Fatalf("AddUser: %v", err)
		}
		if id == 0 {
			t.Fatalf("expected a non-zero id")
		}

		u, err := st.UserByID(ctx, id)
		if err != nil {
			t.Fatalf("UserByID: %v", err)
		}
		if u.Username != "bob" || u.Password != "pw" {
			t.Fatalf("unexpected record %+v", u)
		}
		if u.Linked() {
			t.Fatalf("fresh record must not be linked")
		}

		if _, err := st.UserByUsername(ctx, "bob"); err != nil {
			t.Fatalf("UserByUsername: %v", err)
		}

		if err := st.UpdateUsername(ctx, id, "robert"); err != nil {
			t.Fatalf("UpdateUsername: %v", err)
		}
		if err := st.UpdatePassword(ctx, id, "pw2"); err != nil {
			t.Fatalf("UpdatePassword: %v", err)
		}
		u, err = st.UserByID(ctx, id)
		if err != nil {
			t.Fatalf("UserByID after update: %v", err)
		}
		if u.Username != "robert" || u.Password != "pw2" {
			t.Fatalf("updates not applied: %+v", u)
		}

		if err := st.DeleteUser(ctx, id); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}
		if _, err := st.UserByID(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestUsernameUniqueness(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		if _, err := st.AddUser(ctx, "bob", "pw"); err != nil {
			t.Fatalf("AddUser: %v", err)
		}
		if _, err := st.AddUser(ctx, "bob", "other"); !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}

		id2, err := st.AddUser(ctx, "alice", "pw")
		if err != nil {
			t.Fatalf("AddUser: %v", err)
		}
		if err := st.UpdateUsername(ctx, id2, "bob"); !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken on rename, got %v", err)
		}
		// Renaming to the own current name is allowed.
		if err := st.UpdateUsername(ctx, id2, "alice"); err != nil {
			t.Fatalf("self-rename must succeed: %v", err)
		}
	})
}

func TestConcurrentRenamesKeepUniqueness(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		id1, err := st.AddUser(ctx, "u1", "pw")
		if err != nil {
			t.Fatalf("AddUser: %v", err)
		}
		id2, err := st.AddUser(ctx, "u2", "pw")
		if err != nil {
			t.Fatalf("AddUser: %v", err)
		}

		// Both records race to the same name; at most one rename may win.
		errs := make(chan error, 2)
		for _, id := range []int64{id1, id2} {
			go func(id int64) {
				errs <- st.UpdateUsername(ctx, id, "winner")
			}(id)
		}
		var taken, ok int
		for i := 0; i < 2; i++ {
			switch err := <-errs; {
			case err == nil:
				ok++
			case errors.Is(err, ErrUsernameTaken):
				taken++
			default:
				t.Fatalf("unexpected rename error: %v", err)
			}
		}
		if ok != 1 || taken != 1 {
			t.Fatalf("expected exactly one winner, got ok=%d taken=%d", ok, taken)
		}

		users, err := st.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers: %v", err)
		}
		count := 0
		for _, u := range users {
			if u.Username == "winner" {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("expected one record named winner, got %d", count)
		}
	})
}

func TestMutationsOnUnknownID(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		if err := st.UpdateUsername(ctx, 42, "x"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("UpdateUsername: expected ErrNotFound, got %v", err)
		}
		if err := st.UpdatePassword(ctx, 42, "x"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("UpdatePassword: expected ErrNotFound, got %v", err)
		}
		if err := st.DeleteUser(ctx, 42); !errors.Is(err, ErrNotFound) {
			t.Fatalf("DeleteUser: expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserByTelegramIDZero(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st Store) {
		// Zero means "not linked"; it must never match a record.
		if _, err := st.UserByTelegramID(context.Background(), 0); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for zero telegram id, got %v", err)
		}
	})
}

func TestChannelsAndWelcome(t *testing.T) {
	forEachDriver(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		if _, err := st.Channel(ctx, ChannelLinks); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unset channel, got %v", err)
		}
		if err := st.SetChannel(ctx, ChannelLinks, "@links"); err != nil {
			t.Fatalf("SetChannel: %v", err)
		}
		if err := st.SetChannel(ctx, ChannelLinks, "-100777"); err != nil {
			t.Fatalf("SetChannel overwrite: %v", err)
		}
		got, err := st.Channel(ctx, ChannelLinks)
		if err != nil {
			t.Fatalf("Channel: %v", err)
		}
		if got != "-100777" {
			t.Fatalf("expected latest value, got %q", got)
		}
		if _, err := st.Channel(ctx, ChannelMessages); !errors.Is(err, ErrNotFound) {
			t.Fatalf("kinds must be independent, got %v", err)
		}

		if _, err := st.Welcome(ctx); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unset welcome, got %v", err)
		}
		if err := st.SetWelcome(ctx, "<b>Привет</b>"); err != nil {
			t.Fatalf("SetWelcome: %v", err)
		}
		w, err := st.Welcome(ctx)
		if err != nil {
			t.Fatalf("Welcome: %v", err)
		}
		if w != "<b>Привет</b>" {
			t.Fatalf("unexpected welcome %q", w)
		}
	})
}

func TestReopenKeepsData(t *testing.T) {
	for _, driver := range []string{"sqlite", "file"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			ext := ".db"
			if driver == "file" {
				ext = ".json"
			}
			path := filepath.Join(t.TempDir(), "store"+ext)

			st, err := Open(Config{Driver: driver, Path: path}, logx.Nop())
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			id, err := st.AddUser(ctx, "bob", "pw")
			if err != nil {
				t.Fatalf("AddUser: %v", err)
			}
			if err := st.SetWelcome(ctx, "hi"); err != nil {
				t.Fatalf("SetWelcome: %v", err)
			}
			if err := st.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			st, err = Open(Config{Driver: driver, Path: path}, logx.Nop())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer st.Close()

			u, err := st.UserByID(ctx, id)
			if err != nil {
				t.Fatalf("UserByID after reopen: %v", err)
			}
			if u.Username != "bob" {
				t.Fatalf("unexpected record %+v", u)
			}
			w, err := st.Welcome(ctx)
			if err != nil || w != "hi" {
				t.Fatalf("welcome lost across reopen: %q %v", w, err)
			}

			// Ids must keep increasing after a reopen.
			id2, err := st.AddUser(ctx, "alice", "pw")
			if err != nil {
				t.Fatalf("AddUser after reopen: %v", err)
			}
			if id2 <= id {
				t.Fatalf("expected id to grow, got %d after %d", id2, id)
			}
		})
	}
}

func TestUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "bolt", Path: "x"}, logx.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestDisplayName(t *testing.T) {
	u := User{Username: "bob"}
	if got := u.DisplayName(); got != "bob" {
		t.Fatalf("got %q", got)
	}
	u.FullName = "Боб Иванов"
	if got := u.DisplayName(); got != "Боб Иванов (@bob)" {
		t.Fatalf("got %q", got)
	}
}
