package config

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Broadcast BroadcastConfig `json:"broadcast,omitempty"`
	Digest    DigestConfig    `json:"digest,omitempty"`
	Welcome   WelcomeConfig   `json:"welcome,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// AdminUserIDs is the static allow-list checked at the top of every
	// privileged command.
	AdminUserIDs []int64 `json:"admin_user_ids"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./partnerbot.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"` // "sqlite" (default) or "file"
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// BroadcastConfig controls mass-send pacing.
//
// Defaults (when fields are omitted/zero):
//   - rate_per_sec: 10 (one send every ~100ms)
//   - progress_every: 10
type BroadcastConfig struct {
	RatePerSec    int `json:"rate_per_sec,omitempty"`
	ProgressEvery int `json:"progress_every,omitempty"`
}

// DigestConfig controls the scheduled directory summary sent to admins.
type DigestConfig struct {
	Enabled  bool   `json:"enabled"`
	Spec     string `json:"spec,omitempty"`     // cron spec, default "0 9 * * *"
	Timezone string `json:"timezone,omitempty"` // IANA name, default local
}

// WelcomeConfig seeds the welcome message when the store has none yet.
type WelcomeConfig struct {
	Default string `json:"default,omitempty"`
}
