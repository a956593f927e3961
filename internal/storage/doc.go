// Package storage persists the user directory, the two publishing-channel
// identifiers, and the welcome message. Two backends exist: SQLite (default)
// and a JSON snapshot file.
package storage
