// Package admin implements the conversational administration surface: entry
// commands, the per-caller workflow state machine (add/edit/delete user,
// broadcasts, channel setup, welcome editing), and the global cancel handling.
package admin
