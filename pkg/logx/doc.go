// Package logx wraps zerolog behind a small Logger type with Field helpers.
//
// The Service owns the sinks (console and optional file) and can swap
// outputs/levels at runtime via Apply(); loggers created from a Service stay
// live across Apply() calls. The zero Logger is a safe no-op.
package logx
