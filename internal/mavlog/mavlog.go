// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mavlog wraps zap so call sites log structured fields rather than
// formatted strings: the router and its adapters are long-running processes
// whose logs get grepped under time pressure, not read as prose.
package mavlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.Logger = zap.NewNop()

// Init replaces the package logger. mode selects the encoder: "production"
// for JSON (the router daemon), anything else for the human-readable
// console encoder (CLI tools).
func Init(mode string, level zapcore.Level) error {
	var cfg zap.Config
	if mode == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	global = l
	return nil
}

// L returns the package logger. Safe to call before Init (logs are
// discarded until then).
func L() *zap.Logger { return global }

// With returns a child logger carrying the given fields, e.g.
// mavlog.With(zap.String("connection", key)).
func With(fields ...zap.Field) *zap.Logger { return global.With(fields...) }

// Sync flushes buffered log entries. Call before process exit.
func Sync() error { return global.Sync() }

// ParseLevel maps a --log-level flag value to a zapcore.Level, defaulting
// to info for anything unrecognized.
func ParseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
