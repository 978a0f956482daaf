// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/brindlebrook/mavrelay/internal/mavlog"
)

var (
	logMode  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "mavrelayctl",
	Short: "MAVLink routing relay",
	Long: `mavrelayctl runs and inspects a MAVLink routing daemon: a single-threaded
router that accepts frames from serial, TCP, and UDP links, forwards them by
learned (system_id, component_id) route or broadcast, and hands matching
frames to local subscribers.

Connection links are named by a connection string:
  serial:<device>:<baud>
  tcpout:<ip>:<port>
  udpin:<ip>:<port>
  udpout:<ip>:<port>

For the optional debug websocket mirror, the access token is read from the
MAVRELAY_ADMIN_TOKEN environment variable, or prompted interactively if not
set. There is intentionally no --token flag, to avoid leaking it in shell
history.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return mavlog.Init(logMode, mavlog.ParseLevel(logLevel))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "console", "log encoder: console or production")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", zapcore.InfoLevel.String(), "log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute() error {
	defer mavlog.Sync()
	return rootCmd.Execute()
}
