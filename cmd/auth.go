// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// getAdminToken returns the bearer token that gates the debug websocket
// mirror. It checks MAVRELAY_ADMIN_TOKEN first, then prompts interactively
// with echo disabled, the same fallback order the teacher's GetPassword uses
// for the Fusain websocket's Basic auth password.
func getAdminToken() (string, error) {
	if tok := os.Getenv("MAVRELAY_ADMIN_TOKEN"); tok != "" {
		return tok, nil
	}

	fmt.Fprint(os.Stderr, "Admin token: ")

	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		token, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read admin token: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(token), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(tokenBytes), nil
}
