// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brindlebrook/mavrelay/internal/codegen"
	"github.com/brindlebrook/mavrelay/internal/dialectxml"
)

var (
	genInput   string
	genOutput  string
	genPackage string
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a Go dialect package from a MAVLink XML definition",
	Long: `gen reads a MAVLink dialect XML file and emits a single Go source file
implementing wire.Message and a wire.Dispatcher table for every message it
defines. It has no opinion about where the output is used; a router built
against a generated dialect swaps in Dispatcher the same way it does for
the built-in mavcommon package.`,
	RunE: runGen,
}

func init() {
	rootCmd.AddCommand(genCmd)
	genCmd.Flags().StringVar(&genInput, "input", "", "path to the dialect XML file")
	genCmd.Flags().StringVar(&genOutput, "output", "", "path to write the generated Go source")
	genCmd.Flags().StringVar(&genPackage, "package", "dialect", "package name for the generated file")
	genCmd.MarkFlagRequired("input")
	genCmd.MarkFlagRequired("output")
}

func runGen(cmd *cobra.Command, args []string) error {
	f, err := os.Open(genInput)
	if err != nil {
		return fmt.Errorf("gen: open %s: %w", genInput, err)
	}
	defer f.Close()

	dialect, err := dialectxml.Parse(f)
	if err != nil {
		return fmt.Errorf("gen: parse %s: %w", genInput, err)
	}

	src, err := codegen.Generate(dialect, genPackage)
	if err != nil {
		return fmt.Errorf("gen: generate: %w", err)
	}

	if err := os.WriteFile(genOutput, src, 0o644); err != nil {
		return fmt.Errorf("gen: write %s: %w", genOutput, err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s (%d messages)\n", genOutput, len(dialect.Messages))
	return nil
}
