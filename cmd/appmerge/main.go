// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command appmerge compares Appian application packages.
//
// Usage:
//
//	# Pairwise: what changed between two exports
//	appmerge compare old.zip new.zip
//
//	# Three-way: classify merge conflicts against a common base
//	appmerge merge base.zip customer.zip vendor.zip --output result.json
//
// Results are emitted as JSON on stdout (or --output). Exit code 0 means
// the run completed, possibly with data-quality warnings in the result;
// exit code 1 means an archive could not be opened or usage was invalid.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/appmerge/pkg/logging"
	"github.com/AleutianAI/appmerge/services/appmerge/config"
	"github.com/AleutianAI/appmerge/services/appmerge/engine"
)

var (
	flagConfig   string
	flagOutput   string
	flagLogLevel string
	flagLogDir   string
	flagQuiet    bool
	flagWorkers  int
)

func main() {
	root := &cobra.Command{
		Use:           "appmerge",
		Short:         "Structural comparison of Appian application packages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML run configuration")
	root.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "write the JSON result to a file instead of stdout")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "directory for JSON log files")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress stderr logging")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "classification worker count (0 = auto)")

	root.AddCommand(newCompareCmd(), newMergeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "appmerge: %v\n", err)
		os.Exit(1)
	}
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare OLD.zip NEW.zip",
		Short: "Pairwise comparison of two package exports",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompare,
	}
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge BASE.zip CUSTOMER.zip VENDOR.zip",
		Short: "Three-way merge classification against a common base",
		Args:  cobra.ExactArgs(3),
		RunE:  runMerge,
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	e, logger, err := buildEngine()
	if err != nil {
		return err
	}
	defer logger.Close()

	result, err := e.Compare(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	return emit(result)
}

func runMerge(cmd *cobra.Command, args []string) error {
	e, logger, err := buildEngine()
	if err != nil {
		return err
	}
	defer logger.Close()

	result, err := e.Merge(cmd.Context(), args[0], args[1], args[2])
	if err != nil {
		return err
	}
	return emit(result)
}

func buildEngine() (*engine.Engine, *logging.Logger, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(flagLogLevel),
		LogDir:  flagLogDir,
		Service: "appmerge",
		Quiet:   flagQuiet,
	})
	return engine.New(cfg, engine.WithLogger(logger.Slog())), logger, nil
}

func emit(result *engine.Result) error {
	data, err := result.JSON()
	if err != nil {
		return fmt.Errorf("serializing result: %w", err)
	}
	data = append(data, '\n')
	if flagOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flagOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", flagOutput, err)
	}
	return nil
}
