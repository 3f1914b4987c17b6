// Command smog is the command-line front end for the smog bytecode
// virtual machine: it runs source or compiled bytecode files, offers
// an interactive REPL, and can pre-compile source to a .sgc image or
// disassemble one back to text.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.1.0"

// Process exit codes follow the sysexits.h convention the original
// clox interpreter used: 0 on success, 65 (EX_DATAERR) when the
// source failed to compile, 70 (EX_SOFTWARE) when it compiled but
// failed at runtime.
const (
	exitOK           = 0
	exitCompileError = 65
	exitRuntimeError = 70
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "smog: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	var noColor bool

	root := &cobra.Command{
		Use:           "smog",
		Short:         "smog runs and compiles the smog scripting language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("SMOG_LOG_LEVEL", "warn"),
		"diagnostic log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	root.AddCommand(
		newRunCmd(&logLevel, &noColor),
		newReplCmd(&logLevel, &noColor),
		newCompileCmd(&logLevel),
		newDisasmCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the smog version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "smog version %s\n", version)
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger builds the shared zap logger every subcommand diagnoses
// through, honoring --log-level/SMOG_LOG_LEVEL (spec §6). A typo'd
// level name falls back to warn rather than aborting the program.
func newLogger(levelName string) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = zapcore.WarnLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = ""

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
