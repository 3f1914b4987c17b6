package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/kristofer/smog/pkg/interp"
	"github.com/kristofer/smog/pkg/vm"
)

// newReplCmd builds the interactive prompt. A single *vm.VM backs the
// whole session, so a `var` declared on one line is still readable on
// the next: the compiler always starts a fresh top-level Compiler per
// line (there's no incremental local-variable compiler to resume),
// but a bare top-level `var` compiles to DEFINE_GLOBAL/GET_GLOBAL
// either way, and those live in the VM's persistent globals table, not
// in compiler state. That's the same "persistence via globals, not
// via the compiler" model the original clox REPL uses; it falls short
// only for a local declared inside unterminated braces spanning
// multiple prompts, which this REPL doesn't attempt to support.
func newReplCmd(logLevel *string, noColor *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive smog prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(*logLevel, *noColor)
		},
	}
}

func runRepl(logLevel string, noColor bool) error {
	logger := newLogger(logLevel)
	defer logger.Sync()

	v := vm.New(vm.WithLogger(logger), vm.WithGCStress(os.Getenv("SMOG_GC_STRESS") != ""))
	defer v.Free()
	c := newColorizer(os.Stderr, noColor)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "smog> ",
		HistoryFile:     replHistoryFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "smog %s -- :q or Ctrl-D to exit\n", version)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF || line == ":q" {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		result, err := interp.Interpret(v, line)
		switch result {
		case interp.CompileError, interp.RuntimeError:
			reportError(os.Stderr, c, err.Error())
		}
	}
}

func replHistoryFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.smog_history"
	}
	return ""
}
