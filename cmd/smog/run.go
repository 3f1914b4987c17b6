package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kristofer/smog/pkg/image"
	"github.com/kristofer/smog/pkg/interp"
	"github.com/kristofer/smog/pkg/vm"
)

func newRunCmd(logLevel *string, noColor *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a .smog source file or a .sgc bytecode image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], *logLevel, *noColor)
		},
	}
	return cmd
}

func runFile(filename, logLevel string, noColor bool) error {
	logger := newLogger(logLevel)
	defer logger.Sync()

	v := vm.New(vm.WithLogger(logger), vm.WithGCStress(os.Getenv("SMOG_GC_STRESS") != ""))
	c := newColorizer(os.Stderr, noColor)

	if filepath.Ext(filename) == ".sgc" {
		return runImageFile(v, c, filename)
	}
	return runSourceFile(v, c, filename)
}

func runSourceFile(v *vm.VM, c *colorizer, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "reading %s", filename)
	}

	result, err := interp.Interpret(v, string(data))
	switch result {
	case interp.CompileError:
		reportError(os.Stderr, c, err.Error())
		os.Exit(exitCompileError)
	case interp.RuntimeError:
		reportError(os.Stderr, c, err.Error())
		os.Exit(exitRuntimeError)
	}
	return nil
}

func runImageFile(v *vm.VM, c *colorizer, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "opening %s", filename)
	}
	defer f.Close()

	fn, err := image.Decode(f, v.InternString)
	if err != nil {
		return errors.Wrap(err, "decoding bytecode image")
	}

	if err := v.Run(fn); err != nil {
		reportError(os.Stderr, c, err.Error())
		os.Exit(exitRuntimeError)
	}
	return nil
}
