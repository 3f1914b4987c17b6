package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/image"
	"github.com/kristofer/smog/pkg/vm"
)

func newCompileCmd(logLevel *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "compile <file.smog>",
		Short: "Compile a .smog source file to a .sgc bytecode image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return compileFile(args[0], out, *logLevel, noColor)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: input file with .sgc extension)")
	return cmd
}

func compileFile(filename, out, logLevel string, noColor bool) error {
	logger := newLogger(logLevel)
	defer logger.Sync()

	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "reading %s", filename)
	}

	v := vm.New(vm.WithLogger(logger))
	defer v.Free()

	fn, err := compiler.Compile(v, string(data))
	if err != nil {
		c := newColorizer(os.Stderr, noColor)
		reportError(os.Stderr, c, err.Error())
		os.Exit(exitCompileError)
	}

	if out == "" {
		out = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".sgc"
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrapf(err, "creating %s", out)
	}
	defer f.Close()

	if err := image.Encode(fn, f); err != nil {
		return errors.Wrap(err, "encoding bytecode image")
	}
	return nil
}
