package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/disasm"
	"github.com/kristofer/smog/pkg/image"
	"github.com/kristofer/smog/pkg/value"
	"github.com/kristofer/smog/pkg/vm"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "Print the disassembly of a .smog source file or a .sgc bytecode image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disasmFile(cmd, args[0])
		},
	}
}

func disasmFile(cmd *cobra.Command, filename string) error {
	v := vm.New()
	defer v.Free()

	var fn *value.ObjFunction
	var err error
	if filepath.Ext(filename) == ".sgc" {
		fn, err = disasmImage(v, filename)
	} else {
		noColor, _ := cmd.Flags().GetBool("no-color")
		fn, err = disasmSource(v, filename, noColor)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), disasm.Function(fn))
	return nil
}

func disasmImage(v *vm.VM, filename string) (*value.ObjFunction, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	defer f.Close()

	fn, err := image.Decode(f, v.InternString)
	if err != nil {
		return nil, errors.Wrap(err, "decoding bytecode image")
	}
	return fn, nil
}

func disasmSource(v *vm.VM, filename string, noColor bool) (*value.ObjFunction, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}

	fn, err := compiler.Compile(v, string(data))
	if err != nil {
		c := newColorizer(os.Stderr, noColor)
		reportError(os.Stderr, c, err.Error())
		os.Exit(exitCompileError)
	}
	return fn, nil
}
