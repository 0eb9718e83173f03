package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chen-lang/chen/pkg/bytecode"
	"github.com/chen-lang/chen/pkg/compiler"
	"github.com/chen-lang/chen/pkg/parser"
)

func newBuildCommand() *cobra.Command {
	var disasm bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "build <path>",
		Short: "Compile a Chen Lang program to a .chb bytecode file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			src, fileName, err := readSource(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("could not read %s: %v", args[0], err))
				os.Exit(2)
			}

			prog, err := parser.Parse(src)
			if err != nil {
				printCompileError(err, src, fileName)
				os.Exit(1)
			}

			bc, err := compiler.CompileProgram(prog)
			if err != nil {
				printCompileError(err, src, fileName)
				os.Exit(1)
			}

			if disasm {
				fmt.Print(bytecode.Disassemble(bc))
			}

			if outPath == "" {
				outPath = defaultOutputPath(fileName)
			}
			data, err := bytecode.Marshal(bc)
			if err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("failed to encode bytecode: %v", err))
				os.Exit(2)
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				fmt.Fprintln(os.Stderr, color.RedString("failed to write %s: %v", outPath, err))
				os.Exit(2)
			}
			fmt.Println(color.GreenString("wrote %s", outPath))
		},
	}

	cmd.Flags().BoolVar(&disasm, "disasm", false, "print the disassembled bytecode to stdout")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output path (default: <source>.chb)")
	return cmd
}

func defaultOutputPath(fileName string) string {
	base := strings.TrimSuffix(fileName, ".ch")
	return base + ".chb"
}
