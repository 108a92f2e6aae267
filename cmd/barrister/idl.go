package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coopernurse/barrister/idl/checksum"
	"github.com/coopernurse/barrister/idl/lexer"
	"github.com/coopernurse/barrister/idl/parser"
	"github.com/coopernurse/barrister/idl/semantic"
	"github.com/coopernurse/barrister/internal/cli/ui"
)

var (
	idlStdin bool
	idlNow   int64
)

func init() {
	idlCmd.Flags().BoolVar(&idlStdin, "stdin", false, "Read IDL from stdin instead of a file")
	idlCmd.Flags().Int64Var(&idlNow, "date-generated", 0, "Override the meta date_generated field (unix millis); defaults to 0")
}

var idlCmd = &cobra.Command{
	Use:   "idl [file]",
	Short: "Parse, validate, and checksum an IDL file, printing its contract JSON",
	Long: `idl lexes and parses one IDL source, runs the semantic validator, stamps
a checksum and meta entry, and writes the resulting contract JSON to stdout.
Parse and validation errors are reported to stderr and exit the process
with a non-zero status.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if idlStdin {
			return nil
		}
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one IDL filename (or --stdin)")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var source []byte
		var name string
		var err error

		if idlStdin {
			source, err = io.ReadAll(os.Stdin)
			name = "<stdin>"
		} else {
			name = args[0]
			source, err = os.ReadFile(name)
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		lx := lexer.New(string(source), name)
		tokens, lexErrs := lx.ScanTokens()
		if len(lexErrs) > 0 {
			for _, e := range lexErrs {
				ui.WriteError(os.Stderr, ui.ErrorOptions{
					Level:   ui.ErrorLevelError,
					Context: "LEX ERROR",
					Problem: e.Error(),
				})
			}
			return fmt.Errorf("%d lex error(s) in %s", len(lexErrs), name)
		}

		contract, parseErrs := parser.New(tokens).Parse()
		if len(parseErrs) > 0 {
			for _, e := range parseErrs {
				ui.WriteError(os.Stderr, ui.ErrorOptions{
					Level:   ui.ErrorLevelError,
					Context: "PARSE ERROR",
					Problem: e.Error(),
				})
			}
			return fmt.Errorf("%d parse error(s) in %s", len(parseErrs), name)
		}

		if semErrs := semantic.Validate(contract); len(semErrs) > 0 {
			for _, e := range semErrs {
				ui.WriteError(os.Stderr, ui.ErrorOptions{
					Level:   ui.ErrorLevelError,
					Context: "VALIDATION ERROR",
					Problem: e.Error(),
				})
			}
			return fmt.Errorf("%d validation error(s) in %s", len(semErrs), name)
		}

		stamped := checksum.Stamp(contract, idlNow)
		out, err := json.MarshalIndent(stamped, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal contract: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}
