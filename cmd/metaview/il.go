package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/typemeta/meta"
)

var (
	ilCalls bool
)

var ilCmd = &cobra.Command{
	Use:   "il <method> <source>...",
	Short: "Disassemble a method body",
	Long: `Disassemble the body of a method or constructor, given by its path
(for example N.Message.Append(System.String) or N.Message.ctor).

Operands that are metadata tokens are shown resolved to the member they
name. A body that ends mid-instruction is shown up to the damage.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIL,
}

func init() {
	ilCmd.Flags().BoolVarP(&ilCalls, "calls", "c", false, "list only the methods the body calls")
}

func runIL(cmd *cobra.Command, args []string) error {
	s, err := openSource(cmd.Context(), args[1:])
	if err != nil {
		return err
	}
	m, err := s.lookupMethod(args[0])
	if err != nil {
		return err
	}

	if ilCalls {
		for _, c := range m.Calls() {
			fmt.Fprintf(output, "%-12s %s\n", c.Kind(), pathColor.Sprint(c.Path()))
		}
		return nil
	}

	insts, err := m.Instructions()
	if errors.Is(err, meta.ErrNoBody) {
		return fmt.Errorf("%s has no body", m.Path())
	}
	pathColor.Fprintln(output, m.Path())
	for _, inst := range insts {
		fmt.Fprintf(output, "  %s\n", inst)
	}
	if err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}
