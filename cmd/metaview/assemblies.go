package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	assembliesAttributes bool
)

var assembliesCmd = &cobra.Command{
	Use:   "assemblies <source>...",
	Short: "List the assemblies of a source",
	Long: `List the assemblies a source declares: one per manifest, or one per Go
package matched by the patterns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssemblies,
}

func init() {
	assembliesCmd.Flags().BoolVarP(&assembliesAttributes, "attributes", "a", false, "show assembly attributes")
}

func runAssemblies(cmd *cobra.Command, args []string) error {
	s, err := openSource(cmd.Context(), args)
	if err != nil {
		return err
	}

	tbl := newTable("NAME", "TYPES", "FULL NAME")
	for _, a := range s.assemblies {
		tbl.add(a.Name(), strconv.Itoa(len(a.Types())), a.Path())
	}
	tbl.render(output)

	if assembliesAttributes {
		for _, a := range s.assemblies {
			attrs := a.Attributes()
			if len(attrs) == 0 {
				continue
			}
			fmt.Fprintln(output)
			pathColor.Fprintln(output, a.Path())
			for _, attr := range attrs {
				fmt.Fprintf(output, "  %s = %v\n", attr.Name(), attr.Value())
			}
		}
	}

	fmt.Fprintf(output, "\nTotal: %d assemblies\n", len(s.assemblies))
	return nil
}
