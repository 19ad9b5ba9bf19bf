package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/typemeta/meta"
)

var (
	typesKind  string
	typesLimit int
)

var typesCmd = &cobra.Command{
	Use:   "types <source>...",
	Short: "List the types of a source",
	Long: `List the types declared by a source's assemblies.

Use --kind to filter by definition (class, interface, value, primitive, enum, generic).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTypes,
}

func init() {
	typesCmd.Flags().StringVarP(&typesKind, "kind", "k", "", "filter by definition (class, interface, value, primitive, enum, generic)")
	typesCmd.Flags().IntVarP(&typesLimit, "limit", "n", 0, "limit number of types shown (0 = unlimited)")
}

func parseKind(kind string) (meta.DefinitionFlags, error) {
	switch strings.ToLower(kind) {
	case "class":
		return meta.Class, nil
	case "interface":
		return meta.Interface, nil
	case "value", "struct":
		return meta.Value, nil
	case "primitive":
		return meta.Primitive, nil
	case "enum":
		return meta.Enum, nil
	case "generic":
		return meta.Generic, nil
	}
	return 0, fmt.Errorf("unknown type kind: %s", kind)
}

func runTypes(cmd *cobra.Command, args []string) error {
	var filter meta.DefinitionFlags
	if typesKind != "" {
		var err error
		if filter, err = parseKind(typesKind); err != nil {
			return err
		}
	}

	s, err := openSource(cmd.Context(), args)
	if err != nil {
		return err
	}

	tbl := newTable("PATH", "DEFINITION", "MODIFIER", "ASSEMBLY")
	count := 0
	for _, t := range s.types() {
		if filter != 0 && !matchesKind(t.Definition(), filter) {
			continue
		}
		tbl.add(t.Path(), t.Definition().String(), t.Modifier().String(), t.Assembly().Name())
		count++
		if typesLimit > 0 && count >= typesLimit {
			break
		}
	}
	tbl.render(output)

	fmt.Fprintf(output, "\nTotal: %d types\n", count)
	return nil
}

// matchesKind reports whether d has every bit of a refined kind such as
// Enum, or any bit of a grouping such as Generic.
func matchesKind(d meta.Definition, kind meta.DefinitionFlags) bool {
	if kind == meta.Generic {
		return d.Any(kind)
	}
	return d.All(kind)
}
