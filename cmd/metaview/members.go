package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/typemeta/meta"
)

var (
	membersKind     string
	membersDeclared bool
)

var membersCmd = &cobra.Command{
	Use:   "members <type> <source>...",
	Short: "List the members of a type",
	Long: `List the merged members of a type: its own fields, properties, methods
and constructors followed by what it inherits.

Use --kind to show one kind only (field, property, method, constructor).`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMembers,
}

func init() {
	membersCmd.Flags().StringVarP(&membersKind, "kind", "k", "", "filter by member kind (field, property, method, constructor)")
	membersCmd.Flags().BoolVarP(&membersDeclared, "declared", "d", false, "hide inherited members")
}

func typePath(t *meta.TypeData) string {
	if t == nil {
		return "-"
	}
	return t.Path()
}

func runMembers(cmd *cobra.Command, args []string) error {
	kind := strings.ToLower(membersKind)
	switch kind {
	case "", "field", "property", "method", "constructor":
	default:
		return fmt.Errorf("unknown member kind: %s", membersKind)
	}

	s, err := openSource(cmd.Context(), args[1:])
	if err != nil {
		return err
	}
	t, err := s.lookupType(args[0])
	if err != nil {
		return err
	}

	tbl := newTable("KIND", "MODIFIER", "NAME", "TYPE", "DECLARED IN")
	add := func(k meta.MemberKind, mod meta.Modifier, name string, typ, declaring *meta.TypeData) {
		if kind != "" && k.String() != kind {
			return
		}
		if membersDeclared && declaring != t {
			return
		}
		tbl.add(k.String(), mod.String(), name, typePath(typ), typePath(declaring))
	}

	for _, f := range t.Fields() {
		add(meta.KindField, f.Modifier(), f.Name(), f.FieldType(), f.DeclaringType())
	}
	for _, p := range t.Properties() {
		add(meta.KindProperty, p.Modifier(), p.Name(), p.PropertyType(), p.DeclaringType())
	}
	for _, m := range t.Methods() {
		add(meta.KindMethod, m.Modifier(), m.Name(), m.ReturnType(), m.DeclaringType())
	}
	for _, c := range t.Constructors() {
		add(meta.KindConstructor, c.Modifier(), c.Name(), nil, c.DeclaringType())
	}

	pathColor.Fprintln(output, t.Describe())
	fmt.Fprintln(output)
	tbl.render(output)
	fmt.Fprintf(output, "\nTotal: %d members\n", len(tbl.rows))
	return nil
}
