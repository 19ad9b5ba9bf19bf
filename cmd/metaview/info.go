package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/typemeta/meta"
)

var infoCmd = &cobra.Command{
	Use:   "info <type> <source>...",
	Short: "Display type information",
	Long:  `Display the classification, hierarchy, generic shape and attributes of a type.`,
	Args:  cobra.MinimumNArgs(2),
	RunE:  runInfo,
}

func paths(ts []*meta.TypeData) string {
	if len(ts) == 0 {
		return "-"
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Path()
	}
	return strings.Join(out, ", ")
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := openSource(cmd.Context(), args[1:])
	if err != nil {
		return err
	}
	t, err := s.lookupType(args[0])
	if err != nil {
		return err
	}

	keyValue(output, "Type", pathColor.Sprint(t.Path()))
	keyValue(output, "Name", t.Name())
	if a := t.Assembly(); a != nil {
		keyValue(output, "Assembly", a.Path())
	}
	keyValue(output, "Definition", t.Definition())
	keyValue(output, "Modifier", t.Modifier())
	keyValue(output, "Nullable", t.IsNullable())
	keyValue(output, "Base", typePath(t.BaseType()))
	keyValue(output, "Interfaces", paths(t.Interfaces()))
	if d := t.DeclaringType(); d != nil {
		keyValue(output, "Declared in", d.Path())
	}
	if t.IsGenericType() {
		keyValue(output, "Arguments", paths(t.GenericArguments()))
		keyValue(output, "Definition of", typePath(t.GenericTypeDefinition()))
	}
	if t.IsGenericParameter() {
		keyValue(output, "Constraints", paths(t.GenericParameterConstraints()))
	}

	var attrs []string
	for _, a := range t.Attributes() {
		attrs = append(attrs, a.Name())
	}
	keyValue(output, "Attributes", orDash(strings.Join(attrs, ", ")))

	keyValue(output, "Fields", len(t.Fields()))
	keyValue(output, "Properties", len(t.Properties()))
	keyValue(output, "Methods", len(t.Methods()))
	keyValue(output, "Constructors", len(t.Constructors()))
	return nil
}
