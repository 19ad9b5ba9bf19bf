package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skdltmxn/typemeta/meta"
)

var (
	dumpFormat string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <source>...",
	Short: "Dump all metadata of a source",
	Long: `Dump every assembly, type and merged member of a source in structured format.

Supported formats:
  - text: Human-readable text (default)
  - json: JSON format
  - yaml: YAML format`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format (text, json, yaml)")
}

type AssemblyDump struct {
	Name     string     `json:"name" yaml:"name"`
	FullName string     `json:"full_name" yaml:"fullName"`
	Types    []TypeDump `json:"types" yaml:"types"`
}

type TypeDump struct {
	Path         string       `json:"path" yaml:"path"`
	Definition   string       `json:"definition" yaml:"definition"`
	Modifier     string       `json:"modifier" yaml:"modifier"`
	Base         string       `json:"base,omitempty" yaml:"base,omitempty"`
	Interfaces   []string     `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Attributes   []string     `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Fields       []MemberDump `json:"fields,omitempty" yaml:"fields,omitempty"`
	Properties   []MemberDump `json:"properties,omitempty" yaml:"properties,omitempty"`
	Methods      []MemberDump `json:"methods,omitempty" yaml:"methods,omitempty"`
	Constructors []MemberDump `json:"constructors,omitempty" yaml:"constructors,omitempty"`
}

type MemberDump struct {
	Name       string `json:"name" yaml:"name"`
	Modifier   string `json:"modifier" yaml:"modifier"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	DeclaredIn string `json:"declared_in,omitempty" yaml:"declaredIn,omitempty"`
}

func runDump(cmd *cobra.Command, args []string) error {
	switch dumpFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format: %s", dumpFormat)
	}

	s, err := openSource(cmd.Context(), args)
	if err != nil {
		return err
	}
	for _, a := range s.assemblies {
		if err := a.Warm(cmd.Context()); err != nil {
			return err
		}
	}

	dump := make([]AssemblyDump, len(s.assemblies))
	for i, a := range s.assemblies {
		dump[i] = dumpAssembly(a)
	}

	switch dumpFormat {
	case "json":
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	case "yaml":
		enc := yaml.NewEncoder(output)
		enc.SetIndent(2)
		if err := enc.Encode(dump); err != nil {
			return err
		}
		return enc.Close()
	}
	dumpText(dump)
	return nil
}

func dumpAssembly(a *meta.AssemblyData) AssemblyDump {
	d := AssemblyDump{Name: a.Name(), FullName: a.Path()}
	for _, t := range a.Types() {
		d.Types = append(d.Types, dumpType(t))
	}
	return d
}

func dumpType(t *meta.TypeData) TypeDump {
	d := TypeDump{
		Path:       t.Path(),
		Definition: t.Definition().String(),
		Modifier:   t.Modifier().String(),
	}
	if b := t.BaseType(); b != nil {
		d.Base = b.Path()
	}
	for _, i := range t.Interfaces() {
		d.Interfaces = append(d.Interfaces, i.Path())
	}
	for _, a := range t.Attributes() {
		d.Attributes = append(d.Attributes, a.Name())
	}

	member := func(m meta.Member, mod meta.Modifier, typ, declaring *meta.TypeData) MemberDump {
		md := MemberDump{Name: m.Name(), Modifier: mod.String()}
		if typ != nil {
			md.Type = typ.Path()
		}
		if declaring != nil && declaring != t {
			md.DeclaredIn = declaring.Path()
		}
		return md
	}
	for _, f := range t.Fields() {
		d.Fields = append(d.Fields, member(f, f.Modifier(), f.FieldType(), f.DeclaringType()))
	}
	for _, p := range t.Properties() {
		d.Properties = append(d.Properties, member(p, p.Modifier(), p.PropertyType(), p.DeclaringType()))
	}
	for _, m := range t.Methods() {
		d.Methods = append(d.Methods, member(m, m.Modifier(), m.ReturnType(), m.DeclaringType()))
	}
	for _, c := range t.Constructors() {
		d.Constructors = append(d.Constructors, member(c, c.Modifier(), nil, nil))
	}
	return d
}

func dumpText(dump []AssemblyDump) {
	for _, a := range dump {
		keyColor.Fprintf(output, "=== %s ===\n", a.FullName)
		for _, t := range a.Types {
			fmt.Fprintln(output)
			pathColor.Fprintln(output, t.Path)
			fmt.Fprintf(output, "  %s %s", t.Modifier, t.Definition)
			if t.Base != "" {
				fmt.Fprintf(output, " : %s", t.Base)
			}
			fmt.Fprintln(output)
			for _, i := range t.Interfaces {
				fmt.Fprintf(output, "  implements %s\n", i)
			}
			for _, attr := range t.Attributes {
				fmt.Fprintf(output, "  [%s]\n", attr)
			}
			dumpMembers("field", t.Fields)
			dumpMembers("property", t.Properties)
			dumpMembers("method", t.Methods)
			dumpMembers("ctor", t.Constructors)
		}
		fmt.Fprintln(output)
	}
}

func dumpMembers(kind string, ms []MemberDump) {
	for _, m := range ms {
		fmt.Fprintf(output, "  %-8s %-28s %s", kind, m.Modifier, m.Name)
		if m.Type != "" {
			fmt.Fprintf(output, " %s", m.Type)
		}
		if m.DeclaredIn != "" {
			fmt.Fprintf(output, " (from %s)", m.DeclaredIn)
		}
		fmt.Fprintln(output)
	}
}
