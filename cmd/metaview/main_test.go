package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shop = "testdata/shop.yaml"

// run executes the root command with output redirected to a file and
// returns what was written.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	assembliesAttributes = false
	typesKind, typesLimit = "", 0
	membersKind, membersDeclared = "", false
	ilCalls = false
	dumpFormat = "text"
	configFile, verbose = "", false

	out := filepath.Join(t.TempDir(), "out.txt")
	rootCmd.SetArgs(append([]string{"-o", out}, args...))
	err := rootCmd.Execute()
	data, readErr := os.ReadFile(out)
	if readErr != nil && err == nil {
		require.NoError(t, readErr)
	}
	return string(data), err
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "neo4j://localhost:7687", c.Neo4j.URI)
	assert.Equal(t, 256, c.Cache.Instructions)
	assert.True(t, c.Output.Color)

	path := filepath.Join(t.TempDir(), "metaview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("neo4j:\n  username: reader\ncache:\n  instructions: 8\n"), 0o600))
	t.Setenv("METAVIEW_NEO4J_URI", "bolt://graph:7687")
	c, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://graph:7687", c.Neo4j.URI)
	assert.Equal(t, "reader", c.Neo4j.Username)
	assert.Equal(t, 8, c.Cache.Instructions)

	require.NoError(t, os.WriteFile(path, []byte("cache:\n  instructions: -1\n"), 0o600))
	_, err = loadConfig(path)
	assert.Error(t, err)
}

func TestAssembliesAndTypes(t *testing.T) {
	out, err := run(t, "assemblies", "-a", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "Shop, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null")
	assert.Contains(t, out, "Total: 1 assemblies")

	out, err = run(t, "types", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "Shop.Book")
	assert.Contains(t, out, "Total: 3 types")

	out, err = run(t, "types", "--kind", "interface", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "Shop.IPriced")
	assert.NotContains(t, out, "Shop.Book")

	_, err = run(t, "types", "--kind", "union", shop)
	assert.ErrorContains(t, err, "unknown type kind")
}

func TestMembersAndInfo(t *testing.T) {
	out, err := run(t, "members", "Shop.Book", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "Tax")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "Shop.Item")
	assert.NotContains(t, out, "cost")

	out, err = run(t, "members", "--declared", "Shop.Book", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "Total")
	assert.NotContains(t, out, "Tax")

	out, err = run(t, "info", "Shop.Item", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "Shop.IPriced")
	assert.Contains(t, out, "System.Object")

	_, err = run(t, "info", "Shop.Missing", shop)
	assert.ErrorContains(t, err, "type not found")
}

func TestIL(t *testing.T) {
	out, err := run(t, "il", "Shop.Book.Total", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "IL_0000: call Shop.Item.Tax")
	assert.Contains(t, out, "ret")

	out, err = run(t, "il", "--calls", "Shop.Book.Total", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "Shop.Item.Tax")

	_, err = run(t, "il", "Shop.Item.ctor", shop)
	assert.ErrorContains(t, err, "has no body")
}

func TestDump(t *testing.T) {
	out, err := run(t, "dump", "--format", "json", shop)
	require.NoError(t, err)
	var dump []AssemblyDump
	require.NoError(t, json.Unmarshal([]byte(out), &dump))
	require.Len(t, dump, 1)
	assert.Len(t, dump[0].Types, 3)

	out, err = run(t, "dump", "--format", "yaml", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "fullName:")
	assert.Contains(t, out, "path: Shop.Book")

	out, err = run(t, "dump", shop)
	require.NoError(t, err)
	assert.Contains(t, out, "(from Shop.Item)")

	_, err = run(t, "dump", "--format", "xml", shop)
	assert.ErrorContains(t, err, "unknown format")
}
