package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/kgstore/internal/accessor"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

var exportTree = map[string]string{
	"KG/graph.json": `{"vertexes": [{"id": "v1", "name": "Alice", "label": "Person"}],
		"edges": [{"relationType": "knows", "headVertexId": "v1", "tailVertexId": "v1"}]}`,
	"NLU/nlu.json": `{"intentRules": [{"id": "r1", "intentName": "who"}], "entities": [], "entityAttributes": []}`,
	"Visulization/VisulizationConfig_chat.json": `[{"scenario": "chat", "labelsOfVertexes": []}]`,
}

func TestDatastoreCommands_FileBackend(t *testing.T) {
	root := t.TempDir()

	out, err := run(t, "--root", root, "datastore", "create", "ds1", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "created ds1")

	out, err = run(t, "--root", root, "datastore", "list")
	require.NoError(t, err)
	assert.Equal(t, "ds1\n", out)

	_, err = run(t, "--root", root, "datastore", "create", "ds1", "--user", "alice")
	assert.True(t, accessor.IsKind(err, accessor.KindAlreadyExists), "got %v", err)

	_, err = run(t, "--root", root, "datastore", "delete", "ds1", "--user", "bob")
	assert.ErrorIs(t, err, accessor.ErrNotOwner)

	_, err = run(t, "--root", root, "datastore", "delete", "ds1", "--user", "alice")
	require.NoError(t, err)

	out, err = run(t, "--root", root, "datastore", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDatastoreCreate_RequiresUser(t *testing.T) {
	_, err := run(t, "--root", t.TempDir(), "datastore", "create", "ds1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestColorSetAndLoad(t *testing.T) {
	root := t.TempDir()
	_, err := run(t, "--root", root, "datastore", "create", "ds1", "--user", "alice")
	require.NoError(t, err)

	colors := filepath.Join(t.TempDir(), "colors.json")
	require.NoError(t, os.WriteFile(colors, []byte(`[{"itemLabel": "Person", "color": "#ff0000"}]`), 0o644))

	out, err := run(t, "--root", root, "color", "set", "ds1", "chat", "--file", colors, "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "1 rules")

	out, err = run(t, "--root", root, "load", "ds1", "--domain", "visualization")
	require.NoError(t, err)
	var v accessor.Visualization
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.True(t, v.Found)
	require.Len(t, v.Configs, 1)
	assert.Equal(t, "#ff0000", v.Configs[0].LabelsOfVertexes[0].Color)
}

func TestLoad_AllDomains(t *testing.T) {
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "ds1"), exportTree)

	out, err := run(t, "--root", root, "load", "ds1")
	require.NoError(t, err)
	var ds accessor.Dataset
	require.NoError(t, json.Unmarshal([]byte(out), &ds))
	assert.True(t, ds.Graph.Found)
	assert.Len(t, ds.Graph.Vertices, 1)
	assert.Len(t, ds.NLU.IntentRules, 1)
	assert.Len(t, ds.Visualization.Configs, 1)
}

func TestLoad_MissingDatastorePrintsNotFound(t *testing.T) {
	out, err := run(t, "--root", t.TempDir(), "load", "nope", "--domain", "graph")
	require.NoError(t, err)
	var g accessor.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.False(t, g.Found)
}

func TestLoad_UnknownDomain(t *testing.T) {
	_, err := run(t, "--root", t.TempDir(), "load", "ds1", "--domain", "colors")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")
}

func TestUploadThenLoadFromSQLite(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, exportTree)
	db := filepath.Join(t.TempDir(), "kg.db")

	out, err := run(t, "--db", db, "upload", src, "--datastore", "ds1", "--owner", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, `"vertices": 1`)

	out, err = run(t, "--backend", "sqlite", "--db", db, "datastore", "list")
	require.NoError(t, err)
	assert.Equal(t, "ds1\n", out)

	out, err = run(t, "--backend", "sqlite", "--db", db, "load", "ds1", "--domain", "graph")
	require.NoError(t, err)
	var g accessor.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.True(t, g.Found)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "knows", g.Edges[0].Label)
}

func TestConfigFileAndFlagOverride(t *testing.T) {
	fileRoot := t.TempDir()
	flagRoot := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "kgstore.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`root = "`+filepath.ToSlash(fileRoot)+`"`+"\n"), 0o644))

	_, err := run(t, "--config", cfgPath, "datastore", "create", "fromfile", "--user", "alice")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(fileRoot, "fromfile"))
	assert.NoError(t, err)

	_, err = run(t, "--config", cfgPath, "--root", flagRoot, "datastore", "create", "fromflag", "--user", "alice")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(flagRoot, "fromflag"))
	assert.NoError(t, err)
}

func TestInvalidBackend(t *testing.T) {
	_, err := run(t, "--backend", "mongo", "datastore", "list")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown backend"), err.Error())
}
