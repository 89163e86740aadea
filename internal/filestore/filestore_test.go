package filestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/kgstore/internal/accessor"
)

var ctx = context.Background()

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAccessor(t *testing.T, opts Options) (*Accessor, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	opts.Logger = quietLogger()
	return New(fs, opts), fs
}

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
}

// seedDatastore writes one file per domain under name.
func seedDatastore(t *testing.T, fs billy.Filesystem, name string) {
	t.Helper()
	writeFile(t, fs, filepath.Join(name, GraphDir, "graph.json"), `{
		"vertexes": [
			{"id": "v1", "name": "Alice", "label": "Person"},
			{"id": "v2", "name": "Acme", "label": "Company"}
		],
		"edges": [{"relationType": "worksAt", "headVertexId": "v1", "tailVertexId": "v2"}]
	}`)
	writeFile(t, fs, filepath.Join(name, NLUDir, "nlu.json"), `{
		"intentRules": [{"id": "r1", "intentName": "who", "type": "POSITIVE", "ruleSecs": ["who is"]}],
		"entities": [{"intentName": "who", "entityValue": "Alice", "entityType": "person"}],
		"entityAttributes": [{"intentName": "who", "entityValue": "Alice", "attributeName": "age", "attributeValue": "30"}]
	}`)
	writeFile(t, fs, filepath.Join(name, VisualizationDir, "VisulizationConfig_chat.json"), `[
		{"scenario": "chat", "labelsOfVertexes": [{"itemLabel": "Person", "color": "#ff0000"}]}
	]`)
}

// snapshot lists every path under the root with its size.
func snapshot(t *testing.T, fs billy.Filesystem) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	err := util.Walk(fs, ".", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		out[p] = info.Size()
		return nil
	})
	require.NoError(t, err)
	return out
}

// countingFS counts read-side filesystem calls.
type countingFS struct {
	billy.Filesystem
	calls atomic.Int32
}

func (c *countingFS) Stat(p string) (os.FileInfo, error) {
	c.calls.Add(1)
	return c.Filesystem.Stat(p)
}

func (c *countingFS) ReadDir(p string) ([]os.FileInfo, error) {
	c.calls.Add(1)
	return c.Filesystem.ReadDir(p)
}

func (c *countingFS) Open(p string) (billy.File, error) {
	c.calls.Add(1)
	return c.Filesystem.Open(p)
}

// failFS fails MkdirAll or Remove on one path each.
type failFS struct {
	billy.Filesystem
	failMkdir  string
	failRemove string
}

var errInjected = errors.New("injected failure")

func (f *failFS) MkdirAll(p string, perm os.FileMode) error {
	if f.failMkdir != "" && filepath.Clean(p) == f.failMkdir {
		return errInjected
	}
	return f.Filesystem.MkdirAll(p, perm)
}

func (f *failFS) Remove(p string) error {
	if f.failRemove != "" && filepath.Clean(p) == f.failRemove {
		return errInjected
	}
	return f.Filesystem.Remove(p)
}

func TestLoad_BlankNameNeverTouchesFilesystem(t *testing.T) {
	cfs := &countingFS{Filesystem: memfs.New()}
	a := New(cfs, Options{Logger: quietLogger()})

	for _, name := range []string{"", " ", "\t\n"} {
		g, err := a.LoadGraph(ctx, name)
		require.NoError(t, err)
		assert.False(t, g.Found)

		v, err := a.LoadVisualizationConfigs(ctx, name)
		require.NoError(t, err)
		assert.False(t, v.Found)

		n, err := a.LoadNLU(ctx, name)
		require.NoError(t, err)
		assert.False(t, n.Found)

		ds, err := a.LoadAll(ctx, name)
		require.NoError(t, err)
		assert.False(t, ds.Found())
	}
	assert.Zero(t, cfs.calls.Load())
}

func TestLoad_MissingDatastore(t *testing.T) {
	a, _ := newTestAccessor(t, Options{})

	g, err := a.LoadGraph(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, g.Found)
	assert.Empty(t, g.Vertices)

	ds, err := a.LoadAll(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ds.Found())
}

func TestLoad_AllDomains(t *testing.T) {
	a, fs := newTestAccessor(t, Options{})
	seedDatastore(t, fs, "ds1")

	ds, err := a.LoadAll(ctx, "ds1")
	require.NoError(t, err)

	require.True(t, ds.Graph.Found)
	assert.Len(t, ds.Graph.Vertices, 2)
	assert.Len(t, ds.Graph.Edges, 1)

	require.True(t, ds.Visualization.Found)
	require.Len(t, ds.Visualization.Configs, 1)
	assert.Equal(t, "chat", ds.Visualization.Configs[0].Scenario)

	require.True(t, ds.NLU.Found)
	assert.Len(t, ds.NLU.IntentRules, 1)
	assert.Len(t, ds.NLU.Entities, 1)
	assert.Len(t, ds.NLU.EntityAttributes, 1)
}

func TestLoad_FoundButEmptyDomain(t *testing.T) {
	a, fs := newTestAccessor(t, Options{})
	require.NoError(t, fs.MkdirAll("ds1/KG", 0o755))

	g, err := a.LoadGraph(ctx, "ds1")
	require.NoError(t, err)
	assert.True(t, g.Found)
	assert.Empty(t, g.Vertices)

	n, err := a.LoadNLU(ctx, "ds1")
	require.NoError(t, err)
	assert.False(t, n.Found)
}

func TestLoadAll_CorruptDomainDoesNotBlockOthers(t *testing.T) {
	a, fs := newTestAccessor(t, Options{})
	seedDatastore(t, fs, "ds1")
	writeFile(t, fs, "ds1/KG/broken.json", `{"vertexes": [`)

	ds, err := a.LoadAll(ctx, "ds1")
	require.Error(t, err)
	assert.ErrorIs(t, err, accessor.ErrCorrupt)
	assert.True(t, accessor.IsKind(err, accessor.KindCorrupt))

	assert.False(t, ds.Graph.Found)
	assert.True(t, ds.Visualization.Found)
	assert.True(t, ds.NLU.Found)
}

func TestLoad_UnsafeName(t *testing.T) {
	a, _ := newTestAccessor(t, Options{})
	for _, name := range []string{"../x", "a/b", ".hidden"} {
		_, err := a.LoadGraph(ctx, name)
		assert.True(t, accessor.IsKind(err, accessor.KindInvalidInput), name)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	a, fs := newTestAccessor(t, Options{})
	seedDatastore(t, fs, "ds1")

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := a.LoadGraph(cctx, "ds1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseListMode(t *testing.T) {
	m, err := ParseListMode("")
	require.NoError(t, err)
	assert.Equal(t, ListCanonical, m)

	m, err = ParseListMode("all")
	require.NoError(t, err)
	assert.Equal(t, ListAll, m)

	_, err = ParseListMode("mirrors")
	assert.Error(t, err)
}

func TestLayout(t *testing.T) {
	var l Layout
	assert.Equal(t, "ds1", l.Canonical("ds1"))
	assert.Equal(t, filepath.Join("ds1", "KG"), l.Graph("ds1"))
	assert.Equal(t, filepath.Join("ds1", "Visulization"), l.Visualization("ds1"))
	assert.Equal(t, filepath.Join("ds1", "NLU"), l.NLU("ds1"))
	assert.Equal(t, filepath.Join("alice", "ds1"), l.Mirror("alice", "ds1"))
	assert.Equal(t, filepath.Join("alice", ".owner"), l.Owner("alice"))
	assert.Equal(t, filepath.Join("ds1", ".lock"), l.Lock("ds1"))
	assert.Equal(t, filepath.Join("ds1", "Visulization", "VisulizationConfig_chat.json"), l.VisualizationFile("ds1", "chat"))
}
