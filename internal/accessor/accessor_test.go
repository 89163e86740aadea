package accessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/agentic-research/kgstore/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	graph  Graph
	vis    Visualization
	nlu    NLU
	visErr error
	calls  []string
}

func (s *stubLoader) LoadGraph(_ context.Context, name string) (Graph, error) {
	s.calls = append(s.calls, "graph:"+name)
	return s.graph, nil
}

func (s *stubLoader) LoadVisualizationConfigs(_ context.Context, name string) (Visualization, error) {
	s.calls = append(s.calls, "vis:"+name)
	return s.vis, s.visErr
}

func (s *stubLoader) LoadNLU(_ context.Context, name string) (NLU, error) {
	s.calls = append(s.calls, "nlu:"+name)
	return s.nlu, nil
}

func TestLoadAll_IndependentDomains(t *testing.T) {
	l := &stubLoader{
		graph: Graph{Found: true, Vertices: []api.Vertex{{ID: "v1"}}},
		nlu:   NLU{Found: true, IntentRules: []api.NLUIntentRule{{ID: "r1"}}},
	}

	ds, err := LoadAll(context.Background(), l, "ds1")
	require.NoError(t, err)

	assert.Equal(t, []string{"graph:ds1", "vis:ds1", "nlu:ds1"}, l.calls)
	assert.True(t, ds.Graph.Found)
	assert.False(t, ds.Visualization.Found)
	assert.True(t, ds.NLU.Found)
	assert.True(t, ds.Found())
}

func TestLoadAll_ErrorDoesNotBlockOtherDomains(t *testing.T) {
	visErr := NewError("LoadVisualizationConfigs", KindCorrupt, "ds1", ErrCorrupt)
	l := &stubLoader{
		graph:  Graph{Found: true},
		nlu:    NLU{Found: true},
		visErr: visErr,
	}

	ds, err := LoadAll(context.Background(), l, "ds1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.True(t, ds.Graph.Found)
	assert.True(t, ds.NLU.Found)
	assert.Len(t, l.calls, 3)
}

func TestLoadAll_NothingFound(t *testing.T) {
	ds, err := LoadAll(context.Background(), &stubLoader{}, "")
	require.NoError(t, err)
	assert.False(t, ds.Found())
}

func TestError_KindMatching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError("DeleteDatastore", KindNotFound, "ds1", ErrNotOwner))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindIOFailure))
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, err, &Error{Kind: KindNotFound})
	assert.ErrorIs(t, err, &Error{Op: "DeleteDatastore", Kind: KindNotFound})
	assert.NotErrorIs(t, err, &Error{Op: "AddDatastore", Kind: KindNotFound})

	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), `DeleteDatastore "ds1" (not_found)`)
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "ds1", true},
		{"dashes and dots inside", "team-a.v2", true},
		{"unicode", "知识图谱", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"hidden", ".owner", false},
		{"slash", "a/b", false},
		{"traversal", "../etc", false},
		{"backslash", `a\b`, false},
		{"nul", "a\x00b", false},
		{"padded", " ds1 ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("datastore", tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidName)
			}
		})
	}
}

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("ds1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, km.Len(), "entries must be released")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("b")
		unlock()
		close(done)
	}()
	<-done
	assert.Equal(t, 1, km.Len())
}
