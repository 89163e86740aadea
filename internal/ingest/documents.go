package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/oj"
)

// ErrMalformed wraps every failure to decode a source file.
var ErrMalformed = errors.New("malformed source file")

// document is one decoded JSON file of a domain directory.
type document struct {
	Path string
	Root any
}

// readDocuments decodes every *.json regular file directly under dir whose
// base name passes keep (nil keeps all), in name order. A missing dir is
// not an error.
func readDocuments(fs billy.Filesystem, dir string, keep func(name string) bool) ([]document, error) {
	infos, err := fs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	var docs []document
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}
		if keep != nil && !keep(name) {
			continue
		}

		p := fs.Join(dir, name)
		data, err := util.ReadFile(fs, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			continue // an empty file holds no records
		}
		root, err := oj.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, p, err)
		}
		docs = append(docs, document{Path: p, Root: root})
	}
	return docs, nil
}

// selectAll runs selector over every document and decodes the matches into
// T, preserving file order then document order.
func selectAll[T any](w Walker, docs []document, selector string) ([]T, error) {
	out := []T{}
	for _, d := range docs {
		matches, err := w.Query(d.Root, selector)
		if err != nil {
			return nil, err
		}
		recs, err := decodeMatches[T](matches)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, d.Path, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}
