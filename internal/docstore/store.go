// Package docstore implements accessor.DataAccessor over a SQLite document
// database. Every record is stored as a JSON body in a per-datastore
// collection; a datastores table is the management catalogue and records
// the owner explicitly.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/kgstore/api"
	"github.com/agentic-research/kgstore/internal/accessor"
)

// Collection names of the documents table.
const (
	CollVertexes         = "vertexes"
	CollEdges            = "edges"
	CollIntentRules      = "intentRules"
	CollEntities         = "entities"
	CollEntityAttributes = "entityAttributes"
)

const schema = `
CREATE TABLE IF NOT EXISTS datastores (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	owner TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	datastore TEXT NOT NULL REFERENCES datastores(name) ON DELETE CASCADE,
	collection TEXT NOT NULL,
	seq INTEGER NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (datastore, collection, seq)
);

CREATE TABLE IF NOT EXISTS visualization_configs (
	datastore TEXT NOT NULL REFERENCES datastores(name) ON DELETE CASCADE,
	scenario TEXT NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (datastore, scenario)
);
`

type Options struct {
	Logger *slog.Logger
}

// Store is the document-database DataAccessor.
type Store struct {
	db    *sql.DB
	log   *slog.Logger
	locks *accessor.KeyedMutex
}

var _ accessor.DataAccessor = (*Store)(nil)

// Open opens (creating if needed) the database at dbPath and applies the
// schema.
func Open(dbPath string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// SQLite serializes writers anyway; one connection keeps pragmas and
	// transactions on the same handle.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:    db,
		log:   logger.With("component", "docstore"),
		locks: accessor.NewKeyedMutex(),
	}, nil
}

// dsn builds the URI filename for dbPath. The path is percent-escaped so
// '?', '#' and '%' in it cannot reach the query string.
func dsn(dbPath string) string {
	q := url.Values{"_pragma": {"busy_timeout(10000)", "journal_mode(WAL)", "foreign_keys(ON)"}}
	return "file:" + (&url.URL{Path: dbPath}).EscapedPath() + "?" + q.Encode()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadGraph implements accessor.DataAccessor.
func (s *Store) LoadGraph(ctx context.Context, name string) (accessor.Graph, error) {
	const op = "LoadGraph"
	ok, err := s.registered(ctx, op, name)
	if err != nil || !ok {
		return accessor.Graph{}, err
	}
	vertices, err := loadCollection[api.Vertex](ctx, s.db, name, CollVertexes)
	if err != nil {
		return accessor.Graph{}, s.loadError(op, name, err)
	}
	edges, err := loadCollection[api.Edge](ctx, s.db, name, CollEdges)
	if err != nil {
		return accessor.Graph{}, s.loadError(op, name, err)
	}
	return accessor.Graph{Found: true, Vertices: vertices, Edges: edges}, nil
}

// LoadVisualizationConfigs implements accessor.DataAccessor.
func (s *Store) LoadVisualizationConfigs(ctx context.Context, name string) (accessor.Visualization, error) {
	const op = "LoadVisualizationConfigs"
	ok, err := s.registered(ctx, op, name)
	if err != nil || !ok {
		return accessor.Visualization{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM visualization_configs WHERE datastore = ? ORDER BY rowid`, name)
	if err != nil {
		return accessor.Visualization{}, s.loadError(op, name, err)
	}
	configs, err := decodeRows[api.VisualizationConfig](rows)
	if err != nil {
		return accessor.Visualization{}, s.loadError(op, name, err)
	}
	return accessor.Visualization{Found: true, Configs: configs}, nil
}

// LoadNLU implements accessor.DataAccessor.
func (s *Store) LoadNLU(ctx context.Context, name string) (accessor.NLU, error) {
	const op = "LoadNLU"
	ok, err := s.registered(ctx, op, name)
	if err != nil || !ok {
		return accessor.NLU{}, err
	}
	rules, err := loadCollection[api.NLUIntentRule](ctx, s.db, name, CollIntentRules)
	if err != nil {
		return accessor.NLU{}, s.loadError(op, name, err)
	}
	entities, err := loadCollection[api.EntityData](ctx, s.db, name, CollEntities)
	if err != nil {
		return accessor.NLU{}, s.loadError(op, name, err)
	}
	attrs, err := loadCollection[api.EntityAttributeData](ctx, s.db, name, CollEntityAttributes)
	if err != nil {
		return accessor.NLU{}, s.loadError(op, name, err)
	}
	return accessor.NLU{Found: true, IntentRules: rules, Entities: entities, EntityAttributes: attrs}, nil
}

// LoadAll implements accessor.DataAccessor.
func (s *Store) LoadAll(ctx context.Context, name string) (accessor.Dataset, error) {
	return accessor.LoadAll(ctx, s, name)
}

// registered reports whether name is in the catalogue. Blank and unknown
// names are logged and reported as absent.
func (s *Store) registered(ctx context.Context, op, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if accessor.IsBlank(name) {
		s.log.Warn("blank datastore name", "op", op)
		return false, nil
	}
	if err := accessor.ValidateName("datastore", name); err != nil {
		return false, accessor.NewError(op, accessor.KindInvalidInput, name, err)
	}
	_, ok, err := s.Datastore(ctx, name)
	if err != nil {
		return false, accessor.NewError(op, accessor.KindIOFailure, name, err)
	}
	if !ok {
		s.log.Warn("datastore not registered", "op", op, "datastore", name)
	}
	return ok, nil
}

// Datastore returns the catalogue record of name.
func (s *Store) Datastore(ctx context.Context, name string) (api.DatastoreItem, bool, error) {
	return lookup(ctx, s.db, name)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func lookup(ctx context.Context, q queryer, name string) (api.DatastoreItem, bool, error) {
	var item api.DatastoreItem
	err := q.QueryRowContext(ctx,
		`SELECT id, name, owner, created_at FROM datastores WHERE name = ?`, name,
	).Scan(&item.ID, &item.Name, &item.Owner, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return api.DatastoreItem{}, false, nil
	}
	if err != nil {
		return api.DatastoreItem{}, false, fmt.Errorf("lookup datastore %s: %w", name, err)
	}
	return item, true, nil
}

// errDecode marks a stored body that is not valid JSON for its type.
var errDecode = errors.New("decode document")

func (s *Store) loadError(op, name string, err error) error {
	if errors.Is(err, errDecode) {
		s.log.Error("corrupt document", "op", op, "datastore", name, "err", err)
		return accessor.NewError(op, accessor.KindCorrupt, name, fmt.Errorf("%w: %w", accessor.ErrCorrupt, err))
	}
	return accessor.NewError(op, accessor.KindIOFailure, name, err)
}

func loadCollection[T any](ctx context.Context, q queryer, ds, coll string) ([]T, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT body FROM documents WHERE datastore = ? AND collection = ? ORDER BY seq`, ds, coll)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", coll, err)
	}
	return decodeRows[T](rows)
}

// decodeRows decodes a single JSON body column into T per row and closes
// rows.
func decodeRows[T any](rows *sql.Rows) ([]T, error) {
	defer func() { _ = rows.Close() }()

	out := []T{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var rec T
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", errDecode, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
