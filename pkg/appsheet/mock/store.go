// Package mock provides an in-memory stand-in for the AppSheet Action API.
//
// A Store implements appsheet.Backend, so it plugs into
// appsheet.NewWithBackend for tests and local development, and it backs the
// sandbox HTTP server. Tables are declared with their key columns; Find
// understands Filter(<table>, <condition>) selectors; failures come back as
// *appsheet.HTTPError with the status codes the service uses.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
)

type record struct {
	number int
	data   appsheet.Row
}

type table struct {
	name    string
	keys    []string
	rows    []*record
	nextNum int
}

// Store is a mutex guarded set of tables.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides how keys are generated for added rows that lack
// their single key column.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string]*table),
		newID:  shortID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// shortID mimics the 8 character ids AppSheet generates with UNIQUEID().
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// DefineTable registers a table and its key columns, in declaration order.
// Redefining an existing table keeps its rows only if the keys are unchanged.
func (s *Store) DefineTable(name string, keyColumns ...string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("mock appsheet: table name is required")
	}
	if len(keyColumns) == 0 {
		return fmt.Errorf("mock appsheet: table %q needs at least one key column", name)
	}
	for _, col := range keyColumns {
		if strings.TrimSpace(col) == "" || isVirtual(col) {
			return fmt.Errorf("mock appsheet: table %q: invalid key column %q", name, col)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[name]; ok {
		if slices.Equal(t.keys, keyColumns) {
			return nil
		}
	}
	s.tables[name] = &table{
		name:    name,
		keys:    append([]string(nil), keyColumns...),
		nextNum: 2,
	}
	return nil
}

// Tables lists the defined table names in sorted order.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KeyColumns returns the key columns of a table.
func (s *Store) KeyColumns(name string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), t.keys...), true
}

// Rows returns a snapshot of a table as Find would return it.
func (s *Store) Rows(name string) ([]appsheet.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, notFound("table '%s' not found", name)
	}
	out := make([]appsheet.Row, 0, len(t.rows))
	for _, rec := range t.rows {
		out = append(out, t.view(rec))
	}
	return out, nil
}

// Do executes one action request against the named table.
func (s *Store) Do(ctx context.Context, name string, req *appsheet.ActionRequest) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, badRequest("request body is required")
	}
	if !req.Action.Valid() {
		return nil, badRequest("unsupported action '%s'", req.Action)
	}
	glog.V(2).Infof("[appsheet mock] %s %s rows=%d", req.Action, name, len(req.Rows))

	switch req.Action {
	case appsheet.ActionFind:
		s.mu.RLock()
		defer s.mu.RUnlock()
		t, err := s.table(name)
		if err != nil {
			return nil, err
		}
		rows, err := t.find(req.Properties.Selector)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		t, err := s.table(name)
		if err != nil {
			return nil, err
		}
		var rows []appsheet.Row
		switch req.Action {
		case appsheet.ActionAdd:
			rows, err = t.add(req.Rows, s.newID)
		case appsheet.ActionEdit:
			rows, err = t.edit(req.Rows)
		default:
			rows, err = t.delete(req.Rows)
		}
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"Rows": rows})
	}
}

func (s *Store) table(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, notFound("table '%s' not found", name)
	}
	return t, nil
}

func (t *table) find(selector string) ([]appsheet.Row, error) {
	var match predicate
	if strings.TrimSpace(selector) != "" {
		var err error
		match, err = compileSelector(t.name, selector)
		if err != nil {
			return nil, badRequest("invalid selector: %v", err)
		}
	}
	out := make([]appsheet.Row, 0, len(t.rows))
	for _, rec := range t.rows {
		view := t.view(rec)
		if match != nil {
			ok, err := match(view)
			if err != nil {
				return nil, badRequest("selector evaluation failed: %v", err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// add validates the whole batch before inserting any row.
func (t *table) add(rows []appsheet.Row, newID func() string) ([]appsheet.Row, error) {
	if len(rows) == 0 {
		return nil, badRequest("Add requires at least one row")
	}
	pending := make([]appsheet.Row, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, in := range rows {
		if _, ok := in[appsheet.ComputedKeyColumn]; ok {
			return nil, badRequest("row %d: %s cannot be written", i, appsheet.ComputedKeyColumn)
		}
		row := stripVirtual(in)
		if len(t.keys) == 1 && row[t.keys[0]] == "" {
			row[t.keys[0]] = newID()
		}
		key, err := t.keyOf(row)
		if err != nil {
			return nil, badRequest("row %d: %v", i, err)
		}
		if seen[key] || t.lookup(key) >= 0 {
			return nil, badRequest("row %d: a row with key '%s' already exists in table '%s'", i, key, t.name)
		}
		seen[key] = true
		pending = append(pending, row)
	}

	out := make([]appsheet.Row, 0, len(pending))
	for _, row := range pending {
		rec := &record{number: t.nextNum, data: row}
		t.nextNum++
		t.rows = append(t.rows, rec)
		out = append(out, t.view(rec))
	}
	return out, nil
}

// edit merges each row into the stored row with the same key. Fields that
// are not named keep their value.
func (t *table) edit(rows []appsheet.Row) ([]appsheet.Row, error) {
	if len(rows) == 0 {
		return nil, badRequest("Edit requires at least one row")
	}
	type change struct {
		rec    *record
		merged appsheet.Row
	}
	changes := make([]change, 0, len(rows))
	for i, in := range rows {
		if _, ok := in[appsheet.ComputedKeyColumn]; ok {
			return nil, badRequest("row %d: %s cannot be written", i, appsheet.ComputedKeyColumn)
		}
		patch := stripVirtual(in)
		key, err := t.keyOf(patch)
		if err != nil {
			return nil, badRequest("row %d: %v", i, err)
		}
		idx := t.lookup(key)
		if idx < 0 {
			return nil, notFound("row with key '%s' not found in table '%s'", key, t.name)
		}
		merged, err := mergeRow(t.rows[idx].data, patch)
		if err != nil {
			return nil, badRequest("row %d: %v", i, err)
		}
		changes = append(changes, change{rec: t.rows[idx], merged: merged})
	}

	out := make([]appsheet.Row, 0, len(changes))
	for _, c := range changes {
		c.rec.data = c.merged
		out = append(out, t.view(c.rec))
	}
	return out, nil
}

func (t *table) delete(rows []appsheet.Row) ([]appsheet.Row, error) {
	if len(rows) == 0 {
		return nil, badRequest("Delete requires at least one row")
	}
	keys := make([]string, 0, len(rows))
	for i, in := range rows {
		if _, ok := in[appsheet.ComputedKeyColumn]; ok {
			return nil, badRequest("row %d: %s cannot be written", i, appsheet.ComputedKeyColumn)
		}
		key, err := t.keyOf(in)
		if err != nil {
			return nil, badRequest("row %d: %v", i, err)
		}
		if t.lookup(key) < 0 {
			return nil, notFound("row with key '%s' not found in table '%s'", key, t.name)
		}
		keys = append(keys, key)
	}

	out := make([]appsheet.Row, 0, len(keys))
	for _, key := range keys {
		idx := t.lookup(key)
		if idx < 0 {
			continue
		}
		out = append(out, t.view(t.rows[idx]))
		t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	}
	return out, nil
}

func (t *table) keyOf(row appsheet.Row) (string, error) {
	values := make([]any, len(t.keys))
	for i, col := range t.keys {
		v, ok := row[col]
		if !ok {
			return "", fmt.Errorf("key column '%s' is missing", col)
		}
		values[i] = v
	}
	return appsheet.BuildCompositeKey(values...)
}

func (t *table) lookup(key string) int {
	for i, rec := range t.rows {
		if k, err := t.keyOf(rec.data); err == nil && k == key {
			return i
		}
	}
	return -1
}

// view returns a copy of the record with the platform columns filled in.
func (t *table) view(rec *record) appsheet.Row {
	out := rec.data.Clone()
	if out == nil {
		out = appsheet.Row{}
	}
	out[appsheet.RowNumberColumn] = strconv.Itoa(rec.number)
	if len(t.keys) > 1 {
		if key, err := t.keyOf(rec.data); err == nil {
			out[appsheet.ComputedKeyColumn] = key
		}
	}
	return out
}

func mergeRow(current, patch appsheet.Row) (appsheet.Row, error) {
	doc, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	delta, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(doc, delta)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	var out appsheet.Row
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isVirtual(col string) bool {
	return col == appsheet.RowNumberColumn || col == appsheet.ComputedKeyColumn
}

func stripVirtual(row appsheet.Row) appsheet.Row {
	out := make(appsheet.Row, len(row))
	for col, v := range row {
		if isVirtual(col) {
			continue
		}
		out[col] = v
	}
	return out
}

func badRequest(format string, args ...any) *appsheet.HTTPError {
	return httpError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) *appsheet.HTTPError {
	return httpError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

// httpError builds the problem document the service answers with.
func httpError(status int, detail string) *appsheet.HTTPError {
	doc := map[string]any{
		"status": status,
		"title":  http.StatusText(status),
		"detail": detail,
	}
	body, _ := json.Marshal(doc)
	var decoded any
	_ = json.Unmarshal(body, &decoded)
	return &appsheet.HTTPError{
		StatusCode: status,
		Body:       body,
		Header:     http.Header{"Content-Type": {"application/json"}},
		JSON:       decoded,
	}
}
