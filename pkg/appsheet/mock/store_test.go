package mock_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet/mock"
)

const seedYAML = `
tables:
  - name: Tasks
    keys: [ID]
    rows:
      - {ID: "1", Title: Write docs, Status: Open, Priority: 2}
      - {ID: "2", Title: Ship release, Status: Done, Priority: 10}
      - {ID: "3", Title: Fix bug, Status: Open, Priority: 5}
  - name: Invoice Lines
    keys: [InvoiceID, Line]
    rows:
      - {InvoiceID: INV-1, Line: 1, Qty: 3}
      - {InvoiceID: INV-1, Line: 2, Qty: 1}
`

func seededClient(t *testing.T, opts ...mock.Option) (*appsheet.Client, *mock.Store) {
	t.Helper()
	store := mock.New(opts...)
	sf, err := mock.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.NoError(t, store.Seed(sf))
	return appsheet.NewWithBackend(appsheet.Config{AppID: "app"}, store), store
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var herr *appsheet.HTTPError
	require.True(t, errors.As(err, &herr), "expected *HTTPError, got %T: %v", err, err)
	return herr.StatusCode
}

func TestFindAllAddsPlatformColumns(t *testing.T) {
	client, _ := seededClient(t)
	ctx := context.Background()

	rows, err := client.FindAll(ctx, "Tasks")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "1", rows[0]["ID"])
	assert.Equal(t, "2", rows[0][appsheet.RowNumberColumn])
	assert.Equal(t, "2", rows[0]["Priority"])
	assert.NotContains(t, rows[0], appsheet.ComputedKeyColumn)

	lines, err := client.FindAll(ctx, "Invoice Lines")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "INV-1: 2", lines[1][appsheet.ComputedKeyColumn])
}

func TestFindSelector(t *testing.T) {
	client, _ := seededClient(t)
	ctx := context.Background()

	cases := []struct {
		selector string
		wantIDs  []string
	}{
		{appsheet.BuildSelector("Tasks", "Status", "Open"), []string{"1", "3"}},
		{appsheet.BuildSelector("Tasks", "Status", "open"), []string{"1", "3"}},
		{appsheet.BuildSelectorOp("Tasks", "Priority", appsheet.OpGreaterOrEqual, 5), []string{"2", "3"}},
		{appsheet.BuildSelectorOp("Tasks", "Status", appsheet.OpNotEqual, "Open"), []string{"2"}},
		{`Filter(Tasks, AND([Status] = "Open", [Priority] > 3))`, []string{"3"}},
		{`Filter(Tasks, OR([ID] = 1, [ID] = 2))`, []string{"1", "2"}},
		{`Filter(Tasks, NOT([Status] = 'Open'))`, []string{"2"}},
		{`Filter(Tasks, CONTAINS([Title], 'BUG'))`, []string{"3"}},
		{`Filter(Tasks, contains([Title], "s"))`, []string{"1", "2"}},
		{`Filter(Tasks, AND(CONTAINS([Title], 'e'), NOT(CONTAINS([Title], 'docs'))))`, []string{"2"}},
		{`Filter(Tasks, ISNOTBLANK([Title]))`, []string{"1", "2", "3"}},
		{`Filter(Tasks, ISBLANK([Missing]))`, []string{"1", "2", "3"}},
		{`Filter(Tasks, [Owner] = 'nobody')`, nil},
	}
	for _, tc := range cases {
		rows, err := client.Find(ctx, "Tasks", &appsheet.Query{Selector: tc.selector})
		require.NoError(t, err, tc.selector)
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row["ID"])
		}
		if tc.wantIDs == nil {
			assert.Empty(t, ids, tc.selector)
			continue
		}
		assert.Equal(t, tc.wantIDs, ids, tc.selector)
	}
}

func TestFindComputedKeySelector(t *testing.T) {
	client, _ := seededClient(t)

	key, err := appsheet.BuildCompositeKey("INV-1", 2)
	require.NoError(t, err)
	rows, err := client.Find(context.Background(), "Invoice Lines", &appsheet.Query{
		Selector: appsheet.BuildSelector("Invoice Lines", appsheet.ComputedKeyColumn, key),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["Qty"])
}

func TestFindInvalidSelector(t *testing.T) {
	client, _ := seededClient(t)
	ctx := context.Background()

	for _, sel := range []string{
		"Select(Tasks[ID], TRUE)",
		"Filter(Other, [ID] = '1')",
		"Filter(Tasks, [ID] = 'unterminated)",
		"Filter(Tasks, LOOKUP([ID]))",
		appsheet.BuildSelector("Tasks", "Title", "O'Brien"),
	} {
		_, err := client.Find(ctx, "Tasks", &appsheet.Query{Selector: sel})
		require.Error(t, err, sel)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), sel)
	}
}

func TestUnknownTable(t *testing.T) {
	client, _ := seededClient(t)

	_, err := client.FindAll(context.Background(), "Nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestAddGeneratesKeyAndRejectsDuplicates(t *testing.T) {
	n := 0
	client, store := seededClient(t, mock.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("gen%05d", n)
	}))
	ctx := context.Background()

	resp, err := client.Add(ctx, "Tasks", []appsheet.Row{{"Title": "New"}})
	require.NoError(t, err)
	added, err := resp.Rows()
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "gen00001", added[0]["ID"])
	assert.Equal(t, "5", added[0][appsheet.RowNumberColumn])

	_, err = client.Add(ctx, "Tasks", []appsheet.Row{{"ID": "1", "Title": "dup"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = client.Add(ctx, "Invoice Lines", []appsheet.Row{{"InvoiceID": "INV-2"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	rows, err := store.Rows("Tasks")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestAddBatchIsAllOrNothing(t *testing.T) {
	client, store := seededClient(t)

	_, err := client.Add(context.Background(), "Tasks", []appsheet.Row{
		{"ID": "9", "Title": "ok"},
		{"ID": "9", "Title": "same key"},
	})
	require.Error(t, err)
	rows, err := store.Rows("Tasks")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestEditMergesFields(t *testing.T) {
	client, store := seededClient(t)
	ctx := context.Background()

	resp, err := client.Edit(ctx, "Invoice Lines", "InvoiceID", appsheet.Row{"InvoiceID": "INV-1", "Line": "2", "Qty": "7"})
	require.NoError(t, err)
	rows, err := resp.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0]["Qty"])

	_, err = client.Edit(ctx, "Tasks", "ID", appsheet.Row{"ID": "3", "Status": "Done", "Owner": "ana"})
	require.NoError(t, err)
	all, err := store.Rows("Tasks")
	require.NoError(t, err)
	assert.Equal(t, "Fix bug", all[2]["Title"])
	assert.Equal(t, "Done", all[2]["Status"])
	assert.Equal(t, "ana", all[2]["Owner"])

	_, err = client.Edit(ctx, "Tasks", "ID", appsheet.Row{"ID": "404", "Status": "Done"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = client.Edit(ctx, "Invoice Lines", "InvoiceID", appsheet.Row{"InvoiceID": "INV-1", "Qty": "1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestDeleteSingleAndComposite(t *testing.T) {
	client, store := seededClient(t)
	ctx := context.Background()

	resp, err := client.Delete(ctx, "Tasks", appsheet.SingleKey("ID", 2))
	require.NoError(t, err)
	deleted, err := resp.Rows()
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Ship release", deleted[0]["Title"])

	_, err = client.DeleteRow(ctx, "Invoice Lines", appsheet.CompositeKey(appsheet.Row{"InvoiceID": "INV-1", "Line": "1"}))
	require.NoError(t, err)
	lines, err := store.Rows("Invoice Lines")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "2", lines[0]["Line"])

	_, err = client.Delete(ctx, "Tasks", appsheet.SingleKey("ID", 2))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestDoRejectsComputedKeyWrites(t *testing.T) {
	_, store := seededClient(t)

	_, err := store.Do(context.Background(), "Invoice Lines", &appsheet.ActionRequest{
		Action: appsheet.ActionEdit,
		Rows:   []appsheet.Row{{appsheet.ComputedKeyColumn: "INV-1: 1", "Qty": "2"}},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = store.Do(context.Background(), "Tasks", &appsheet.ActionRequest{Action: "Purge"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestDoHonoursCancelledContext(t *testing.T) {
	_, store := seededClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Do(ctx, "Tasks", &appsheet.ActionRequest{Action: appsheet.ActionFind})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	store := mock.New()
	require.NoError(t, store.LoadSeed(path))
	assert.Equal(t, []string{"Invoice Lines", "Tasks"}, store.Tables())
	keys, ok := store.KeyColumns("Invoice Lines")
	require.True(t, ok)
	assert.Equal(t, []string{"InvoiceID", "Line"}, keys)

	require.Error(t, store.LoadSeed(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestSeedRejectsBadTables(t *testing.T) {
	store := mock.New()
	require.Error(t, store.Seed(mock.SeedFile{Tables: []mock.SeedTable{{Name: "NoKeys"}}}))
	require.Error(t, store.Seed(mock.SeedFile{Tables: []mock.SeedTable{{
		Name: "T",
		Keys: []string{"ID"},
		Rows: []map[string]any{{"ID": "1"}, {"ID": 1}},
	}}}))
}
