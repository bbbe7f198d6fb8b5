package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
)

func TestParseRows(t *testing.T) {
	rows, err := parseRows([]byte("ID: 7\nTitle: Write docs\nDone: false\n"))
	require.NoError(t, err)
	assert.Equal(t, []appsheet.Row{{"ID": "7", "Title": "Write docs", "Done": "false"}}, rows)

	rows, err = parseRows([]byte(`[{"ID": "1"}, {"ID": 2, "Note": null}]`))
	require.NoError(t, err)
	assert.Equal(t, []appsheet.Row{{"ID": "1"}, {"ID": "2", "Note": ""}}, rows)

	_, err = parseRows([]byte("- a\n- b\n"))
	require.Error(t, err)

	_, err = parseRows([]byte(""))
	require.ErrorIs(t, err, appsheet.ErrNoRows)
}

func TestReadRowsFromStdin(t *testing.T) {
	rows, err := readRows("-", strings.NewReader("- {ID: a}\n- {ID: b}\n"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestParseKeyPairs(t *testing.T) {
	cols, err := parseKeyPairs("InvoiceID=INV-1, Line=2")
	require.NoError(t, err)
	assert.Equal(t, appsheet.Row{"InvoiceID": "INV-1", "Line": "2"}, cols)

	_, err = parseKeyPairs("InvoiceID")
	require.Error(t, err)
	_, err = parseKeyPairs(" , ")
	require.Error(t, err)
}

func TestDeleteRowKey(t *testing.T) {
	cfg := &deleteConfig{Column: "ID", Value: "42"}
	key, err := cfg.rowKey()
	require.NoError(t, err)
	id, err := key.Identifier()
	require.NoError(t, err)
	assert.Equal(t, appsheet.Row{"ID": "42"}, id)

	cfg = &deleteConfig{Keys: "A=1,B=2"}
	key, err = cfg.rowKey()
	require.NoError(t, err)
	assert.True(t, key.IsComposite())

	_, err = (&deleteConfig{Keys: "A=1", Column: "ID"}).rowKey()
	require.Error(t, err)
	_, err = (&deleteConfig{}).rowKey()
	require.Error(t, err)
}

func TestLineDiff(t *testing.T) {
	before := rowYAML(appsheet.Row{"ID": "1", "Status": "Open"})
	after := rowYAML(appsheet.Row{"ID": "1", "Status": "Done"})

	diffs := lineDiff(before, after)
	var inserted, deleted string
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += d.Text
		case diffmatchpatch.DiffDelete:
			deleted += d.Text
		}
	}
	assert.Contains(t, inserted, "Done")
	assert.Contains(t, deleted, "Open")
	assert.NotContains(t, inserted, "ID")

	var buf bytes.Buffer
	writeDiff(&buf, diffs)
	assert.Contains(t, buf.String(), "- Status: Open\n")
	assert.Contains(t, buf.String(), "+ Status: Done\n")
}
