package appsheet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/appsheetkit/appsheet_sdk_go/internal/actionapi"
)

// DefaultKeySeparator matches the separator AppSheet uses when it derives
// _ComputedKey from several key columns.
const DefaultKeySeparator = ": "

// BuildCompositeKey joins key values with DefaultKeySeparator. Values must
// be given in the order the table declares its key columns; any other
// order produces a key that silently matches no row.
func BuildCompositeKey(values ...any) (string, error) {
	return BuildCompositeKeySep(DefaultKeySeparator, values...)
}

// BuildCompositeKeySep joins key values with sep.
func BuildCompositeKeySep(sep string, values ...any) (string, error) {
	if len(values) == 0 {
		return "", ErrNoKeyValues
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = actionapi.Text(v)
	}
	return strings.Join(parts, sep), nil
}

type keyKind uint8

const (
	keyUnset keyKind = iota
	keySingle
	keyComposite
)

// RowKey identifies the row a Delete targets. Build one with SingleKey or
// CompositeKey; the zero RowKey is invalid.
type RowKey struct {
	kind    keyKind
	column  string
	value   string
	columns Row
}

// SingleKey addresses a row of a table with one key column.
func SingleKey(column string, value any) RowKey {
	return RowKey{kind: keySingle, column: column, value: actionapi.Text(value)}
}

// CompositeKey addresses a row by all of its key column values. The map is
// copied and sent verbatim.
func CompositeKey(columns Row) RowKey {
	return RowKey{kind: keyComposite, columns: columns.Clone()}
}

// Identifier returns the row mapping sent as the single Delete row.
func (k RowKey) Identifier() (Row, error) {
	switch k.kind {
	case keySingle:
		if strings.TrimSpace(k.column) == "" {
			return nil, fmt.Errorf("%w: key column name is empty", ErrInvalidRowKey)
		}
		if k.column == ComputedKeyColumn {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRowKey, ErrComputedKeyInPayload)
		}
		return Row{k.column: k.value}, nil
	case keyComposite:
		if len(k.columns) == 0 {
			return nil, fmt.Errorf("%w: composite key has no columns", ErrInvalidRowKey)
		}
		for col := range k.columns {
			if strings.TrimSpace(col) == "" {
				return nil, fmt.Errorf("%w: composite key has an empty column name", ErrInvalidRowKey)
			}
			if col == ComputedKeyColumn {
				return nil, fmt.Errorf("%w: %w", ErrInvalidRowKey, ErrComputedKeyInPayload)
			}
		}
		return k.columns.Clone(), nil
	}
	return nil, fmt.Errorf("%w: use SingleKey or CompositeKey", ErrInvalidRowKey)
}

// IsComposite reports whether k was built with CompositeKey.
func (k RowKey) IsComposite() bool {
	return k.kind == keyComposite
}

func (k RowKey) String() string {
	switch k.kind {
	case keySingle:
		return k.column + "=" + k.value
	case keyComposite:
		cols := make([]string, 0, len(k.columns))
		for col := range k.columns {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = col + "=" + k.columns[col]
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "<invalid key>"
}
