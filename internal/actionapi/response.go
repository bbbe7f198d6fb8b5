package actionapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedResponse reports a reply whose JSON shape does not match the
// action that produced it.
var ErrUnexpectedResponse = errors.New("unexpected response format")

// DecodeRows extracts the row list from a Find reply. The service answers
// either with a bare JSON array or with an object carrying a "Rows" array;
// both are accepted. An empty body means no rows.
func DecodeRows(body []byte) ([]Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Row{}, nil
	}

	switch trimmed[0] {
	case '[':
		var rows []Row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("%w: expected a list of rows: %v", ErrUnexpectedResponse, err)
		}
		return nonNil(rows), nil
	case '{':
		var envelope struct {
			Rows json.RawMessage `json:"Rows"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		if envelope.Rows == nil {
			return nil, fmt.Errorf("%w: expected a list of rows, got an object without Rows", ErrUnexpectedResponse)
		}
		return DecodeRows(envelope.Rows)
	}
	return nil, fmt.Errorf("%w: expected a list of rows", ErrUnexpectedResponse)
}

// DecodeObject parses the reply of a mutating action, which must be a JSON
// object. An empty body decodes to an empty object.
func DecodeObject(body []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(trimmed, &out); err != nil || out == nil {
		return nil, fmt.Errorf("%w: expected a JSON dictionary", ErrUnexpectedResponse)
	}
	return out, nil
}

// RowsOf decodes the "Rows" member of an already parsed reply object.
func RowsOf(obj map[string]any) ([]Row, error) {
	raw, ok := obj["Rows"]
	if !ok || raw == nil {
		return []Row{}, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return DecodeRows(data)
}

func nonNil(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	return rows
}
