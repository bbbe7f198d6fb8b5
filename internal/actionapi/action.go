// Package actionapi holds the wire shapes of the AppSheet Action API: the
// request envelope posted to /apps/<app>/tables/<table>/Action and the
// helpers used to decode its replies.
package actionapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Action names accepted by the service.
type Action string

const (
	Find   Action = "Find"
	Add    Action = "Add"
	Edit   Action = "Edit"
	Delete Action = "Delete"
)

// Valid reports whether a is one of the four row actions.
func (a Action) Valid() bool {
	switch a {
	case Find, Add, Edit, Delete:
		return true
	}
	return false
}

// Properties is the "Properties" member of the request envelope.
type Properties struct {
	Locale         string `json:"Locale,omitempty"`
	Timezone       string `json:"Timezone,omitempty"`
	RunAsUserEmail string `json:"RunAsUserEmail,omitempty"`
	Selector       string `json:"Selector,omitempty"`
}

// Request is the JSON body posted for every action.
type Request struct {
	Action     Action     `json:"Action"`
	Properties Properties `json:"Properties"`
	Rows       []Row      `json:"Rows"`

	// LeadColumn, when present in a row, is encoded before the other
	// columns. The rest follow in sorted order.
	LeadColumn string `json:"-"`
}

// MarshalJSON encodes the request with each row's columns in a stable order.
func (r Request) MarshalJSON() ([]byte, error) {
	rows := make([]json.RawMessage, len(r.Rows))
	for i, row := range r.Rows {
		data, err := row.encode(r.LeadColumn)
		if err != nil {
			return nil, err
		}
		rows[i] = data
	}
	return marshal(struct {
		Action     Action            `json:"Action"`
		Properties Properties        `json:"Properties"`
		Rows       []json.RawMessage `json:"Rows"`
	}{r.Action, r.Properties, rows})
}

// marshal encodes v without HTML escaping so selectors keep their < and >.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Row maps column names to their textual values.
type Row map[string]string

// UnmarshalJSON accepts any JSON object and converts each member to text:
// strings are taken verbatim, null becomes "", and every other value keeps
// its compact JSON spelling (e.g. 3, true, ["a"]).
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*r = nil
		return nil
	}
	out := make(Row, len(raw))
	for col, val := range raw {
		text, err := rawText(val)
		if err != nil {
			return fmt.Errorf("actionapi: column %q: %w", col, err)
		}
		out[col] = text
	}
	*r = out
	return nil
}

// encode writes r as a JSON object with lead first when present.
func (r Row) encode(lead string) ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	_, hasLead := r[lead]
	hasLead = hasLead && lead != ""
	cols := make([]string, 0, len(r))
	for col := range r {
		if !hasLead || col != lead {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	if hasLead {
		cols = append([]string{lead}, cols...)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := marshal(r[col])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func rawText(val json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(val)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Text renders a Go value in its wire form. It is used wherever the library
// compares or embeds caller-supplied values.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", x)
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.RawMessage:
		s, err := rawText(x)
		if err != nil {
			return strings.TrimSpace(string(x))
		}
		return s
	case error:
		return x.Error()
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
