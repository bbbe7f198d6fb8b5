package appsheet

import (
	"errors"

	"github.com/appsheetkit/appsheet_sdk_go/internal/actionapi"
	"github.com/appsheetkit/appsheet_sdk_go/internal/httpx"
)

// Row is one table row: column name to textual value. Rows decoded from a
// response convert non-string JSON values to text (numbers keep their
// literal spelling, null becomes "").
type Row = actionapi.Row

// Action names an Action API operation.
type Action = actionapi.Action

// Properties is the "Properties" member of an action request.
type Properties = actionapi.Properties

// ActionRequest is the JSON envelope sent to a table's Action endpoint.
type ActionRequest = actionapi.Request

// HTTPError is returned for non-2xx replies. Body carries the service's
// error detail verbatim.
type HTTPError = httpx.HTTPError

const (
	ActionFind   = actionapi.Find
	ActionAdd    = actionapi.Add
	ActionEdit   = actionapi.Edit
	ActionDelete = actionapi.Delete
)

const (
	// DefaultBaseURL is the public Action API root.
	DefaultBaseURL = "https://api.appsheet.com/api/v2/"
	// DefaultLocale and DefaultTimezone are sent when Config leaves them empty.
	DefaultLocale   = "en-US"
	DefaultTimezone = "UTC"

	// ComputedKeyColumn is the platform generated column that concatenates
	// all key columns. It may be used for lookups but never in writes.
	ComputedKeyColumn = "_ComputedKey"
	// RowNumberColumn is the read-only row number the service returns.
	RowNumberColumn = "_RowNumber"

	// AccessKeyHeader carries the application access key.
	AccessKeyHeader = "ApplicationAccessKey"
)

// Text renders a value the way it is compared and sent: strings verbatim,
// nil as "", numbers without exponent, anything else as compact JSON.
func Text(v any) string {
	return actionapi.Text(v)
}

// Response is the parsed JSON object returned by Add, Edit and Delete,
// passed through unmodified.
type Response map[string]any

// Rows decodes the "Rows" member the service echoes back. A response
// without Rows yields an empty slice.
func (r Response) Rows() ([]Row, error) {
	return actionapi.RowsOf(r)
}

var (
	// ErrNoKeyValues is returned when a composite key is built from nothing.
	ErrNoKeyValues = errors.New("appsheet: composite key requires at least one value")
	// ErrInvalidRowKey reports a RowKey that is neither a single column/value
	// pair nor a non-empty column map.
	ErrInvalidRowKey = errors.New("appsheet: invalid row key")
	// ErrComputedKeyInPayload reports a write payload containing _ComputedKey.
	ErrComputedKeyInPayload = errors.New("appsheet: _ComputedKey must not appear in write payloads")
	// ErrMissingKeyColumn reports an Edit row lacking its key column.
	ErrMissingKeyColumn = errors.New("appsheet: key column missing from row")
	// ErrNoRows reports an Add or Edit call without row data.
	ErrNoRows = errors.New("appsheet: no rows supplied")
	// ErrInvalidTable reports an empty table name.
	ErrInvalidTable = errors.New("appsheet: table name is required")
	// ErrInvalidOperator reports an unknown comparison operator token.
	ErrInvalidOperator = errors.New("appsheet: invalid comparison operator")
	// ErrInvalidConfig reports missing client credentials.
	ErrInvalidConfig = errors.New("appsheet: invalid configuration")
	// ErrUnexpectedResponse reports a reply whose JSON shape does not match
	// the action.
	ErrUnexpectedResponse = actionapi.ErrUnexpectedResponse
)
