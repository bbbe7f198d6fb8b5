package appsheet

import (
	"fmt"
	"strings"

	"github.com/appsheetkit/appsheet_sdk_go/internal/actionapi"
)

// Operator is a comparison accepted by AppSheet expressions. Only the
// exported values exist; the zero Operator behaves as OpEqual.
type Operator struct {
	token string
}

// The supported operators. They are variables only because Operator is a
// struct; callers must treat them as constants and never reassign them.
var (
	OpEqual          = Operator{"="}
	OpNotEqual       = Operator{"<>"}
	OpGreater        = Operator{">"}
	OpGreaterOrEqual = Operator{">="}
	OpLess           = Operator{"<"}
	OpLessOrEqual    = Operator{"<="}
)

// Operators lists every supported operator.
func Operators() []Operator {
	return []Operator{OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual}
}

func (o Operator) String() string {
	if o.token == "" {
		return OpEqual.token
	}
	return o.token
}

// ParseOperator maps user input to an Operator. "!=" and "==" are accepted
// as spellings of "<>" and "=".
func ParseOperator(s string) (Operator, error) {
	switch strings.TrimSpace(s) {
	case "=", "==":
		return OpEqual, nil
	case "<>", "!=":
		return OpNotEqual, nil
	case ">":
		return OpGreater, nil
	case ">=":
		return OpGreaterOrEqual, nil
	case "<":
		return OpLess, nil
	case "<=":
		return OpLessOrEqual, nil
	}
	return Operator{}, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
}

// BuildSelector returns an equality selector for Find:
//
//	BuildSelector("Tasks", "Status", "In Progress")
//	// Filter(Tasks, [Status] = 'In Progress')
//
// The value is embedded between single quotes as is. A value containing a
// single quote yields a malformed expression; escaping it is up to the
// caller.
func BuildSelector(table, column string, value any) string {
	return BuildSelectorOp(table, column, OpEqual, value)
}

// BuildSelectorOp is BuildSelector with an explicit comparison operator.
func BuildSelectorOp(table, column string, op Operator, value any) string {
	return fmt.Sprintf("Filter(%s, [%s] %s '%s')", table, column, op, actionapi.Text(value))
}
