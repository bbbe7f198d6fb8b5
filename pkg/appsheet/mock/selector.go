package mock

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
)

// predicate reports whether a row satisfies a compiled selector.
type predicate func(appsheet.Row) (bool, error)

var filterCall = regexp.MustCompile(`(?is)^\s*filter\s*\(\s*([^,]+?)\s*,(.*)\)\s*$`)

// compileSelector turns Filter(<table>, <condition>) into a predicate.
//
// The condition language is the subset of AppSheet expressions that
// selectors use in practice: [Column] references, 'text' or "text"
// literals, numbers, TRUE/FALSE, the comparisons = <> != > >= < <=, and the
// functions AND, OR, NOT, CONTAINS, ISBLANK and ISNOTBLANK. Operands are
// compared as numbers when both sides parse as numbers and as
// case-insensitive text otherwise.
func compileSelector(tableName, selector string) (predicate, error) {
	m := filterCall.FindStringSubmatch(selector)
	if m == nil {
		return nil, fmt.Errorf("expected Filter(<table>, <condition>), got %q", selector)
	}
	if name := strings.TrimSpace(m[1]); !strings.EqualFold(name, tableName) {
		return nil, fmt.Errorf("selector targets table %q, request is for %q", name, tableName)
	}

	source, err := translate(m[2])
	if err != nil {
		return nil, err
	}
	program, err := expr.Compile(truthy(source), exprOpts()...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	return programPredicate(program), nil
}

func programPredicate(program *vm.Program) predicate {
	return func(row appsheet.Row) (bool, error) {
		env := map[string]any{"row": rowEnv(row)}
		out, err := expr.Run(program, env)
		if err != nil {
			return false, err
		}
		ok, _ := out.(bool)
		return ok, nil
	}
}

func rowEnv(row appsheet.Row) map[string]any {
	env := make(map[string]any, len(row))
	for col, v := range row {
		env[col] = v
	}
	return env
}

func exprOpts() []expr.Option {
	return []expr.Option{
		expr.Env(map[string]any{"row": map[string]any{}}),
		expr.AsBool(),
		expr.Function("cmp", func(params ...any) (any, error) {
			op, _ := params[1].(string)
			return compare(operand(params[0]), op, operand(params[2]))
		}, new(func(any, string, any) bool)),
		expr.Function("hasText", func(params ...any) (any, error) {
			return strings.Contains(strings.ToLower(operand(params[0])), strings.ToLower(operand(params[1]))), nil
		}, new(func(any, any) bool)),
		expr.Function("isblank", func(params ...any) (any, error) {
			return strings.TrimSpace(operand(params[0])) == "", nil
		}, new(func(any) bool)),
	}
}

// operand renders an evaluated value as text. A missing column is blank.
func operand(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	return fmt.Sprint(v)
}

func compare(a, op, b string) (bool, error) {
	var c int
	af, aerr := strconv.ParseFloat(strings.TrimSpace(a), 64)
	bf, berr := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case af < bf:
			c = -1
		case af > bf:
			c = 1
		}
	default:
		c = strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}

	switch op {
	case "=":
		return c == 0, nil
	case "<>":
		return c != 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokColumn
	tokString
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '[':
			end := indexRune(rs, i+1, ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated column reference at offset %d", i)
			}
			toks = append(toks, token{tokColumn, string(rs[i+1 : end])})
			i = end + 1
		case r == '\'' || r == '"':
			end := indexRune(rs, i+1, r)
			if end < 0 {
				return nil, fmt.Errorf("unterminated text literal at offset %d", i)
			}
			toks = append(toks, token{tokString, string(rs[i+1 : end])})
			i = end + 1
		case r == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case r == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case strings.ContainsRune("=<>!", r):
			width := 1
			if i+1 < len(rs) && strings.ContainsRune("=>", rs[i+1]) {
				width = 2
			}
			op := string(rs[i : i+width])
			switch op {
			case "=", "==":
				op = "="
			case "!=", "<>":
				op = "<>"
			case ">", ">=", "<", "<=":
			default:
				return nil, fmt.Errorf("invalid operator %q at offset %d", op, i)
			}
			toks = append(toks, token{tokOp, op})
			i += width
		case unicode.IsDigit(r) || r == '-' || r == '.':
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			num := string(rs[i:j])
			if _, err := strconv.ParseFloat(num, 64); err != nil {
				return nil, fmt.Errorf("invalid number %q at offset %d", num, i)
			}
			toks = append(toks, token{tokNumber, num})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, strings.ToUpper(string(rs[i:j]))})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

func indexRune(rs []rune, from int, want rune) int {
	for i := from; i < len(rs); i++ {
		if rs[i] == want {
			return i
		}
	}
	return -1
}

// translate compiles a condition into expr source. Every operand becomes a
// string so comparisons go through cmp.
func translate(cond string) (string, error) {
	toks, err := tokenize(cond)
	if err != nil {
		return "", err
	}
	p := &parser{toks: toks}
	out, err := p.expression()
	if err != nil {
		return "", err
	}
	if p.peek().kind != tokEOF {
		return "", fmt.Errorf("unexpected %q after condition", p.peek().text)
	}
	return out, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) error {
	if t := p.next(); t.kind != kind {
		return fmt.Errorf("expected %s, got %q", what, t.text)
	}
	return nil
}

func (p *parser) expression() (string, error) {
	left, err := p.operand()
	if err != nil {
		return "", err
	}
	if p.peek().kind != tokOp {
		return left, nil
	}
	op := p.next().text
	right, err := p.operand()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("cmp(%s, %s, %s)", left, strconv.Quote(op), right), nil
}

func (p *parser) operand() (string, error) {
	t := p.next()
	switch t.kind {
	case tokColumn:
		return "row[" + strconv.Quote(t.text) + "]", nil
	case tokString, tokNumber:
		return strconv.Quote(t.text), nil
	case tokLParen:
		inner, err := p.expression()
		if err != nil {
			return "", err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case tokIdent:
		switch t.text {
		case "TRUE", "FALSE":
			return strconv.Quote(t.text), nil
		}
		return p.call(t.text)
	}
	return "", fmt.Errorf("unexpected %q", t.text)
}

func (p *parser) call(name string) (string, error) {
	if err := p.expect(tokLParen, "'(' after "+name); err != nil {
		return "", err
	}
	var args []string
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.expression()
			if err != nil {
				return "", err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if err := p.expect(tokRParen, "')' closing "+name); err != nil {
		return "", err
	}

	switch name {
	case "AND", "OR":
		if len(args) < 2 {
			return "", fmt.Errorf("%s needs at least 2 arguments", name)
		}
		joiner := " && "
		if name == "OR" {
			joiner = " || "
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = truthy(a)
		}
		return "(" + strings.Join(parts, joiner) + ")", nil
	case "NOT":
		if len(args) != 1 {
			return "", fmt.Errorf("NOT takes 1 argument")
		}
		return "!" + truthy(args[0]), nil
	case "CONTAINS":
		if len(args) != 2 {
			return "", fmt.Errorf("CONTAINS takes 2 arguments")
		}
		return "hasText(" + args[0] + ", " + args[1] + ")", nil
	case "ISBLANK":
		if len(args) != 1 {
			return "", fmt.Errorf("ISBLANK takes 1 argument")
		}
		return "isblank(" + args[0] + ")", nil
	case "ISNOTBLANK":
		if len(args) != 1 {
			return "", fmt.Errorf("ISNOTBLANK takes 1 argument")
		}
		return "!isblank(" + args[0] + ")", nil
	}
	return "", fmt.Errorf("unsupported function %s", name)
}

// truthy wraps a sub-expression so text operands such as a TRUE literal or a
// Yes/No column can be used as conditions.
func truthy(src string) string {
	return "cmp(" + src + ", \"=\", \"TRUE\")"
}
