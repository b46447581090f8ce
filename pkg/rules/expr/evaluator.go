package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Context holds the values an expression reads. Identifiers resolve against
// Values by dotted path; the `extras.` prefix reads Extras instead.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// Evaluator evaluates boolean rule expressions over a form model.
//
// Supported forms:
//   - truthiness: `newsletter`, `!newsletter`
//   - comparison with literals: `age >= 18`, `country != "IT"`, `email == null`
//   - comparison with another field: `confirmPassword == $password`
//   - composition: `a && (b || !c)`
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator { return &Evaluator{} }

// Eval parses and evaluates rule. An empty rule is true.
func (e *Evaluator) Eval(rule string, ctx Context) (bool, error) {
	node, err := e.Compile(rule)
	if err != nil {
		return false, err
	}
	return node.Eval(ctx)
}

// Expression is a compiled rule.
type Expression interface {
	Eval(ctx Context) (bool, error)
}

// Compile parses rule once so it can be evaluated many times.
func (e *Evaluator) Compile(rule string) (Expression, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return always{}, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return always{}, nil
	}
	return parseExpression(tokens)
}

type always struct{}

func (always) Eval(Context) (bool, error) { return true, nil }

type constant bool

func (c constant) Eval(Context) (bool, error) { return bool(c), nil }

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenField
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

var operatorText = map[tokenKind]string{
	tokenEq:  "==",
	tokenNeq: "!=",
	tokenLt:  "<",
	tokenLte: "<=",
	tokenGt:  ">",
	tokenGte: ">=",
}

type token struct {
	kind tokenKind
	raw  string
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return isSpace(c) || strings.IndexByte("()!=&|<>", c) >= 0
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	peek := func(offset int) byte {
		if i+offset >= len(input) {
			return 0
		}
		return input[i+offset]
	}
	emit := func(kind tokenKind, raw string, width int) {
		tokens = append(tokens, token{kind: kind, raw: raw})
		i += width
	}

	for i < len(input) {
		ch := input[i]
		switch {
		case isSpace(ch):
			i++
		case ch == '(':
			emit(tokenLParen, "(", 1)
		case ch == ')':
			emit(tokenRParen, ")", 1)
		case ch == '!' && peek(1) == '=':
			emit(tokenNeq, "!=", 2)
		case ch == '!':
			emit(tokenNot, "!", 1)
		case ch == '=' && peek(1) == '=':
			emit(tokenEq, "==", 2)
		case ch == '=':
			return nil, errors.New("rules/expr: unexpected '='; use '=='")
		case ch == '<' && peek(1) == '=':
			emit(tokenLte, "<=", 2)
		case ch == '<':
			emit(tokenLt, "<", 1)
		case ch == '>' && peek(1) == '=':
			emit(tokenGte, ">=", 2)
		case ch == '>':
			emit(tokenGt, ">", 1)
		case ch == '&' && peek(1) == '&':
			emit(tokenAnd, "&&", 2)
		case ch == '&':
			return nil, errors.New("rules/expr: unexpected '&'; use '&&'")
		case ch == '|' && peek(1) == '|':
			emit(tokenOr, "||", 2)
		case ch == '|':
			return nil, errors.New("rules/expr: unexpected '|'; use '||'")
		case ch == '"' || ch == '\'':
			value, width, err := readString(input[i:])
			if err != nil {
				return nil, err
			}
			emit(tokenString, value, width)
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			tokens = append(tokens, word(input[start:i]))
		}
	}
	return tokens, nil
}

func readString(input string) (string, int, error) {
	quote := input[0]
	escaped := false
	for j := 1; j < len(input); j++ {
		c := input[j]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[1:j]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("rules/expr: invalid string literal: %w", err)
		}
		return value, j + 1, nil
	}
	return "", 0, errors.New("rules/expr: unterminated string literal")
}

func word(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kind: tokenBool, raw: strings.ToLower(raw)}
	case "null", "nil":
		return token{kind: tokenNull, raw: "null"}
	}
	if strings.HasPrefix(raw, "$") && len(raw) > 1 {
		return token{kind: tokenField, raw: raw[1:]}
	}
	if looksLikeNumber(raw) {
		return token{kind: tokenNumber, raw: raw}
	}
	return token{kind: tokenIdentifier, raw: raw}
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+'
}

type exprOr struct{ left, right Expression }

func (n exprOr) Eval(ctx Context) (bool, error) {
	ok, err := n.left.Eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return n.right.Eval(ctx)
}

type exprAnd struct{ left, right Expression }

func (n exprAnd) Eval(ctx Context) (bool, error) {
	ok, err := n.left.Eval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return n.right.Eval(ctx)
}

type exprNot struct{ inner Expression }

func (n exprNot) Eval(ctx Context) (bool, error) {
	ok, err := n.inner.Eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type exprTruthy struct{ identifier string }

func (n exprTruthy) Eval(ctx Context) (bool, error) {
	value, ok := lookup(ctx, n.identifier)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

type exprCompare struct {
	identifier string
	op         tokenKind
	operand    token
}

func (n exprCompare) Eval(ctx Context) (bool, error) {
	value, _ := lookup(ctx, n.identifier)

	switch n.operand.kind {
	case tokenNull:
		return equality(n.op, value == nil)
	case tokenBool:
		got, _ := coerceBool(value)
		return equality(n.op, got == (n.operand.raw == "true"))
	case tokenNumber:
		want, err := strconv.ParseFloat(n.operand.raw, 64)
		if err != nil {
			return false, fmt.Errorf("rules/expr: invalid number literal %q", n.operand.raw)
		}
		got, _ := coerceNumber(value)
		return order(n.op, compareFloats(got, want))
	case tokenString, tokenIdentifier:
		return order(n.op, strings.Compare(coerceString(value), n.operand.raw))
	case tokenField:
		other, _ := lookup(ctx, n.operand.raw)
		return order(n.op, compareValues(value, other))
	default:
		return false, fmt.Errorf("rules/expr: unsupported operand %q", n.operand.raw)
	}
}

func equality(op tokenKind, equal bool) (bool, error) {
	switch op {
	case tokenEq:
		return equal, nil
	case tokenNeq:
		return !equal, nil
	}
	return false, fmt.Errorf("rules/expr: operator %q needs an ordered operand", operatorText[op])
}

func order(op tokenKind, cmp int) (bool, error) {
	switch op {
	case tokenEq:
		return cmp == 0, nil
	case tokenNeq:
		return cmp != 0, nil
	case tokenLt:
		return cmp < 0, nil
	case tokenLte:
		return cmp <= 0, nil
	case tokenGt:
		return cmp > 0, nil
	case tokenGte:
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("rules/expr: unsupported operator %q", operatorText[op])
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareValues(a, b any) int {
	_, aString := a.(string)
	_, bString := b.(string)
	if !aString && !bString {
		af, aok := coerceNumber(a)
		bf, bok := coerceNumber(b)
		if aok && bok {
			return compareFloats(af, bf)
		}
	}
	return strings.Compare(coerceString(a), coerceString(b))
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (Expression, error) {
	s := &tokenStream{tokens: tokens}
	node, err := parseOr(s)
	if err != nil {
		return nil, err
	}
	if s.pos < len(s.tokens) {
		return nil, fmt.Errorf("rules/expr: unexpected token %q", s.tokens[s.pos].raw)
	}
	return node, nil
}

func parseOr(s *tokenStream) (Expression, error) {
	left, err := parseAnd(s)
	if err != nil {
		return nil, err
	}
	for s.match(tokenOr) {
		right, err := parseAnd(s)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(s *tokenStream) (Expression, error) {
	left, err := parseUnary(s)
	if err != nil {
		return nil, err
	}
	for s.match(tokenAnd) {
		right, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

func parseUnary(s *tokenStream) (Expression, error) {
	if s.match(tokenNot) {
		inner, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		return exprNot{inner: inner}, nil
	}
	return parsePrimary(s)
}

func parsePrimary(s *tokenStream) (Expression, error) {
	if s.match(tokenLParen) {
		inner, err := parseOr(s)
		if err != nil {
			return nil, err
		}
		if !s.match(tokenRParen) {
			return nil, errors.New("rules/expr: missing closing ')'")
		}
		return inner, nil
	}

	if lit, ok := s.consume(tokenBool); ok {
		return constant(lit.raw == "true"), nil
	}

	ident, ok := s.consume(tokenIdentifier)
	if !ok {
		if s.pos >= len(s.tokens) {
			return nil, errors.New("rules/expr: empty expression")
		}
		return nil, fmt.Errorf("rules/expr: expected identifier, got %q", s.tokens[s.pos].raw)
	}

	for op := range operatorText {
		if !s.match(op) {
			continue
		}
		if s.pos >= len(s.tokens) {
			return nil, errors.New("rules/expr: missing operand")
		}
		operand := s.tokens[s.pos]
		s.pos++
		switch operand.kind {
		case tokenString, tokenNumber, tokenBool, tokenNull, tokenField, tokenIdentifier:
		default:
			return nil, fmt.Errorf("rules/expr: expected operand, got %q", operand.raw)
		}
		return exprCompare{identifier: ident.raw, op: op, operand: operand}, nil
	}
	return exprTruthy{identifier: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}
