package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Parse turns an expression into a visibility rule. A blank expression
// yields a nil rule (always visible). Syntax errors are reported as
// invalidCondition schema errors.
func Parse(input string) (*model.VisibilityRule, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, syntaxError(err)
	}
	stream := &tokenStream{tokens: tokens}

	rule := &model.VisibilityRule{}
	for {
		cond, err := parseCondition(stream)
		if err != nil {
			return nil, syntaxError(err)
		}
		rule.Conditions = append(rule.Conditions, cond)
		if !stream.match(tokenAnd) {
			break
		}
	}
	if stream.pos < len(stream.tokens) {
		tok := stream.tokens[stream.pos]
		if tok.kind == tokenOr {
			return nil, syntaxError(errors.New("'||' is not supported, conditions can only be combined with '&&'"))
		}
		return nil, syntaxError(fmt.Errorf("unexpected token %q", tok.raw))
	}
	return rule, nil
}

// MustParse is like Parse but panics on error. It is meant for fixtures.
func MustParse(input string) *model.VisibilityRule {
	rule, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return rule
}

func syntaxError(err error) error {
	return model.NewSchemaError(model.KindInvalidCondition, "", "visibility/expr: %v", err)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
)

type token struct {
	kind tokenKind
	raw  string
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '[', ']', ',', '!', '=', '&', '|':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	for i < len(input) {
		ch := next()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			i++
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
		case ')':
			i++
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
		case '[':
			i++
			tokens = append(tokens, token{kind: tokenLBracket, raw: "["})
		case ']':
			i++
			tokens = append(tokens, token{kind: tokenRBracket, raw: "]"})
		case ',':
			i++
			tokens = append(tokens, token{kind: tokenComma, raw: ","})
		case '!':
			i++
			if next() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
		case '=':
			i++
			if next() != '=' {
				return nil, errors.New("unexpected '=', use '=='")
			}
			i++
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
		case '&':
			i++
			if next() != '&' {
				return nil, errors.New("unexpected '&', use '&&'")
			}
			i++
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
		case '|':
			i++
			if next() == '|' {
				i++
			}
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
		case '"', '\'':
			value, n, err := readString(input[i:])
			if err != nil {
				return nil, err
			}
			i += n
			tokens = append(tokens, token{kind: tokenString, raw: value})
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			raw := input[start:i]
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
			case "null", "nil":
				tokens = append(tokens, token{kind: tokenNull, raw: "null"})
			default:
				if looksLikeNumber(raw) {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}
	}
	return tokens, nil
}

// readString reads a quoted literal at the start of input and returns its
// value and the number of bytes consumed.
func readString(input string) (string, int, error) {
	quote := input[0]
	escaped := false
	for i := 1; i < len(input); i++ {
		c := input[i]
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
		body := input[1:i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("invalid string literal: %w", err)
		}
		return value, i + 1, nil
	}
	return "", 0, errors.New("unterminated string literal")
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	if c := raw[0]; !(c >= '0' && c <= '9') && c != '-' && c != '+' && c != '.' {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func (s *tokenStream) peek() (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	return s.tokens[s.pos], true
}

func (s *tokenStream) match(kind tokenKind) bool {
	tok, ok := s.peek()
	if !ok || tok.kind != kind {
		return false
	}
	s.pos++
	return true
}

var keywords = map[string]model.Operator{
	"in":       model.OpIn,
	"notin":    model.OpNotIn,
	"isset":    model.OpIsSet,
	"isnotset": model.OpIsNotSet,
}

func parseCondition(stream *tokenStream) (model.Condition, error) {
	tok, ok := stream.peek()
	if !ok {
		return model.Condition{}, errors.New("expected a condition")
	}
	switch tok.kind {
	case tokenNot:
		return model.Condition{}, errors.New("'!' is not supported, use '!=', notIn or isNotSet")
	case tokenLParen:
		return model.Condition{}, errors.New("grouping with parentheses is not supported")
	case tokenIdentifier, tokenNumber:
		// numeric-looking ids (generated uuids) are accepted on the left side
	default:
		return model.Condition{}, fmt.Errorf("expected a field id, got %q", tok.raw)
	}
	stream.pos++
	cond := model.Condition{FieldID: tok.raw}

	opTok, ok := stream.peek()
	if !ok {
		return model.Condition{}, fmt.Errorf("missing operator after %q", cond.FieldID)
	}
	stream.pos++
	switch opTok.kind {
	case tokenEq:
		cond.Operator = model.OpEquals
	case tokenNeq:
		cond.Operator = model.OpNotEquals
	case tokenIdentifier:
		op, known := keywords[strings.ToLower(opTok.raw)]
		if !known {
			return model.Condition{}, fmt.Errorf("unknown operator %q", opTok.raw)
		}
		cond.Operator = op
	default:
		return model.Condition{}, fmt.Errorf("unknown operator %q", opTok.raw)
	}

	switch {
	case !cond.Operator.TakesValue():
		return cond, nil
	case cond.Operator.TakesList():
		values, err := parseList(stream)
		if err != nil {
			return model.Condition{}, err
		}
		cond.Value = values
	default:
		value, err := parseLiteral(stream)
		if err != nil {
			return model.Condition{}, err
		}
		cond.Value = value
	}
	return cond, nil
}

func parseList(stream *tokenStream) ([]any, error) {
	if !stream.match(tokenLBracket) {
		return nil, errors.New("expected '[' to start a list")
	}
	var values []any
	for {
		if stream.match(tokenRBracket) {
			if len(values) == 0 {
				return nil, errors.New("list needs at least one value")
			}
			return values, nil
		}
		if len(values) > 0 && !stream.match(tokenComma) {
			return nil, errors.New("expected ',' or ']' in list")
		}
		value, err := parseLiteral(stream)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
}

func parseLiteral(stream *tokenStream) (any, error) {
	tok, ok := stream.peek()
	if !ok {
		return nil, errors.New("missing literal")
	}
	stream.pos++
	switch tok.kind {
	case tokenString:
		return tok.raw, nil
	case tokenNumber:
		n, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number literal %q", tok.raw)
		}
		return n, nil
	case tokenBool:
		return tok.raw == "true", nil
	case tokenIdentifier:
		// bare words compare as strings: status == active
		return tok.raw, nil
	case tokenNull:
		return nil, errors.New("null is not a value, use isSet or isNotSet")
	}
	return nil, fmt.Errorf("expected a literal, got %q", tok.raw)
}
