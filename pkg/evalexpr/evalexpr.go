// Package evalexpr executes dependency expression code against an explicit,
// enumerated variable scope. It is a small sandboxed interpreter: a tokenizer
// plus a recursive-descent parser over a fixed grammar of comparisons,
// boolean/arithmetic operators, member access, indexing, list literals, and
// calls on injected helper functions. Nothing outside the scope is visible
// to an expression.
package evalexpr

import (
	"errors"
	"fmt"
	"strings"
)

// Func is a helper callable injectable into an expression scope.
type Func func(args ...any) (any, error)

// Scope is the enumerated variable namespace an expression runs against.
// Values may be scalars, []any, map[string]any (or model.Document), nested
// Scopes, or Func helpers.
type Scope map[string]any

// Program is a compiled expression, reusable across scopes.
type Program struct {
	source string
	root   node
}

// Compile parses an expression. The returned Program is immutable and safe
// for concurrent Run calls.
func Compile(code string) (*Program, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, errors.New("evalexpr: empty expression")
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	stream := &tokenStream{tokens: tokens}
	root, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("evalexpr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return &Program{source: trimmed, root: root}, nil
}

// Source returns the trimmed expression text.
func (p *Program) Source() string { return p.source }

// Run executes the program against a scope, returning the expression value.
// Unknown identifiers, member access on nil, and calls on non-callables are
// runtime errors.
func (p *Program) Run(scope Scope) (any, error) {
	return p.root.eval(scope)
}

// Eval compiles and runs in one step.
func Eval(code string, scope Scope) (any, error) {
	program, err := Compile(code)
	if err != nil {
		return nil, err
	}
	return program.Run(scope)
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
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenIn
	tokenAnd
	tokenOr
	tokenNot
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
	tokenDot
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	for i < len(input) {
		ch := peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			i++
			tokens = append(tokens, token{tokenLParen, "("})
		case ch == ')':
			i++
			tokens = append(tokens, token{tokenRParen, ")"})
		case ch == '[':
			i++
			tokens = append(tokens, token{tokenLBracket, "["})
		case ch == ']':
			i++
			tokens = append(tokens, token{tokenRBracket, "]"})
		case ch == ',':
			i++
			tokens = append(tokens, token{tokenComma, ","})
		case ch == '.':
			i++
			tokens = append(tokens, token{tokenDot, "."})
		case ch == '+':
			i++
			tokens = append(tokens, token{tokenPlus, "+"})
		case ch == '-':
			i++
			tokens = append(tokens, token{tokenMinus, "-"})
		case ch == '*':
			i++
			tokens = append(tokens, token{tokenStar, "*"})
		case ch == '/':
			i++
			tokens = append(tokens, token{tokenSlash, "/"})
		case ch == '%':
			i++
			tokens = append(tokens, token{tokenPercent, "%"})
		case ch == '!':
			i++
			if peek() == '=' {
				i++
				// tolerate the strict form authors paste in from scripts
				if peek() == '=' {
					i++
				}
				tokens = append(tokens, token{tokenNeq, "!="})
			} else {
				tokens = append(tokens, token{tokenNot, "!"})
			}
		case ch == '=':
			i++
			if peek() != '=' {
				return nil, errors.New("evalexpr: unexpected '='; use '=='")
			}
			i++
			if peek() == '=' {
				i++
			}
			tokens = append(tokens, token{tokenEq, "=="})
		case ch == '<':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{tokenLte, "<="})
			} else {
				tokens = append(tokens, token{tokenLt, "<"})
			}
		case ch == '>':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{tokenGte, ">="})
			} else {
				tokens = append(tokens, token{tokenGt, ">"})
			}
		case ch == '&':
			i++
			if peek() != '&' {
				return nil, errors.New("evalexpr: unexpected '&'; use '&&'")
			}
			i++
			tokens = append(tokens, token{tokenAnd, "&&"})
		case ch == '|':
			i++
			if peek() != '|' {
				return nil, errors.New("evalexpr: unexpected '|'; use '||'")
			}
			i++
			tokens = append(tokens, token{tokenOr, "||"})
		case ch == '"' || ch == '\'':
			value, rest, err := scanString(input[i:])
			if err != nil {
				return nil, err
			}
			i = len(input) - len(rest)
			tokens = append(tokens, token{tokenString, value})
		case ch >= '0' && ch <= '9':
			start := i
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				i++
			}
			tokens = append(tokens, token{tokenNumber, input[start:i]})
		case isIdentByte(ch):
			start := i
			for i < len(input) && (isIdentByte(input[i]) || input[i] >= '0' && input[i] <= '9') {
				i++
			}
			raw := input[start:i]
			switch raw {
			case "true", "false":
				tokens = append(tokens, token{tokenBool, raw})
			case "null", "undefined", "nil":
				tokens = append(tokens, token{tokenNull, raw})
			case "in":
				tokens = append(tokens, token{tokenIn, raw})
			default:
				tokens = append(tokens, token{tokenIdentifier, raw})
			}
		default:
			return nil, fmt.Errorf("evalexpr: unexpected character %q", string(ch))
		}
	}
	return tokens, nil
}

func scanString(input string) (value, rest string, err error) {
	quote := input[0]
	var sb strings.Builder
	i := 1
	for i < len(input) {
		c := input[i]
		if c == '\\' {
			if i+1 >= len(input) {
				break
			}
			i++
			switch input[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(input[i])
			}
			i++
			continue
		}
		if c == quote {
			return sb.String(), input[i+1:], nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", "", errors.New("evalexpr: unterminated string literal")
}

func isIdentByte(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

type tokenStream struct {
	tokens []token
	pos    int
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) peekKind() (tokenKind, bool) {
	if s.pos >= len(s.tokens) {
		return 0, false
	}
	return s.tokens[s.pos].kind, true
}

func (s *tokenStream) next() (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func parseOr(stream *tokenStream) (node, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (node, error) {
	left, err := parseComparison(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseComparison(stream)
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func parseComparison(stream *tokenStream) (node, error) {
	left, err := parseAdditive(stream)
	if err != nil {
		return nil, err
	}
	kind, ok := stream.peekKind()
	if !ok {
		return left, nil
	}
	switch kind {
	case tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte, tokenIn:
		stream.pos++
		right, err := parseAdditive(stream)
		if err != nil {
			return nil, err
		}
		return compareNode{op: kind, left: left, right: right}, nil
	}
	return left, nil
}

func parseAdditive(stream *tokenStream) (node, error) {
	left, err := parseMultiplicative(stream)
	if err != nil {
		return nil, err
	}
	for {
		kind, ok := stream.peekKind()
		if !ok || kind != tokenPlus && kind != tokenMinus {
			return left, nil
		}
		stream.pos++
		right, err := parseMultiplicative(stream)
		if err != nil {
			return nil, err
		}
		left = arithmeticNode{op: kind, left: left, right: right}
	}
}

func parseMultiplicative(stream *tokenStream) (node, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for {
		kind, ok := stream.peekKind()
		if !ok || kind != tokenStar && kind != tokenSlash && kind != tokenPercent {
			return left, nil
		}
		stream.pos++
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = arithmeticNode{op: kind, left: left, right: right}
	}
}

func parseUnary(stream *tokenStream) (node, error) {
	// `!` and unary `-` bind tighter than comparisons, as in scripts.
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	if stream.match(tokenMinus) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return negateNode{inner}, nil
	}
	return parsePostfix(stream)
}

func parsePostfix(stream *tokenStream) (node, error) {
	base, err := parsePrimary(stream)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case stream.match(tokenDot):
			tok, ok := stream.next()
			if !ok || tok.kind != tokenIdentifier {
				return nil, errors.New("evalexpr: expected property name after '.'")
			}
			base = memberNode{base: base, name: tok.raw}
		case stream.match(tokenLBracket):
			index, err := parseOr(stream)
			if err != nil {
				return nil, err
			}
			if !stream.match(tokenRBracket) {
				return nil, errors.New("evalexpr: missing closing ']'")
			}
			base = indexNode{base: base, index: index}
		case stream.match(tokenLParen):
			var args []node
			if !stream.match(tokenRParen) {
				for {
					arg, err := parseOr(stream)
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if stream.match(tokenComma) {
						continue
					}
					if stream.match(tokenRParen) {
						break
					}
					return nil, errors.New("evalexpr: missing closing ')' in call")
				}
			}
			base = callNode{callee: base, args: args}
		default:
			return base, nil
		}
	}
}

func parsePrimary(stream *tokenStream) (node, error) {
	tok, ok := stream.next()
	if !ok {
		return nil, errors.New("evalexpr: unexpected end of expression")
	}
	switch tok.kind {
	case tokenLParen:
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("evalexpr: missing closing ')'")
		}
		return inner, nil
	case tokenLBracket:
		var items []node
		if !stream.match(tokenRBracket) {
			for {
				item, err := parseOr(stream)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
				if stream.match(tokenComma) {
					continue
				}
				if stream.match(tokenRBracket) {
					break
				}
				return nil, errors.New("evalexpr: missing closing ']' in list")
			}
		}
		return listNode{items}, nil
	case tokenString:
		return literalNode{tok.raw}, nil
	case tokenNumber:
		f, err := parseNumber(tok.raw)
		if err != nil {
			return nil, err
		}
		return literalNode{f}, nil
	case tokenBool:
		return literalNode{tok.raw == "true"}, nil
	case tokenNull:
		return literalNode{nil}, nil
	case tokenIdentifier:
		return identifierNode{tok.raw}, nil
	default:
		return nil, fmt.Errorf("evalexpr: unexpected token %q", tok.raw)
	}
}
