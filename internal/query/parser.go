package query

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokTerm
	tokPhrase
	tokRange
	tokLParen
	tokRParen
	tokMinus
	tokAnd
	tokOr
)

type token struct {
	kind  tokenKind
	value string
}

// Parse turns a free-text query into an AST. Parsing is best effort and never
// fails: unbalanced parentheses and dangling connectives resolve to the most
// permissive interpretation. Empty input yields a root with no children,
// which compiles to a match-all predicate.
func Parse(text string) *Node {
	p := &parser{tokens: lex(text)}
	var tops []*Node
	for p.peek().kind != tokEOF {
		if n := p.parseOr(); n != nil {
			tops = append(tops, n)
		}
		// a stray closing paren is skipped, not an error
		if p.peek().kind == tokRParen {
			p.next()
		}
	}
	root := &Node{Kind: KindRoot}
	switch len(tops) {
	case 0:
	case 1:
		// the root absorbs a top-level conjunction
		if tops[0].Kind == KindAnd {
			root.Children = tops[0].Children
		} else {
			root.Children = tops
		}
	default:
		root.Children = tops
	}
	return root
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) parseOr() *Node {
	nodes := appendNonNil(nil, p.parseAnd())
	for p.peek().kind == tokOr {
		p.next()
		nodes = appendNonNil(nodes, p.parseAnd())
	}
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}
	return &Node{Kind: KindOr, Children: nodes}
}

func (p *parser) parseAnd() *Node {
	var nodes []*Node
	for {
		switch p.peek().kind {
		case tokEOF, tokOr, tokRParen:
			switch len(nodes) {
			case 0:
				return nil
			case 1:
				return nodes[0]
			}
			return &Node{Kind: KindAnd, Children: nodes}
		case tokAnd:
			// explicit AND between implicit conjuncts
			p.next()
		default:
			nodes = appendNonNil(nodes, p.parseUnary())
		}
	}
}

func (p *parser) parseUnary() *Node {
	switch t := p.next(); t.kind {
	case tokMinus:
		child := p.parseUnary()
		if child == nil {
			return nil
		}
		return &Node{Kind: KindNot, Children: []*Node{child}}
	case tokLParen:
		group := p.parseOr()
		if p.peek().kind == tokRParen {
			p.next()
		}
		return group
	case tokPhrase:
		return &Node{Kind: KindPhrase, Value: t.value}
	case tokRange:
		return parseRange(t.value)
	case tokTerm:
		return classifyTerm(t.value)
	case tokAnd, tokOr:
		// dangling connective, drop it
		return nil
	}
	return nil
}

func appendNonNil(nodes []*Node, n *Node) []*Node {
	if n == nil {
		return nodes
	}
	return append(nodes, n)
}

// classifyTerm maps a scanned word to its leaf kind.
func classifyTerm(term string) *Node {
	if strings.ContainsAny(term, "*?") {
		return &Node{Kind: KindWildcard, Value: term}
	}
	if base, ok := fuzzyBase(term); ok {
		return &Node{Kind: KindFuzzy, Value: base}
	}
	if i := strings.Index(term, ":"); i > 0 && i < len(term)-1 {
		return &Node{Kind: KindField, Field: term[:i], Value: term[i+1:]}
	}
	return &Node{Kind: KindToken, Value: term}
}

func fuzzyBase(term string) (string, bool) {
	i := strings.IndexByte(term, '~')
	if i <= 0 {
		return "", false
	}
	for _, r := range term[i+1:] {
		if !unicode.IsDigit(r) {
			return "", false
		}
	}
	return term[:i], true
}

func parseRange(inner string) *Node {
	parts := strings.SplitN(inner, " TO ", 2)
	if len(parts) != 2 {
		return &Node{Kind: KindToken, Value: inner}
	}
	return &Node{
		Kind:  KindRange,
		Lower: strings.TrimSpace(parts[0]),
		Upper: strings.TrimSpace(parts[1]),
	}
}

func lex(text string) []token {
	var tokens []token
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		case r == '"':
			value, n := scanUntil(runes[i+1:], '"')
			tokens = append(tokens, token{kind: tokPhrase, value: value})
			i += 1 + n
		case r == '[':
			value, n := scanUntil(runes[i+1:], ']')
			tokens = append(tokens, token{kind: tokRange, value: value})
			i += 1 + n
		case r == '-':
			// a leading hyphen negates; an embedded one is part of the term
			tokens = append(tokens, token{kind: tokMinus})
			i++
		default:
			start := i
			for i < len(runes) && !isTermBoundary(runes[i]) {
				i++
			}
			term := string(runes[start:i])
			switch strings.ToUpper(term) {
			case "AND":
				tokens = append(tokens, token{kind: tokAnd})
			case "OR":
				tokens = append(tokens, token{kind: tokOr})
			default:
				tokens = append(tokens, token{kind: tokTerm, value: term})
			}
		}
	}
	return tokens
}

// scanUntil returns the runes before the closing delimiter and the number of
// runes consumed including the delimiter. A missing delimiter closes at end
// of input.
func scanUntil(runes []rune, delim rune) (string, int) {
	for i, r := range runes {
		if r == delim {
			return string(runes[:i]), i + 1
		}
	}
	return string(runes), len(runes)
}

func isTermBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"'
}
