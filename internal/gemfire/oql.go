package gemfire

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// This file implements the OQL subset the in-process region evaluates:
//
//	SELECT [DISTINCT] <projections | *> FROM /Region [alias] [, alias.path alias]
//	  [WHERE <expr>] [GROUP BY <path>] [ORDER BY <path> [DESC]] [LIMIT <n | $n>]
//
// with AND/OR/NOT, the comparison operators, LIKE, IN, positional $n
// parameters, path navigation (a.b, a[0], a.toLowerCase()), size(a) and
// COUNT(*). It covers every query the entry repository issues; it is not a
// general OQL engine.

type selectStmt struct {
	distinct    bool
	star        bool
	projections []projection
	from        []fromClause
	where       oqlExpr
	groupBy     *pathExpr
	orderBy     []orderKey
	limit       oqlExpr
}

type projection struct {
	expr  oqlExpr
	alias string
}

type fromClause struct {
	path  *pathExpr
	alias string
}

type orderKey struct {
	expr oqlExpr
	desc bool
}

type oqlExpr interface {
	eval(env oqlEnv, params []any) any
}

// oqlEnv binds FROM aliases to the current row and join elements. The empty
// alias is the row of the primary region.
type oqlEnv map[string]any

type literalExpr struct{ value any }

func (e literalExpr) eval(oqlEnv, []any) any { return e.value }

type paramExpr struct{ index int } // 1-based

func (e paramExpr) eval(_ oqlEnv, params []any) any {
	if e.index < 1 || e.index > len(params) {
		return nil
	}
	return normalizeValue(params[e.index-1])
}

type countStarExpr struct{}

func (countStarExpr) eval(env oqlEnv, _ []any) any {
	if n, ok := env[groupCountAlias].(float64); ok {
		return n
	}
	return float64(1)
}

// groupCountAlias carries the group size through the env to COUNT(*).
const groupCountAlias = "\x00count"

type sizeExpr struct{ arg oqlExpr }

func (e sizeExpr) eval(env oqlEnv, params []any) any {
	switch v := e.arg.eval(env, params).(type) {
	case []any:
		return float64(len(v))
	case string:
		return float64(len(v))
	}
	return nil
}

type pathSeg struct {
	name     string
	isCall   bool
	hasIndex bool
	index    int
}

type pathExpr struct{ segs []pathSeg }

func (e *pathExpr) eval(env oqlEnv, _ []any) any {
	segs := e.segs
	var cur any
	if v, ok := env[segs[0].name]; ok && !segs[0].isCall && !segs[0].hasIndex {
		cur = v
		segs = segs[1:]
	} else {
		cur = env[""]
	}
	for _, seg := range segs {
		switch {
		case seg.isCall:
			cur = evalCall(seg.name, cur)
		default:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur = m[seg.name]
			if seg.hasIndex {
				list, ok := cur.([]any)
				if !ok || seg.index < 0 || seg.index >= len(list) {
					return nil
				}
				cur = list[seg.index]
			}
		}
	}
	return cur
}

// leaf returns the final segment name, used as the projected column name.
func (e *pathExpr) leaf() string {
	return e.segs[len(e.segs)-1].name
}

func evalCall(method string, receiver any) any {
	s, ok := receiver.(string)
	if !ok {
		return nil
	}
	switch method {
	case "toLowerCase":
		return strings.ToLower(s)
	case "toUpperCase":
		return strings.ToUpper(s)
	case "trim":
		return strings.TrimSpace(s)
	}
	return nil
}

type notExpr struct{ child oqlExpr }

func (e notExpr) eval(env oqlEnv, params []any) any {
	return !truthy(e.child.eval(env, params))
}

type binaryExpr struct {
	op    string
	left  oqlExpr
	right oqlExpr
}

func (e binaryExpr) eval(env oqlEnv, params []any) any {
	switch e.op {
	case "AND":
		return truthy(e.left.eval(env, params)) && truthy(e.right.eval(env, params))
	case "OR":
		return truthy(e.left.eval(env, params)) || truthy(e.right.eval(env, params))
	}
	l := e.left.eval(env, params)
	r := e.right.eval(env, params)
	switch e.op {
	case "=":
		return looseEqual(l, r)
	case "<>", "!=":
		return !looseEqual(l, r)
	case "LIKE":
		return likeMatch(l, r)
	case "IN":
		list, ok := r.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if looseEqual(l, item) {
				return true
			}
		}
		return false
	}
	cmp, ok := compareValues(l, r)
	if !ok {
		return false
	}
	switch e.op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// normalizeValue folds the numeric types of bind parameters into float64 so
// they compare equal to decoded JSON numbers.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}

func looseEqual(l, r any) bool {
	l, r = normalizeValue(l), normalizeValue(r)
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	switch lv := l.(type) {
	case float64:
		rv, ok := r.(float64)
		return ok && lv == rv
	case string:
		rv, ok := r.(string)
		return ok && lv == rv
	case bool:
		rv, ok := r.(bool)
		return ok && lv == rv
	}
	lb, err1 := json.Marshal(l)
	rb, err2 := json.Marshal(r)
	return err1 == nil && err2 == nil && string(lb) == string(rb)
}

func compareValues(l, r any) (int, bool) {
	l, r = normalizeValue(l), normalizeValue(r)
	switch lv := l.(type) {
	case float64:
		rv, ok := r.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case lv < rv:
			return -1, true
		case lv > rv:
			return 1, true
		}
		return 0, true
	case string:
		rv, ok := r.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(lv, rv), true
	}
	return 0, false
}

func likeMatch(value, pattern any) bool {
	s, ok1 := value.(string)
	p, ok2 := pattern.(string)
	if !ok1 || !ok2 {
		return false
	}
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range p {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// lexer

type oqlTokenKind int

const (
	oqlEOF oqlTokenKind = iota
	oqlIdent
	oqlQuotedIdent
	oqlString
	oqlNumber
	oqlParam
	oqlPunct
)

type oqlToken struct {
	kind oqlTokenKind
	text string
}

func lexOQL(text string) ([]oqlToken, error) {
	var tokens []oqlToken
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			// comment, skipped
			end := strings.Index(string(runes[i+2:]), "*/")
			if end < 0 {
				return nil, fmt.Errorf("oql: unterminated comment")
			}
			i += 2 + end + 2
		case r == '/' || isOQLIdentStart(r):
			start := i
			i++
			for i < len(runes) && isOQLIdentPart(runes[i]) {
				i++
			}
			tokens = append(tokens, oqlToken{kind: oqlIdent, text: string(runes[start:i])})
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, oqlToken{kind: oqlNumber, text: string(runes[start:i])})
		case r == '\'':
			i++
			start := i
			for i < len(runes) && runes[i] != '\'' {
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("oql: unterminated string literal")
			}
			tokens = append(tokens, oqlToken{kind: oqlString, text: string(runes[start:i])})
			i++
		case r == '"':
			i++
			start := i
			for i < len(runes) && runes[i] != '"' {
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("oql: unterminated quoted identifier")
			}
			tokens = append(tokens, oqlToken{kind: oqlQuotedIdent, text: string(runes[start:i])})
			i++
		case r == '$':
			i++
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			if start == i {
				return nil, fmt.Errorf("oql: bare $ without parameter index")
			}
			tokens = append(tokens, oqlToken{kind: oqlParam, text: string(runes[start:i])})
		case r == '<' && i+1 < len(runes) && (runes[i+1] == '=' || runes[i+1] == '>'):
			tokens = append(tokens, oqlToken{kind: oqlPunct, text: string(runes[i : i+2])})
			i += 2
		case r == '>' && i+1 < len(runes) && runes[i+1] == '=':
			tokens = append(tokens, oqlToken{kind: oqlPunct, text: ">="})
			i += 2
		case r == '!' && i+1 < len(runes) && runes[i+1] == '=':
			tokens = append(tokens, oqlToken{kind: oqlPunct, text: "!="})
			i += 2
		case strings.ContainsRune("(),[].*=<>", r):
			tokens = append(tokens, oqlToken{kind: oqlPunct, text: string(r)})
			i++
		default:
			return nil, fmt.Errorf("oql: unexpected character %q", r)
		}
	}
	tokens = append(tokens, oqlToken{kind: oqlEOF})
	return tokens, nil
}

func isOQLIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isOQLIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// parser

type oqlParser struct {
	tokens []oqlToken
	pos    int
}

func parseOQL(text string) (*selectStmt, error) {
	tokens, err := lexOQL(text)
	if err != nil {
		return nil, err
	}
	p := &oqlParser{tokens: tokens}
	stmt, err := p.parseSelect()
	if err != nil {
		return nil, fmt.Errorf("%w in query %q", err, text)
	}
	return stmt, nil
}

func (p *oqlParser) peek() oqlToken { return p.tokens[p.pos] }

func (p *oqlParser) next() oqlToken {
	t := p.tokens[p.pos]
	if t.kind != oqlEOF {
		p.pos++
	}
	return t
}

func (p *oqlParser) atKeyword(kw string) bool {
	t := p.peek()
	return t.kind == oqlIdent && strings.EqualFold(t.text, kw)
}

func (p *oqlParser) acceptKeyword(kw string) bool {
	if p.atKeyword(kw) {
		p.next()
		return true
	}
	return false
}

func (p *oqlParser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return fmt.Errorf("oql: expected %s, got %q", kw, p.peek().text)
	}
	return nil
}

func (p *oqlParser) acceptPunct(text string) bool {
	t := p.peek()
	if t.kind == oqlPunct && t.text == text {
		p.next()
		return true
	}
	return false
}

func (p *oqlParser) expectPunct(text string) error {
	if !p.acceptPunct(text) {
		return fmt.Errorf("oql: expected %q, got %q", text, p.peek().text)
	}
	return nil
}

func (p *oqlParser) parseSelect() (*selectStmt, error) {
	stmt := &selectStmt{}
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt.distinct = p.acceptKeyword("DISTINCT")
	if p.acceptPunct("*") {
		stmt.star = true
	} else {
		for {
			proj, err := p.parseProjection()
			if err != nil {
				return nil, err
			}
			stmt.projections = append(stmt.projections, proj)
			if !p.acceptPunct(",") {
				break
			}
		}
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	for {
		clause, err := p.parseFromClause()
		if err != nil {
			return nil, err
		}
		stmt.from = append(stmt.from, clause)
		if !p.acceptPunct(",") {
			break
		}
	}
	if p.acceptKeyword("WHERE") {
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		stmt.where = expr
	}
	if p.acceptKeyword("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		stmt.groupBy = path
	}
	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			path, err := p.parsePath()
			if err != nil {
				return nil, err
			}
			key := orderKey{expr: path}
			if p.acceptKeyword("DESC") {
				key.desc = true
			} else {
				p.acceptKeyword("ASC")
			}
			stmt.orderBy = append(stmt.orderBy, key)
			if !p.acceptPunct(",") {
				break
			}
		}
	}
	if p.acceptKeyword("LIMIT") {
		switch t := p.next(); t.kind {
		case oqlNumber:
			n, err := strconv.Atoi(t.text)
			if err != nil {
				return nil, fmt.Errorf("oql: bad limit %q", t.text)
			}
			stmt.limit = literalExpr{value: float64(n)}
		case oqlParam:
			n, _ := strconv.Atoi(t.text)
			stmt.limit = paramExpr{index: n}
		default:
			return nil, fmt.Errorf("oql: expected limit, got %q", t.text)
		}
	}
	if p.peek().kind != oqlEOF {
		return nil, fmt.Errorf("oql: trailing input at %q", p.peek().text)
	}
	return stmt, nil
}

func (p *oqlParser) parseProjection() (projection, error) {
	expr, err := p.parseOperand()
	if err != nil {
		return projection{}, err
	}
	proj := projection{expr: expr}
	if p.acceptKeyword("AS") {
		t := p.next()
		if t.kind != oqlIdent && t.kind != oqlQuotedIdent {
			return projection{}, fmt.Errorf("oql: expected column alias, got %q", t.text)
		}
		proj.alias = t.text
	}
	return proj, nil
}

func (p *oqlParser) parseFromClause() (fromClause, error) {
	path, err := p.parsePath()
	if err != nil {
		return fromClause{}, err
	}
	clause := fromClause{path: path}
	t := p.peek()
	if t.kind == oqlIdent && !isOQLKeyword(t.text) {
		clause.alias = p.next().text
	}
	return clause, nil
}

func isOQLKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "SELECT", "DISTINCT", "FROM", "WHERE", "AND", "OR", "NOT",
		"LIKE", "IN", "GROUP", "ORDER", "BY", "ASC", "DESC", "LIMIT", "AS":
		return true
	}
	return false
}

func (p *oqlParser) parseOr() (oqlExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: "OR", left: left, right: right}
	}
	return left, nil
}

func (p *oqlParser) parseAnd() (oqlExpr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: "AND", left: left, right: right}
	}
	return left, nil
}

func (p *oqlParser) parseNot() (oqlExpr, error) {
	if p.acceptKeyword("NOT") {
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notExpr{child: child}, nil
	}
	if p.acceptPunct("(") {
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return p.parseComparison()
}

func (p *oqlParser) parseComparison() (oqlExpr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	var op string
	switch t := p.peek(); {
	case t.kind == oqlPunct && isComparisonOp(t.text):
		op = p.next().text
	case p.atKeyword("LIKE"):
		p.next()
		op = "LIKE"
	case p.atKeyword("IN"):
		p.next()
		op = "IN"
	default:
		return left, nil
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return binaryExpr{op: op, left: left, right: right}, nil
}

func isComparisonOp(text string) bool {
	switch text {
	case "=", "<>", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *oqlParser) parseOperand() (oqlExpr, error) {
	switch t := p.peek(); t.kind {
	case oqlString:
		p.next()
		return literalExpr{value: t.text}, nil
	case oqlNumber:
		p.next()
		n, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("oql: bad number %q", t.text)
		}
		return literalExpr{value: n}, nil
	case oqlParam:
		p.next()
		n, _ := strconv.Atoi(t.text)
		return paramExpr{index: n}, nil
	case oqlIdent:
		if strings.EqualFold(t.text, "COUNT") {
			p.next()
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			if err := p.expectPunct("*"); err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return countStarExpr{}, nil
		}
		if strings.EqualFold(t.text, "size") {
			p.next()
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			arg, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return sizeExpr{arg: arg}, nil
		}
		return p.parsePath()
	}
	return nil, fmt.Errorf("oql: unexpected token %q", p.peek().text)
}

func (p *oqlParser) parsePath() (*pathExpr, error) {
	t := p.next()
	if t.kind != oqlIdent {
		return nil, fmt.Errorf("oql: expected identifier, got %q", t.text)
	}
	path := &pathExpr{segs: []pathSeg{{name: t.text}}}
	for {
		last := &path.segs[len(path.segs)-1]
		switch {
		case p.acceptPunct("["):
			idx := p.next()
			if idx.kind != oqlNumber {
				return nil, fmt.Errorf("oql: expected index, got %q", idx.text)
			}
			n, err := strconv.Atoi(idx.text)
			if err != nil {
				return nil, fmt.Errorf("oql: bad index %q", idx.text)
			}
			last.hasIndex = true
			last.index = n
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
		case p.acceptPunct("."):
			name := p.next()
			if name.kind != oqlIdent {
				return nil, fmt.Errorf("oql: expected field name, got %q", name.text)
			}
			seg := pathSeg{name: name.text}
			if p.acceptPunct("(") {
				if err := p.expectPunct(")"); err != nil {
					return nil, err
				}
				seg.isCall = true
			}
			path.segs = append(path.segs, seg)
		default:
			return path, nil
		}
	}
}
