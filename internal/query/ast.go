// Package query implements the small free-text search query language: bare
// tokens (implicit AND), quoted phrases, -negation, AND/OR connectives,
// parenthesized groups, wildcard tokens (*, ?), field-qualified terms,
// fuzzy terms (~) and ranges ([a TO b]).
//
// The AST is a closed tagged union over Kind. Consumers switch over Kind
// exhaustively; adding a node kind is a compile-time visible change.
package query

// Kind enumerates the node kinds of the query AST.
type Kind int

const (
	// KindRoot is the top of every parsed query. Its children form an
	// implicit conjunction.
	KindRoot Kind = iota
	// KindAnd joins its children conjunctively.
	KindAnd
	// KindOr joins its children disjunctively.
	KindOr
	// KindNot negates its single child.
	KindNot
	// KindToken is a bare search word.
	KindToken
	// KindPhrase is a quoted phrase, matched as a whole.
	KindPhrase
	// KindWildcard is a token containing * or ? pattern characters.
	KindWildcard
	// KindField is a field-qualified term (field:value).
	KindField
	// KindFuzzy is a fuzzy-match term (term~ or term~2).
	KindFuzzy
	// KindRange is a range term ([low TO high]).
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	case KindToken:
		return "token"
	case KindPhrase:
		return "phrase"
	case KindWildcard:
		return "wildcard"
	case KindField:
		return "field"
	case KindFuzzy:
		return "fuzzy"
	case KindRange:
		return "range"
	}
	return "unknown"
}

// Node is one node of the query AST.
type Node struct {
	Kind Kind
	// Value holds the token/phrase/wildcard text, the field value for
	// KindField and the base term for KindFuzzy.
	Value string
	// Field is the qualifier name for KindField.
	Field string
	// Lower and Upper are the bounds of a KindRange node.
	Lower string
	Upper string
	// Children of KindRoot, KindAnd, KindOr and KindNot nodes.
	Children []*Node
}

// IsLeaf reports whether the node carries a term rather than children.
func (n *Node) IsLeaf() bool {
	switch n.Kind {
	case KindToken, KindPhrase, KindWildcard, KindField, KindFuzzy, KindRange:
		return true
	}
	return false
}
