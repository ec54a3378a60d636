package entries

import (
	"fmt"
	"strings"

	"github.com/categolj/entry-api-gemfire/internal/query"
)

// Fragment is a compiled OQL predicate plus the parameters it binds,
// numbered from the start index the caller threads in.
type Fragment struct {
	Query  string
	Params []any
}

// IsEmpty reports whether the fragment carries no predicate.
func (f Fragment) IsEmpty() bool {
	return f.Query == ""
}

// ConvertQuery compiles a free-text query into an OQL predicate over the
// lower-cased content field. Parameters are numbered from startIndex.
// Field, fuzzy and range terms are accepted by the grammar but compile to
// nothing; the query language reserves them without executing them.
func ConvertQuery(text string, startIndex int) Fragment {
	root := query.Parse(text)
	frag, params, _ := compileNode(root, startIndex, true)
	return Fragment{Query: frag, Params: params}
}

// ConvertTag compiles an exact tag-membership predicate.
func ConvertTag(tag string, startIndex int) Fragment {
	return Fragment{
		Query:  fmt.Sprintf("$%d IN tags", startIndex),
		Params: []any{tag},
	}
}

// ConvertCategories compiles a category-path prefix predicate: the stored
// ordered category path must start with the requested categories.
func ConvertCategories(categories []string, startIndex int) Fragment {
	if len(categories) == 0 {
		return Fragment{}
	}
	terms := make([]string, 0, len(categories))
	params := make([]any, 0, len(categories))
	for i, category := range categories {
		terms = append(terms, fmt.Sprintf("categories[%d] = $%d", i, startIndex+i))
		params = append(params, category)
	}
	return Fragment{
		Query: fmt.Sprintf("size(categories) >= %d AND (%s)",
			len(categories), strings.Join(terms, " AND ")),
		Params: params,
	}
}

// compileNode lowers one AST node to (fragment, params, next index). The
// parameter index is threaded through explicitly so each node compiles as a
// pure function. A top-level node joins its children without surrounding
// parentheses; nested connectives keep them to preserve precedence.
func compileNode(n *query.Node, index int, top bool) (string, []any, int) {
	switch n.Kind {
	case query.KindRoot:
		if len(n.Children) == 1 {
			return compileNode(n.Children[0], index, true)
		}
		return compileChildren(n.Children, " AND ", index, true)
	case query.KindAnd:
		return compileChildren(n.Children, " AND ", index, top)
	case query.KindOr:
		return compileChildren(n.Children, " OR ", index, top)
	case query.KindNot:
		return compileNot(n, index)
	case query.KindToken, query.KindPhrase:
		param := "%" + strings.ToLower(n.Value) + "%"
		return likeFragment(index), []any{param}, index + 1
	case query.KindWildcard:
		return likeFragment(index), []any{wildcardParam(n.Value)}, index + 1
	case query.KindField, query.KindFuzzy, query.KindRange:
		// reserved syntax, no executable semantics
		return "", nil, index
	}
	return "", nil, index
}

func likeFragment(index int) string {
	return fmt.Sprintf("content.toLowerCase() LIKE $%d", index)
}

// wildcardParam translates the query wildcards to their LIKE counterparts.
// Unlike plain tokens, the value is not wrapped in %.
func wildcardParam(value string) string {
	replaced := strings.NewReplacer("*", "%", "?", "_").Replace(value)
	return strings.ToLower(replaced)
}

func compileChildren(children []*query.Node, sep string, index int, top bool) (string, []any, int) {
	var frags []string
	var params []any
	for _, child := range children {
		frag, childParams, next := compileNode(child, index, false)
		if frag == "" {
			continue
		}
		frags = append(frags, frag)
		params = append(params, childParams...)
		index = next
	}
	switch len(frags) {
	case 0:
		return "", nil, index
	case 1:
		return frags[0], params, index
	}
	joined := strings.Join(frags, sep)
	if !top {
		joined = "(" + joined + ")"
	}
	return joined, params, index
}

// compileNot negates its child. A leaf token or phrase child compiles
// directly to a negated substring match so the fragment stays flat.
func compileNot(n *query.Node, index int) (string, []any, int) {
	child := n.Children[0]
	switch child.Kind {
	case query.KindToken, query.KindPhrase, query.KindWildcard:
		frag, params, next := compileNode(child, index, false)
		return "NOT (" + frag + ")", params, next
	}
	frag, params, next := compileNode(child, index, false)
	if frag == "" {
		return "", nil, index
	}
	return "NOT (" + frag + ")", params, next
}
