package entry

// SearchCriteria narrows an entry listing. The zero value matches all entries.
type SearchCriteria struct {
	// Query is a free-text query in the small search query language
	// (tokens, quoted phrases, -negation, AND/OR, parentheses, wildcards).
	Query string
	// Tag must match a tag name exactly.
	Tag string
	// Categories is matched as a prefix of the stored ordered category path.
	Categories []string
}

// IsDefault reports whether the criteria match all entries.
func (c SearchCriteria) IsDefault() bool {
	return c.Query == "" && c.Tag == "" && len(c.Categories) == 0
}
