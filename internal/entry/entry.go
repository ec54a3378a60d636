// Package entry defines the blog domain model. All types are immutable value
// types; mutations return a modified copy.
package entry

import (
	"time"
)

// UnknownAuthor is used when the authoritative store has no history for a file.
var UnknownAuthor = Author{Name: "unknown"}

// Author is a name plus an optional timestamp of the authoring event.
type Author struct {
	Name string     `json:"name"`
	Date *time.Time `json:"date,omitempty"`
}

// WithDate returns a copy of the author with the given timestamp.
func (a Author) WithDate(date *time.Time) Author {
	a.Date = date
	return a
}

// Tag is identified by its name; the version is informational metadata
// (e.g. the library version an article was written against).
type Tag struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Category is one element of an ordered category path.
type Category struct {
	Name string `json:"name"`
}

// CategoryNames flattens a category path into its names.
func CategoryNames(categories []Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

// FrontMatter is the metadata block of an entry. Categories form one ordered
// path in a hierarchy, not a set.
type FrontMatter struct {
	Title      string     `json:"title"`
	Summary    string     `json:"summary,omitempty"`
	Categories []Category `json:"categories"`
	Tags       []Tag      `json:"tags"`
}

// WithSummary returns a copy of the front matter with the summary replaced.
func (f FrontMatter) WithSummary(summary string) FrontMatter {
	f.Summary = summary
	return f
}

// Entry is a single blog entry.
type Entry struct {
	EntryKey    EntryKey    `json:"entryKey"`
	FrontMatter FrontMatter `json:"frontMatter"`
	Content     string      `json:"content"`
	Created     Author      `json:"created"`
	Updated     Author      `json:"updated"`
}

// WithContent returns a copy of the entry with the content replaced.
// List views use this to blank the body.
func (e Entry) WithContent(content string) Entry {
	e.Content = content
	return e
}

// WithFrontMatter returns a copy of the entry with the front matter replaced.
func (e Entry) WithFrontMatter(fm FrontMatter) Entry {
	e.FrontMatter = fm
	return e
}

// WithEntryKey returns a copy of the entry with the key replaced.
func (e Entry) WithEntryKey(key EntryKey) Entry {
	e.EntryKey = key
	return e
}

// WithAuthors returns a copy of the entry with both author records replaced.
func (e Entry) WithAuthors(created, updated Author) Entry {
	e.Created = created
	e.Updated = updated
	return e
}

// ToCursor returns the pagination cursor for this entry, i.e. its updated
// timestamp.
func (e Entry) ToCursor() *time.Time {
	return e.Updated.Date
}

// TagAndCount is the aggregate result of the tag listing.
type TagAndCount struct {
	Tag   Tag `json:"tag"`
	Count int `json:"count"`
}
