package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarkdown(t *testing.T) {
	markdown := `---
title: Cache Aside Entry
tags: ["cache", "aside"]
categories: ["Programming", "Java"]
---

# Cache Aside Entry
This is a cache aside entry.`
	now := time.Now()
	author := Author{Name: "demo", Date: &now}
	e, err := ParseMarkdown(NewEntryKey(100, ""), markdown, author, author)
	require.NoError(t, err)
	assert.Equal(t, "Cache Aside Entry", e.FrontMatter.Title)
	assert.Equal(t, []Tag{{Name: "cache"}, {Name: "aside"}}, e.FrontMatter.Tags)
	assert.Equal(t, []Category{{Name: "Programming"}, {Name: "Java"}}, e.FrontMatter.Categories)
	assert.Equal(t, "# Cache Aside Entry\nThis is a cache aside entry.", e.Content)
	assert.Equal(t, author, e.Created)
	assert.Equal(t, author, e.Updated)
}

func TestParseMarkdownVersionedTags(t *testing.T) {
	markdown := `---
title: Versions
summary: short one
tags: [{"name": "postgresql", "version": "15.0"}, "database"]
categories: ["Tech"]
---

body`
	e, err := ParseMarkdown(NewEntryKey(1, "t1"), markdown, UnknownAuthor, UnknownAuthor)
	require.NoError(t, err)
	assert.Equal(t, "short one", e.FrontMatter.Summary)
	assert.Equal(t, []Tag{{Name: "postgresql", Version: "15.0"}, {Name: "database"}}, e.FrontMatter.Tags)
}

func TestParseMarkdownWithoutFrontMatter(t *testing.T) {
	e, err := ParseMarkdown(NewEntryKey(1, ""), "just a body", UnknownAuthor, UnknownAuthor)
	require.NoError(t, err)
	assert.Empty(t, e.FrontMatter.Title)
	assert.Equal(t, "just a body", e.Content)
}

func TestMarkdownRoundTrip(t *testing.T) {
	original := Entry{
		EntryKey: NewEntryKey(11, "t1"),
		FrontMatter: FrontMatter{
			Title:   "Test Entry Title",
			Summary: "This is a brief summary.",
			Tags: []Tag{
				{Name: "postgresql", Version: "15.0"},
				{Name: "database"},
				{Name: "aurora", Version: "2.0"},
			},
			Categories: []Category{{Name: "Technology"}, {Name: "Programming"}},
		},
		Content: "This is a test content for the entry.",
		Created: UnknownAuthor,
		Updated: UnknownAuthor,
	}
	parsed, err := ParseMarkdown(original.EntryKey, original.ToMarkdown(), UnknownAuthor, UnknownAuthor)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestMarkdownRoundTripQuoting(t *testing.T) {
	original := Entry{
		EntryKey: NewEntryKey(1, ""),
		FrontMatter: FrontMatter{
			Title:      "How to: tune GemFire",
			Categories: []Category{{Name: "a|b"}},
			Tags:       []Tag{{Name: "odd tag"}},
		},
		Content: "body",
		Created: UnknownAuthor,
		Updated: UnknownAuthor,
	}
	parsed, err := ParseMarkdown(original.EntryKey, original.ToMarkdown(), UnknownAuthor, UnknownAuthor)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}
