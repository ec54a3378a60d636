package entry

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

// frontMatterDoc is the YAML shape of the front matter block. Tags accept both
// plain names and {name, version} mappings.
type frontMatterDoc struct {
	Title      string    `yaml:"title"`
	Summary    string    `yaml:"summary"`
	Tags       []tagNode `yaml:"tags"`
	Categories []string  `yaml:"categories"`
}

type tagNode struct {
	Tag
}

func (t *tagNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Name = value.Value
		return nil
	}
	var aux struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	t.Name = aux.Name
	t.Version = aux.Version
	return nil
}

// ParseMarkdown builds an Entry from a markdown document with a YAML front
// matter block:
//
//	---
//	title: Hello World
//	tags: ["java", {"name": "spring-boot", "version": "3.4"}]
//	categories: ["Programming", "Java"]
//	---
//
//	body...
//
// A document without a front matter block yields an entry whose content is the
// whole document. The author records are supplied by the caller because they
// come from the authoritative store's history, not from the document.
func ParseMarkdown(key EntryKey, markdown string, created, updated Author) (Entry, error) {
	e := Entry{
		EntryKey: key,
		Created:  created,
		Updated:  updated,
	}
	text := strings.ReplaceAll(markdown, "\r\n", "\n")
	if !strings.HasPrefix(text, frontMatterDelimiter+"\n") {
		e.Content = strings.TrimLeft(text, "\n")
		return e, nil
	}
	rest := text[len(frontMatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	if end < 0 {
		e.Content = strings.TrimLeft(text, "\n")
		return e, nil
	}
	var doc frontMatterDoc
	if err := yaml.Unmarshal([]byte(rest[:end]), &doc); err != nil {
		return Entry{}, fmt.Errorf("invalid front matter: %w", err)
	}
	body := rest[end+1+len(frontMatterDelimiter):]
	e.Content = strings.TrimLeft(body, "\n")
	fm := FrontMatter{Title: doc.Title, Summary: doc.Summary}
	for _, t := range doc.Tags {
		fm.Tags = append(fm.Tags, t.Tag)
	}
	for _, c := range doc.Categories {
		fm.Categories = append(fm.Categories, Category{Name: c})
	}
	e.FrontMatter = fm
	return e, nil
}

// ToMarkdown is the inverse of ParseMarkdown. Author records are not part of
// the document; they live in the authoritative store's history.
func (e Entry) ToMarkdown() string {
	fm := e.FrontMatter
	var b strings.Builder
	b.WriteString(frontMatterDelimiter + "\n")
	b.WriteString("title: " + yamlScalar(fm.Title) + "\n")
	if fm.Summary != "" {
		b.WriteString("summary: " + yamlScalar(fm.Summary) + "\n")
	}
	b.WriteString("tags: [")
	for i, tag := range fm.Tags {
		if i > 0 {
			b.WriteString(", ")
		}
		if tag.Version == "" {
			b.WriteString(strconv.Quote(tag.Name))
		} else {
			b.WriteString(`{"name": ` + strconv.Quote(tag.Name) + `, "version": ` + strconv.Quote(tag.Version) + `}`)
		}
	}
	b.WriteString("]\n")
	b.WriteString("categories: [")
	for i, category := range fm.Categories {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(category.Name))
	}
	b.WriteString("]\n")
	b.WriteString(frontMatterDelimiter + "\n\n")
	b.WriteString(e.Content)
	return b.String()
}

// yamlScalar renders s as a YAML scalar, quoting only when the plain form
// would be ambiguous.
func yamlScalar(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ":#\"'{}[]&*?|>!%@`\n") ||
		s != strings.TrimSpace(s) || s[0] == '-' {
		return strconv.Quote(s)
	}
	return s
}
