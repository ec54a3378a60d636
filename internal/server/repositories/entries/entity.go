package entries

import (
	"fmt"
	"strings"
	"time"

	"github.com/categolj/entry-api-gemfire/internal/entry"
)

// fieldDelimiter joins category paths and versioned tags inside the stored
// record ("Tech|Cache", "postgresql|15.0").
const fieldDelimiter = "|"

// EntryEntity is the record persisted in the Entry region. The field names
// and shapes are the wire schema of an existing deployment and must not
// change: categories are flattened to names plus their joined form, and tags
// are stored twice, once as plain names in front-matter order and once as
// "name|version" pairs for the versioned subset.
type EntryEntity struct {
	EntryKey         string   `json:"entryKey"`
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	Categories       []string `json:"categories"`
	JoinedCategories string   `json:"joinedCategories"`
	Tags             []string `json:"tags"`
	TagWithVersions  []string `json:"tagWithVersions"`
	Content          string   `json:"content"`
	CreatedBy        string   `json:"createdBy"`
	CreatedAt        int64    `json:"createdAt"`
	UpdatedBy        string   `json:"updatedBy"`
	UpdatedAt        int64    `json:"updatedAt"`
	TenantID         string   `json:"tenantId"`
}

func toGemfireKey(key entry.EntryKey) string {
	return key.String()
}

// FromModel flattens an entry into its stored form.
func FromModel(e entry.Entry) EntryEntity {
	fm := e.FrontMatter
	categories := entry.CategoryNames(fm.Categories)
	tags := make([]string, 0, len(fm.Tags))
	var tagWithVersions []string
	for _, tag := range fm.Tags {
		tags = append(tags, tag.Name)
		if tag.Version != "" {
			tagWithVersions = append(tagWithVersions, tag.Name+fieldDelimiter+tag.Version)
		}
	}
	return EntryEntity{
		EntryKey:         toGemfireKey(e.EntryKey),
		Title:            fm.Title,
		Summary:          fm.Summary,
		Categories:       categories,
		JoinedCategories: strings.Join(categories, fieldDelimiter),
		Tags:             tags,
		TagWithVersions:  tagWithVersions,
		Content:          e.Content,
		CreatedBy:        e.Created.Name,
		CreatedAt:        toMillis(e.Created),
		UpdatedBy:        e.Updated.Name,
		UpdatedAt:        toMillis(e.Updated),
		TenantID:         e.EntryKey.TenantID,
	}
}

func toMillis(a entry.Author) int64 {
	if a.Date == nil {
		return 0
	}
	return a.Date.UnixMilli()
}

func fromMillis(name string, millis int64) entry.Author {
	author := entry.Author{Name: name}
	if millis != 0 {
		date := time.UnixMilli(millis).UTC()
		author.Date = &date
	}
	return author
}

// ToModel is the inverse of FromModel. Tag versions are reattached to the
// plain tag names, preserving front-matter order.
func (e EntryEntity) ToModel() (entry.Entry, error) {
	key, err := entry.ParseEntryKey(e.EntryKey)
	if err != nil {
		return entry.Entry{}, err
	}
	versions := make(map[string]string, len(e.TagWithVersions))
	for _, pair := range e.TagWithVersions {
		name, version, ok := strings.Cut(pair, fieldDelimiter)
		if !ok {
			return entry.Entry{}, fmt.Errorf("invalid versioned tag %q", pair)
		}
		versions[name] = version
	}
	var tags []entry.Tag
	for _, name := range e.Tags {
		tags = append(tags, entry.Tag{Name: name, Version: versions[name]})
	}
	var categories []entry.Category
	for _, name := range e.Categories {
		categories = append(categories, entry.Category{Name: name})
	}
	return entry.Entry{
		EntryKey: key,
		FrontMatter: entry.FrontMatter{
			Title:      e.Title,
			Summary:    e.Summary,
			Categories: categories,
			Tags:       tags,
		},
		Content: e.Content,
		Created: fromMillis(e.CreatedBy, e.CreatedAt),
		Updated: fromMillis(e.UpdatedBy, e.UpdatedAt),
	}, nil
}
