package entries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/categolj/entry-api-gemfire/internal/entry"
)

func TestFromModel(t *testing.T) {
	created := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	e := entry.Entry{
		EntryKey: entry.NewEntryKey(100, "t1"),
		FrontMatter: entry.FrontMatter{
			Title:   "Flattening",
			Summary: "short",
			Categories: []entry.Category{
				{Name: "Tech"}, {Name: "Cache"}, {Name: "GemFire"},
			},
			Tags: []entry.Tag{
				{Name: "postgresql", Version: "15.0"},
				{Name: "database"},
			},
		},
		Content: "body",
		Created: entry.Author{Name: "alice", Date: &created},
		Updated: entry.Author{Name: "bob", Date: &updated},
	}

	entity := FromModel(e)
	assert.Equal(t, "00100|t1", entity.EntryKey)
	assert.Equal(t, []string{"Tech", "Cache", "GemFire"}, entity.Categories)
	assert.Equal(t, "Tech|Cache|GemFire", entity.JoinedCategories)
	assert.Equal(t, []string{"postgresql", "database"}, entity.Tags)
	assert.Equal(t, []string{"postgresql|15.0"}, entity.TagWithVersions)
	assert.Equal(t, "alice", entity.CreatedBy)
	assert.Equal(t, created.UnixMilli(), entity.CreatedAt)
	assert.Equal(t, "bob", entity.UpdatedBy)
	assert.Equal(t, updated.UnixMilli(), entity.UpdatedAt)
	assert.Equal(t, "t1", entity.TenantID)
}

func TestEntityRoundTrip(t *testing.T) {
	created := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		e    entry.Entry
	}{
		{
			name: "mixed versioned and plain tags",
			e: entry.Entry{
				EntryKey: entry.NewEntryKey(11, "t1"),
				FrontMatter: entry.FrontMatter{
					Title:   "Test Entry Title",
					Summary: "This is a brief summary.",
					Categories: []entry.Category{
						{Name: "Technology"}, {Name: "Programming"},
					},
					Tags: []entry.Tag{
						{Name: "postgresql", Version: "15.0"},
						{Name: "database"},
						{Name: "aurora", Version: "2.0"},
					},
				},
				Content: "This is a test content for the entry.",
				Created: entry.Author{Name: "alice", Date: &created},
				Updated: entry.Author{Name: "bob", Date: &updated},
			},
		},
		{
			name: "no tags or categories",
			e: entry.Entry{
				EntryKey:    entry.NewEntryKey(1, ""),
				FrontMatter: entry.FrontMatter{Title: "Bare"},
				Content:     "minimal",
				Created:     entry.Author{Name: "alice", Date: &created},
				Updated:     entry.Author{Name: "bob", Date: &updated},
			},
		},
		{
			name: "unknown authors without dates",
			e: entry.Entry{
				EntryKey:    entry.NewEntryKey(2, ""),
				FrontMatter: entry.FrontMatter{Title: "No history"},
				Content:     "body",
				Created:     entry.UnknownAuthor,
				Updated:     entry.UnknownAuthor,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			back, err := FromModel(tt.e).ToModel()
			require.NoError(t, err)
			assert.Equal(t, tt.e, back)
		})
	}
}

func TestToModelRejectsMalformedVersionedTag(t *testing.T) {
	entity := FromModel(entry.Entry{
		EntryKey:    entry.NewEntryKey(1, ""),
		FrontMatter: entry.FrontMatter{Title: "x"},
	})
	entity.TagWithVersions = []string{"noversion"}
	_, err := entity.ToModel()
	assert.Error(t, err)
}
