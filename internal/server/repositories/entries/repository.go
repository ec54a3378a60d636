// Package entries persists blog entries in a GemFire region with the GitHub
// repository of each tenant as the authoritative source. Reads are
// cache-aside: a region miss fetches from GitHub and populates the region.
package entries

import (
	"context"
	"errors"
	"time"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/pagination"
)

// ErrEntryNotFound is returned when an entry exists neither in the region
// nor at the authoritative source.
var ErrEntryNotFound = errors.New("entry not found")

// EntryRepository is the persistence port of the entry domain.
type EntryRepository interface {
	// FindByID returns the entry, reading through to the authoritative
	// source on a region miss. Returns ErrEntryNotFound on absence.
	FindByID(ctx context.Context, key entry.EntryKey) (entry.Entry, error)
	// Exists reports region membership only; it does not read through.
	Exists(ctx context.Context, key entry.EntryKey) (bool, error)
	// FindAll returns the entries of the given keys that are present in
	// the region, content blanked, ordered by key.
	FindAll(ctx context.Context, keys []entry.EntryKey) ([]entry.Entry, error)
	// FindOrderByUpdated lists a tenant's entries matching the criteria,
	// newest first, one cursor page at a time. Contents are blanked.
	FindOrderByUpdated(ctx context.Context, tenantID string, criteria entry.SearchCriteria,
		pageRequest pagination.CursorPageRequest[time.Time]) (pagination.CursorPage[entry.Entry], error)
	// Save writes the entry to the region and returns it.
	Save(ctx context.Context, e entry.Entry) (entry.Entry, error)
	// SaveAll writes all entries in one batch.
	SaveAll(ctx context.Context, es []entry.Entry) error
	// NextID returns the next advisory entry id for a tenant: max+1, or 1
	// when the tenant has no entries. Concurrent callers can observe the
	// same id; the deployment assumes a single writer per tenant.
	NextID(ctx context.Context, tenantID string) (int64, error)
	// FindAllCategories lists the distinct ordered category paths of a
	// tenant, sorted by their joined form.
	FindAllCategories(ctx context.Context, tenantID string) ([][]entry.Category, error)
	// FindAllTags lists a tenant's tags with their usage counts, sorted
	// by tag name.
	FindAllTags(ctx context.Context, tenantID string) ([]entry.TagAndCount, error)
	// DeleteByID removes the entry from the region. Deleting an absent
	// entry is not an error.
	DeleteByID(ctx context.Context, key entry.EntryKey) error
	// UpdateSummary replaces the summary of an existing entry. A missing
	// entry is ignored.
	UpdateSummary(ctx context.Context, key entry.EntryKey, summary string) error
	// DeleteAll empties the region.
	DeleteAll(ctx context.Context) error
}

// EntryFetcher retrieves an entry from a tenant's authoritative source by
// its content path ("content/00001.md"). Absence is ErrEntryNotFound; an
// unconfigured tenant is a configuration error, not absence.
type EntryFetcher interface {
	Fetch(ctx context.Context, tenantID, path string) (entry.Entry, error)
}

// ContentPath is the repository path of an entry's markdown file.
func ContentPath(entryID int64) string {
	return "content/" + entry.FormatID(entryID) + ".md"
}
