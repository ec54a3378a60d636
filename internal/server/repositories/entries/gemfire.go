package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/gemfire"
	"github.com/categolj/entry-api-gemfire/internal/logging"
	"github.com/categolj/entry-api-gemfire/internal/pagination"
)

const findOrderByUpdatedQuery = `SELECT entryKey, title, summary, categories, tags, tagWithVersions, createdBy, createdAt, updatedBy, updatedAt, tenantId FROM /Entry WHERE tenantId = $1 /* QUERY */ /* TAG */ /* CATEGORIES */ AND updatedAt < $2 ORDER BY updatedAt DESC LIMIT $3`

const nextIDQuery = `SELECT entryKey FROM /Entry WHERE tenantId = $1 ORDER BY entryKey DESC LIMIT 1`

const findAllCategoriesQuery = `SELECT DISTINCT categories, joinedCategories FROM /Entry WHERE tenantId = $1 ORDER BY joinedCategories`

const findAllTagsQuery = `SELECT tag, COUNT(*) AS "count" FROM /Entry e, e.tags tag WHERE e.tenantId = $1 GROUP BY tag ORDER BY tag`

// GemfireEntryRepository stores entries in a GemFire region and reads
// through to the authoritative fetcher on a miss.
type GemfireEntryRepository struct {
	region  gemfire.Region
	fetcher EntryFetcher
	log     logging.Logger
}

// NewGemfireEntryRepository builds the repository over the Entry region.
func NewGemfireEntryRepository(region gemfire.Region, fetcher EntryFetcher, log logging.Logger) *GemfireEntryRepository {
	return &GemfireEntryRepository{region: region, fetcher: fetcher, log: log}
}

var _ EntryRepository = (*GemfireEntryRepository)(nil)

// FindByID implements EntryRepository.
func (r *GemfireEntryRepository) FindByID(ctx context.Context, key entry.EntryKey) (entry.Entry, error) {
	raw, err := r.region.Get(ctx, toGemfireKey(key))
	if err == nil {
		var entity EntryEntity
		if err := json.Unmarshal(raw, &entity); err != nil {
			return entry.Entry{}, fmt.Errorf("decode entry %s: %w", key, err)
		}
		return entity.ToModel()
	}
	if !errors.Is(err, gemfire.ErrKeyNotFound) {
		return entry.Entry{}, err
	}
	fetched, err := r.fetcher.Fetch(ctx, key.TenantID, ContentPath(key.EntryID))
	if err != nil {
		return entry.Entry{}, err
	}
	return r.Save(ctx, fetched)
}

// Exists implements EntryRepository.
func (r *GemfireEntryRepository) Exists(ctx context.Context, key entry.EntryKey) (bool, error) {
	return r.region.ContainsKey(ctx, toGemfireKey(key))
}

// FindAll implements EntryRepository.
func (r *GemfireEntryRepository) FindAll(ctx context.Context, keys []entry.EntryKey) ([]entry.Entry, error) {
	gemfireKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		gemfireKeys = append(gemfireKeys, toGemfireKey(key))
	}
	values, err := r.region.GetAll(ctx, gemfireKeys)
	if err != nil {
		return nil, err
	}
	entities := make([]EntryEntity, 0, len(values))
	for _, raw := range values {
		var entity EntryEntity
		if err := json.Unmarshal(raw, &entity); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		entity.Content = ""
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].EntryKey < entities[j].EntryKey })
	result := make([]entry.Entry, 0, len(entities))
	for _, entity := range entities {
		e, err := entity.ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

// FindOrderByUpdated implements EntryRepository. The criteria compile into
// the /* QUERY */, /* TAG */ and /* CATEGORIES */ slots of the base query
// with parameters numbered after the three fixed ones. One row beyond the
// page size is fetched to learn whether a next page exists.
func (r *GemfireEntryRepository) FindOrderByUpdated(ctx context.Context, tenantID string,
	criteria entry.SearchCriteria, pageRequest pagination.CursorPageRequest[time.Time],
) (pagination.CursorPage[entry.Entry], error) {
	cursor := int64(math.MaxInt64)
	if pageRequest.Cursor != nil {
		cursor = pageRequest.Cursor.UnixMilli()
	}
	pageSizePlus1 := pageRequest.PageSize + 1
	oql := findOrderByUpdatedQuery
	params := []any{entry.NormalizeTenantID(tenantID), cursor, pageSizePlus1}
	if criteria.Query != "" {
		frag := ConvertQuery(criteria.Query, len(params)+1)
		if !frag.IsEmpty() {
			oql = strings.Replace(oql, "/* QUERY */", "AND ("+frag.Query+")", 1)
			params = append(params, frag.Params...)
		}
	}
	if criteria.Tag != "" {
		frag := ConvertTag(criteria.Tag, len(params)+1)
		oql = strings.Replace(oql, "/* TAG */", "AND ("+frag.Query+")", 1)
		params = append(params, frag.Params...)
	}
	if len(criteria.Categories) > 0 {
		frag := ConvertCategories(criteria.Categories, len(params)+1)
		oql = strings.Replace(oql, "/* CATEGORIES */", "AND ("+frag.Query+")", 1)
		params = append(params, frag.Params...)
	}
	r.log.Debug(ctx, "executing query", "query", oql, "params", params)
	rows, err := r.region.Query(ctx, oql, params...)
	if err != nil {
		return pagination.CursorPage[entry.Entry]{}, fmt.Errorf("query entries: %w", err)
	}
	contentPlus1 := make([]entry.Entry, 0, len(rows))
	for _, raw := range rows {
		var entity EntryEntity
		if err := json.Unmarshal(raw, &entity); err != nil {
			return pagination.CursorPage[entry.Entry]{}, fmt.Errorf("decode row: %w", err)
		}
		entity.Content = ""
		e, err := entity.ToModel()
		if err != nil {
			return pagination.CursorPage[entry.Entry]{}, err
		}
		contentPlus1 = append(contentPlus1, e)
	}
	hasPrevious := pageRequest.Cursor != nil
	hasNext := len(contentPlus1) == pageSizePlus1
	content := contentPlus1
	if hasNext {
		content = contentPlus1[:pageRequest.PageSize]
	}
	return pagination.CursorPage[entry.Entry]{
		Content:     content,
		Size:        pageRequest.PageSize,
		HasPrevious: hasPrevious,
		HasNext:     hasNext,
	}, nil
}

// Save implements EntryRepository.
func (r *GemfireEntryRepository) Save(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	if err := r.region.Put(ctx, toGemfireKey(e.EntryKey), FromModel(e)); err != nil {
		return entry.Entry{}, err
	}
	return e, nil
}

// SaveAll implements EntryRepository.
func (r *GemfireEntryRepository) SaveAll(ctx context.Context, es []entry.Entry) error {
	values := make(map[string]any, len(es))
	for _, e := range es {
		values[toGemfireKey(e.EntryKey)] = FromModel(e)
	}
	return r.region.PutAll(ctx, values)
}

// NextID implements EntryRepository. The zero-padded keys sort
// lexicographically in id order, so the maximum id is the first key of a
// descending scan.
func (r *GemfireEntryRepository) NextID(ctx context.Context, tenantID string) (int64, error) {
	rows, err := r.region.Query(ctx, nextIDQuery, entry.NormalizeTenantID(tenantID))
	if err != nil {
		return 0, fmt.Errorf("query next id: %w", err)
	}
	if len(rows) == 0 {
		return 1, nil
	}
	var gemfireKey string
	if err := json.Unmarshal(rows[0], &gemfireKey); err != nil {
		return 0, fmt.Errorf("decode key: %w", err)
	}
	key, err := entry.ParseEntryKey(gemfireKey)
	if err != nil {
		return 0, err
	}
	return key.EntryID + 1, nil
}

// FindAllCategories implements EntryRepository.
func (r *GemfireEntryRepository) FindAllCategories(ctx context.Context, tenantID string) ([][]entry.Category, error) {
	rows, err := r.region.Query(ctx, findAllCategoriesQuery, entry.NormalizeTenantID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	result := make([][]entry.Category, 0, len(rows))
	for _, raw := range rows {
		var row struct {
			Categories []string `json:"categories"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		categories := make([]entry.Category, 0, len(row.Categories))
		for _, name := range row.Categories {
			categories = append(categories, entry.Category{Name: name})
		}
		result = append(result, categories)
	}
	return result, nil
}

// FindAllTags implements EntryRepository.
func (r *GemfireEntryRepository) FindAllTags(ctx context.Context, tenantID string) ([]entry.TagAndCount, error) {
	rows, err := r.region.Query(ctx, findAllTagsQuery, entry.NormalizeTenantID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	result := make([]entry.TagAndCount, 0, len(rows))
	for _, raw := range rows {
		var row struct {
			Tag   string `json:"tag"`
			Count int    `json:"count"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		result = append(result, entry.TagAndCount{Tag: entry.Tag{Name: row.Tag}, Count: row.Count})
	}
	return result, nil
}

// DeleteByID implements EntryRepository.
func (r *GemfireEntryRepository) DeleteByID(ctx context.Context, key entry.EntryKey) error {
	return r.region.Remove(ctx, toGemfireKey(key))
}

// UpdateSummary implements EntryRepository.
func (r *GemfireEntryRepository) UpdateSummary(ctx context.Context, key entry.EntryKey, summary string) error {
	e, err := r.FindByID(ctx, key)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil
		}
		return err
	}
	_, err = r.Save(ctx, e.WithFrontMatter(e.FrontMatter.WithSummary(summary)))
	return err
}

// DeleteAll implements EntryRepository.
func (r *GemfireEntryRepository) DeleteAll(ctx context.Context) error {
	return r.region.Clear(ctx)
}
