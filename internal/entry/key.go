package entry

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTenantID is the sentinel tenant id used when no tenant is given.
const DefaultTenantID = "_"

// keyDelimiter separates the zero-padded entry id from the tenant id in a
// composite key ("00001|tenant1"). The default tenant has no suffix ("00001").
const keyDelimiter = "|"

// idWidth is the zero-padding width of the numeric key component. Keys padded
// to this width sort lexicographically in the same order as their numeric ids.
const idWidth = 5

// EntryKey identifies an entry within a tenant.
type EntryKey struct {
	EntryID  int64  `json:"entryId"`
	TenantID string `json:"tenantId"`
}

// NewEntryKey builds a key with a normalized tenant id. An empty tenant id is
// normalized to DefaultTenantID so that two keys are equal iff their entry id
// and normalized tenant id match.
func NewEntryKey(entryID int64, tenantID string) EntryKey {
	return EntryKey{EntryID: entryID, TenantID: NormalizeTenantID(tenantID)}
}

// NormalizeTenantID maps the absent tenant to DefaultTenantID.
func NormalizeTenantID(tenantID string) string {
	if tenantID == "" {
		return DefaultTenantID
	}
	return tenantID
}

// IsDefaultTenant reports whether the given tenant id denotes the default tenant.
func IsDefaultTenant(tenantID string) bool {
	return tenantID == "" || tenantID == DefaultTenantID
}

func (k EntryKey) IsDefaultTenant() bool {
	return IsDefaultTenant(k.TenantID)
}

// String renders the composite store key, e.g. "00001" or "00001|tenant1".
func (k EntryKey) String() string {
	if k.IsDefaultTenant() {
		return FormatID(k.EntryID)
	}
	return FormatID(k.EntryID) + keyDelimiter + k.TenantID
}

// ParseEntryKey is the inverse of String.
func ParseEntryKey(s string) (EntryKey, error) {
	id := s
	tenantID := ""
	if i := strings.Index(s, keyDelimiter); i >= 0 {
		id, tenantID = s[:i], s[i+1:]
	}
	entryID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return EntryKey{}, fmt.Errorf("invalid entry key %q: %w", s, err)
	}
	return NewEntryKey(entryID, tenantID), nil
}

// FormatID renders an entry id zero-padded to the fixed key width.
func FormatID(entryID int64) string {
	return fmt.Sprintf("%05d", entryID)
}

// ParseID extracts the entry id from a content file name such as "00100.md"
// or "00100".
func ParseID(fileName string) (int64, error) {
	stem := strings.TrimSuffix(fileName, ".md")
	entryID, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry file name %q: %w", fileName, err)
	}
	return entryID, nil
}
