package categorizer

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var embeddedTable []byte

// tableFile is the on-disk layout of a category table.
type tableFile struct {
	Version  string            `yaml:"version"`
	Default  string            `yaml:"default"`
	Refund   string            `yaml:"refund"`
	Mappings map[string]string `yaml:"mappings"`
}

// Table is an immutable mapping from normalized raw category to ledger
// category. It is safe for concurrent use.
type Table struct {
	version  string
	fallback string
	refund   string
	entries  map[string]string
	keys     []string // sorted normalized keys
}

// ParseTable reads a YAML category table.
func ParseTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read category table: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse category table: %w", err)
	}
	if f.Default == "" {
		return nil, fmt.Errorf("category table %q has no default category", f.Version)
	}

	t := &Table{
		version:  f.Version,
		fallback: f.Default,
		refund:   f.Refund,
		entries:  make(map[string]string, len(f.Mappings)),
	}
	for raw, category := range f.Mappings {
		key := Normalize(raw)
		if key == "" || category == "" {
			continue
		}
		if existing, ok := t.entries[key]; ok && existing != category {
			return nil, fmt.Errorf("category table %q maps %q twice (%q, %q)", f.Version, key, existing, category)
		}
		t.entries[key] = category
	}
	for key := range t.entries {
		t.keys = append(t.keys, key)
	}
	sort.Strings(t.keys)

	return t, nil
}

// LoadTableFile reads a table from disk.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open category table: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseTable(f)
}

var (
	defaultTableOnce sync.Once
	defaultTable     *Table
	defaultTableErr  error
)

// DefaultTable returns the built-in table, parsed once per process.
func DefaultTable() (*Table, error) {
	defaultTableOnce.Do(func() {
		defaultTable, defaultTableErr = ParseTable(strings.NewReader(string(embeddedTable)))
	})
	return defaultTable, defaultTableErr
}

// Version identifies the table revision.
func (t *Table) Version() string { return t.version }

// Default is the category for unknown raw categories.
func (t *Table) Default() string { return t.fallback }

// Refund is the category the table suggests for refunds. May be empty.
func (t *Table) Refund() string { return t.refund }

// Len returns the number of mappings.
func (t *Table) Len() int { return len(t.entries) }

// Lookup returns the ledger category for an already-normalized key.
func (t *Table) Lookup(key string) (string, bool) {
	c, ok := t.entries[key]
	return c, ok
}

// Keys returns the normalized keys in sorted order. The slice is a copy.
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// WithDefault returns a copy of the table with a different default category.
func (t *Table) WithDefault(category string) *Table {
	if category == "" {
		return t
	}
	clone := *t
	clone.fallback = category
	return &clone
}

// Normalize lowercases, trims and collapses whitespace and underscores so
// "ABIS_BOOK" and "abis book" share a key.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}
