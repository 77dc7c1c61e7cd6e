package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// Normalize reconciles a row against the schema.
//
// Headers are lower-cased with spaces turned into underscores when that form
// is a catalog field (or "related"); otherwise they are kept verbatim.
// List values are collapsed: a list of maps to the first map's value-like
// entry, a list of scalars to a ", "-joined string. Keys outside the schema
// move into Metadata. Normalising a normalised record changes nothing.
func Normalize(row domain.Row, schema *domain.Schema) domain.MetadataRecord {
	rec := domain.MetadataRecord{Metadata: []domain.MetadataEntry{}}
	var extras []domain.MetadataEntry

	for _, cell := range row {
		key := normalizeKey(cell.Key, schema)
		if key == domain.ReservedMetadata {
			rec.Metadata = append(rec.Metadata, entries(cell.Value)...)
			continue
		}

		value := flatten(cell.Value)
		if schema.Has(key) || key == domain.ReservedRelated {
			rec.Fields = setCell(rec.Fields, key, value)
			continue
		}
		extras = append(extras, domain.MetadataEntry{Label: key, Value: value})
	}

	rec.Metadata = append(rec.Metadata, extras...)
	return rec
}

// NormalizeAll normalises every row.
func NormalizeAll(rows []domain.Row, schema *domain.Schema) []domain.MetadataRecord {
	out := make([]domain.MetadataRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, Normalize(row, schema))
	}
	return out
}

// FromMap builds a row from an unordered map, keys sorted.
func FromMap(m map[string]any) domain.Row {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := make(domain.Row, 0, len(keys))
	for _, k := range keys {
		row = append(row, domain.Cell{Key: k, Value: m[k]})
	}
	return row
}

func normalizeKey(key string, schema *domain.Schema) string {
	folded := strings.ReplaceAll(strings.ToLower(key), " ", "_")
	if schema.Has(folded) || folded == domain.ReservedRelated {
		return folded
	}
	return key
}

func setCell(cells []domain.Cell, key string, value any) []domain.Cell {
	for i := range cells {
		if cells[i].Key == key {
			cells[i].Value = value
			return cells
		}
	}
	return append(cells, domain.Cell{Key: key, Value: value})
}

// flatten collapses list values to scalars.
func flatten(value any) any {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, ", ")
	case []map[string]any:
		if len(v) == 0 {
			return ""
		}
		if picked, ok := valueLike(v[0]); ok {
			return picked
		}
		return v
	case []any:
		if len(v) == 0 {
			return ""
		}
		if first, ok := v[0].(map[string]any); ok {
			if picked, ok := valueLike(first); ok {
				return picked
			}
			return v
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	}
	return value
}

// valueLike returns the "value" entry of m, or else the entry of the first
// key (sorted) that contains "value".
func valueLike(m map[string]any) (any, bool) {
	if v, ok := m["value"]; ok {
		return v, true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.Contains(k, "value") {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return m[keys[0]], true
}

// entries converts a "metadata" column value into extension entries.
func entries(value any) []domain.MetadataEntry {
	switch v := value.(type) {
	case nil:
		return nil
	case []domain.MetadataEntry:
		return append([]domain.MetadataEntry(nil), v...)
	case []any:
		out := make([]domain.MetadataEntry, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, domain.MetadataEntry{Label: fmt.Sprint(m["label"]), Value: m["value"]})
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []domain.MetadataEntry{{Label: domain.ReservedMetadata, Value: v}}
	}
	return []domain.MetadataEntry{{Label: domain.ReservedMetadata, Value: value}}
}
