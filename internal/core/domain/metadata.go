package domain

import "strings"

// ReservedRelated is the metadata key holding semicolon-separated related URLs.
const ReservedRelated = "related"

// ReservedMetadata is the metadata key holding unrecognised columns.
const ReservedMetadata = "metadata"

// Cell is one column of a metadata row.
type Cell struct {
	Key   string
	Value any
}

// Row is an ordered metadata row as read from a table.
type Row []Cell

// Get returns the value for key.
func (r Row) Get(key string) (any, bool) {
	for _, c := range r {
		if c.Key == key {
			return c.Value, true
		}
	}
	return nil, false
}

// MetadataEntry is an unrecognised column kept in a record's extension list.
type MetadataEntry struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// MetadataRecord is a normalised metadata row.
// Every key in Fields is a catalog field or "related"; everything else lives in Metadata.
type MetadataRecord struct {
	// Fields are the recognised columns in source order.
	Fields []Cell

	// Metadata is the extension list. Always non-nil after normalisation.
	Metadata []MetadataEntry
}

// Get returns the value of a recognised field.
func (m *MetadataRecord) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	return Row(m.Fields).Get(key)
}

// GetString returns a recognised field as a string, or "".
func (m *MetadataRecord) GetString(key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	return stringify(v)
}

// Lookup finds a value by key case-insensitively in both the fields and
// the extension list.
func (m *MetadataRecord) Lookup(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, c := range m.Fields {
		if strings.EqualFold(c.Key, key) {
			return stringify(c.Value), true
		}
	}
	for _, e := range m.Metadata {
		if strings.EqualFold(e.Label, key) {
			return stringify(e.Value), true
		}
	}
	return "", false
}

// Row converts the record back into a row, with the extension list under "metadata".
func (m *MetadataRecord) Row() Row {
	row := make(Row, 0, len(m.Fields)+1)
	row = append(row, m.Fields...)
	entries := make([]MetadataEntry, len(m.Metadata))
	copy(entries, m.Metadata)
	return append(row, Cell{Key: ReservedMetadata, Value: entries})
}

// Schema is the set of catalog field names metadata columns are reconciled against.
// It is passed to the normaliser and reconciler rather than looked up globally.
type Schema struct {
	fields map[string]struct{}
	order  []string
}

// NewSchema creates a schema from field names.
func NewSchema(fields ...string) *Schema {
	s := &Schema{fields: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		if _, ok := s.fields[f]; ok {
			continue
		}
		s.fields[f] = struct{}{}
		s.order = append(s.order, f)
	}
	return s
}

// DefaultSchema returns the catalog's volume fields.
func DefaultSchema() *Schema {
	return NewSchema(
		"pid", "label", "summary", "author", "published_city", "published_date",
		"publisher", "publisher_url", "attribution", "license", "logo_url",
		"viewingdirection", "pdf", "metadata", "scanned_by", "identifier",
		"identifier_uri", "languages", "start_canvas", "image_server", "collections",
	)
}

// Has reports whether name is a catalog field.
func (s *Schema) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.fields[name]
	return ok
}

// Fields returns the field names in declaration order.
func (s *Schema) Fields() []string {
	return append([]string(nil), s.order...)
}
