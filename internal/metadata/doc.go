// Package metadata reads tabular volume metadata (CSV, TSV, xlsx) and
// normalises each row against the catalog schema. Recognised columns keep
// their catalog field name; anything else is folded into the record's
// "metadata" extension list as {label, value} pairs.
package metadata
