package domain

import (
	"fmt"
	"strings"
	"time"
)

// StorageKind identifies where an image server keeps OCR sidecars.
type StorageKind string

const (
	// StorageLocal reads sidecars from the local filesystem.
	StorageLocal StorageKind = "local"

	// StorageS3 reads sidecars from an object store bucket.
	StorageS3 StorageKind = "s3"
)

// ImageServer is the IIIF image server a volume's pages are served from.
type ImageServer struct {
	// ID is the catalog identifier.
	ID int64

	// ServerBase is the base URL of the server.
	ServerBase string

	// StorageKind selects the sidecar storage backend.
	StorageKind StorageKind

	// Bucket is the object store bucket for StorageS3.
	Bucket string
}

// IsArchiveLab reports whether the server fronts archive.org book scans.
func (s *ImageServer) IsArchiveLab() bool {
	return s != nil && strings.Contains(s.ServerBase, "archivelab")
}

// Volume is the catalog record for one digitized book.
type Volume struct {
	// PID is the persistent identifier.
	PID string

	// Label is the display title.
	Label string

	// Fields holds the remaining catalog attributes by schema field name.
	Fields map[string]string

	// Metadata holds columns that did not match a catalog field.
	Metadata []MetadataEntry

	// ImageServerID references the ImageServer, zero when unset.
	ImageServerID int64

	// Collections is the set of collection pids the volume belongs to.
	Collections []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetAttribute assigns a normalised metadata value to the same-named attribute.
func (v *Volume) SetAttribute(key string, value any) {
	switch key {
	case "pid":
		v.PID = stringify(value)
	case "label":
		v.Label = stringify(value)
	case "metadata":
		if entries, ok := value.([]MetadataEntry); ok {
			v.Metadata = append([]MetadataEntry(nil), entries...)
		}
	default:
		if v.Fields == nil {
			v.Fields = make(map[string]string)
		}
		v.Fields[key] = stringify(value)
	}
}

// Attribute returns a catalog attribute by name.
func (v *Volume) Attribute(key string) string {
	switch key {
	case "pid":
		return v.PID
	case "label":
		return v.Label
	}
	return v.Fields[key]
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// RelatedLink is a link from a volume to a related external resource.
type RelatedLink struct {
	ID        int64
	VolumePID string
	Link      string

	// Format is the MIME type of the linked resource.
	Format string

	// IsStructuredData marks links meant for structured-data discovery (seeAlso).
	IsStructuredData bool
}
