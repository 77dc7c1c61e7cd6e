package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// defaultLinkFormat is used when a related link's type cannot be guessed.
const defaultLinkFormat = "text/html"

// Reconciler creates or updates a volume from a metadata record.
type Reconciler struct {
	catalog driven.Catalog
	newPID  func() string
}

// NewReconciler creates a reconciler writing to catalog.
// Volumes without a pid get a random UUID.
func NewReconciler(catalog driven.Catalog) *Reconciler {
	return &Reconciler{catalog: catalog, newPID: uuid.NewString}
}

// Reconcile gets or creates the volume named by the record's pid, assigns
// every metadata key to it, appends related links, and sets the image server
// and collections. The volume is saved before collections are set and saved
// again afterwards. A nil record creates a volume with a generated pid.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	rec *domain.MetadataRecord,
	server *domain.ImageServer,
	collections []string,
) (*domain.Volume, error) {
	// 1. Resolve the volume
	pid := ""
	if rec != nil {
		pid = strings.TrimSpace(rec.GetString("pid"))
	}
	if pid == "" {
		pid = r.newPID()
	}
	vol, created, err := r.catalog.Volumes().GetOrCreate(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("get or create volume %s: %w", pid, err)
	}
	if created {
		logger.Debug("Created volume %s", pid)
	}

	// 2. Assign attributes
	var related any
	if rec != nil {
		for _, cell := range rec.Fields {
			switch cell.Key {
			case "pid":
				continue
			case domain.ReservedRelated:
				related = cell.Value
				continue
			}
			vol.SetAttribute(cell.Key, cell.Value)
		}
		vol.SetAttribute(domain.ReservedMetadata, rec.Metadata)
	}

	// 3. Image server
	if server != nil {
		vol.ImageServerID = server.ID
	}

	// 4. Save so the volume exists before associations are set
	if err := r.catalog.Volumes().Save(ctx, vol); err != nil {
		return nil, fmt.Errorf("save volume %s: %w", pid, err)
	}

	// 5. Related links
	if err := r.addRelatedLinks(ctx, pid, related); err != nil {
		return nil, err
	}

	// 6. Collections, then save again
	if err := r.catalog.Volumes().SetCollections(ctx, pid, collections); err != nil {
		return nil, fmt.Errorf("set collections for %s: %w", pid, err)
	}
	vol.Collections = append([]string(nil), collections...)
	if err := r.catalog.Volumes().Save(ctx, vol); err != nil {
		return nil, fmt.Errorf("save volume %s: %w", pid, err)
	}

	return vol, nil
}

func (r *Reconciler) addRelatedLinks(ctx context.Context, pid string, related any) error {
	if related == nil {
		return nil
	}
	var errs []error
	for _, link := range SplitRelated(fmt.Sprint(related)) {
		rl := &domain.RelatedLink{
			VolumePID:        pid,
			Link:             link,
			Format:           GuessLinkFormat(link),
			IsStructuredData: false,
		}
		if err := r.catalog.RelatedLinks().Add(ctx, rl); err != nil {
			errs = append(errs, fmt.Errorf("add related link %s: %w", link, err))
		}
	}
	return errors.Join(errs...)
}

// SplitRelated splits a semicolon-separated URL list, dropping blanks.
func SplitRelated(value string) []string {
	var links []string
	for _, part := range strings.Split(value, ";") {
		if part = strings.TrimSpace(part); part != "" {
			links = append(links, part)
		}
	}
	return links
}

// GuessLinkFormat guesses a MIME type from a URL's path extension.
func GuessLinkFormat(link string) string {
	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
	}
	ext := path.Ext(p)
	if ext == "" {
		return defaultLinkFormat
	}
	typ := mime.TypeByExtension(strings.ToLower(ext))
	if typ == "" {
		return defaultLinkFormat
	}
	if media, _, err := mime.ParseMediaType(typ); err == nil {
		return media
	}
	return typ
}
