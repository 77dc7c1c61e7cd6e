package memory

import "github.com/custodia-labs/bookingest/internal/core/ports/driven"

// Ensure Catalog implements the interface.
var _ driven.Catalog = (*Catalog)(nil)

// Catalog bundles the in-memory stores. It backs tests and dry runs.
type Catalog struct {
	volumes      *VolumeStore
	pages        *PageStore
	words        *WordStore
	links        *RelatedLinkStore
	imageServers *ImageServerStore
	jobs         *JobStore
}

// NewCatalog creates an empty in-memory catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		volumes:      NewVolumeStore(),
		pages:        NewPageStore(),
		words:        NewWordStore(),
		links:        NewRelatedLinkStore(),
		imageServers: NewImageServerStore(),
		jobs:         NewJobStore(),
	}
}

// Volumes returns the volume store.
func (c *Catalog) Volumes() driven.VolumeStore { return c.volumes }

// Pages returns the page store.
func (c *Catalog) Pages() driven.PageStore { return c.pages }

// Words returns the word store.
func (c *Catalog) Words() driven.WordStore { return c.words }

// RelatedLinks returns the related link store.
func (c *Catalog) RelatedLinks() driven.RelatedLinkStore { return c.links }

// ImageServers returns the image server store.
func (c *Catalog) ImageServers() driven.ImageServerStore { return c.imageServers }

// Jobs returns the job store.
func (c *Catalog) Jobs() driven.JobStore { return c.jobs }
