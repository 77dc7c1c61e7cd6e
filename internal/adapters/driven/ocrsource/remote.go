package ocrsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// Ensure Remote implements the interface.
var _ driven.RemoteOCR = (*Remote)(nil)

const (
	// DefaultArchiveLabBase is the archive.org book OCR API.
	DefaultArchiveLabBase = "https://api.archivelab.org"

	// DefaultECDSBase holds TSV OCR for the ecds image server.
	DefaultECDSBase = "https://raw.githubusercontent.com/ecds/ocr-bucket/master"

	// DefaultTimeout bounds one remote request.
	DefaultTimeout = 30 * time.Second

	// maxBody caps how much of a response is read.
	maxBody = 64 << 20

	ecdsServerMarker = "images.readux.ecds.emory"
	fedoraPrefix     = "fedora:"
)

// RemoteConfig configures the remote OCR services.
type RemoteConfig struct {
	// DatastreamPrefix and DatastreamSuffix wrap a page pid to form the
	// repository datastream URL. Without a prefix the TEI line service and
	// the datastream fallback are disabled.
	DatastreamPrefix string
	DatastreamSuffix string

	// ArchiveLabBase and ECDSBase override the service roots.
	ArchiveLabBase string
	ECDSBase       string

	// RequestsPerSecond and Burst throttle requests across all services.
	RequestsPerSecond float64
	Burst             int

	// Timeout bounds each request.
	Timeout time.Duration
}

// Remote fetches OCR over HTTP.
type Remote struct {
	cfg     RemoteConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewRemote creates a remote OCR fetcher, filling defaults.
func NewRemote(cfg RemoteConfig) *Remote {
	if cfg.ArchiveLabBase == "" {
		cfg.ArchiveLabBase = DefaultArchiveLabBase
	}
	if cfg.ECDSBase == "" {
		cfg.ECDSBase = DefaultECDSBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	cfg.Burst = max(cfg.Burst, 1)

	return &Remote{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// FetchLines fetches TEI line OCR from the repository datastream.
// archive.org volumes have no line service.
func (r *Remote) FetchLines(ctx context.Context, page *domain.Page, server *domain.ImageServer) ([]byte, error) {
	url, ok := r.LinesURL(page, server)
	if !ok {
		return nil, domain.ErrNoOCR
	}
	return r.get(ctx, url)
}

// FetchPositional fetches positional word OCR for a page.
func (r *Remote) FetchPositional(
	ctx context.Context,
	vol *domain.Volume,
	page *domain.Page,
	server *domain.ImageServer,
) ([]byte, error) {
	url, ok, err := r.PositionalURL(vol, page, server)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNoOCR
	}
	return r.get(ctx, url)
}

// LinesURL returns the TEI datastream URL for a page.
func (r *Remote) LinesURL(page *domain.Page, server *domain.ImageServer) (string, bool) {
	if server.IsArchiveLab() || r.cfg.DatastreamPrefix == "" {
		return "", false
	}
	return r.cfg.DatastreamPrefix + strings.TrimPrefix(page.PID, fedoraPrefix) + "/datastreams/tei/content", true
}

// PositionalURL chooses the positional OCR service by image server:
// archive.org pages use the "$"-suffixed page number less the volume's OCR
// offset, ecds pages use the image stem, everything else the datastream.
func (r *Remote) PositionalURL(vol *domain.Volume, page *domain.Page, server *domain.ImageServer) (string, bool, error) {
	switch {
	case server.IsArchiveLab():
		num := page.PID
		if i := strings.LastIndex(page.PID, "$"); i >= 0 {
			n, err := strconv.Atoi(page.PID[i+1:])
			if err != nil {
				return "", false, fmt.Errorf("%w: page number in %s: %w", domain.ErrOCRFetch, page.PID, err)
			}
			num = strconv.Itoa(n - page.OCROffset)
		}
		return fmt.Sprintf("%s/books/%s/pages/%s/ocr?mode=words", r.cfg.ArchiveLabBase, vol.PID, num), true, nil

	case server != nil && strings.Contains(server.ServerBase, ecdsServerMarker):
		stem := page.PID[strings.LastIndex(page.PID, "_")+1:]
		stem = strings.TrimSuffix(stem, path.Ext(stem))
		return fmt.Sprintf("%s/%s/%s.tsv", r.cfg.ECDSBase, vol.PID, stem), true, nil

	case r.cfg.DatastreamPrefix != "":
		return r.cfg.DatastreamPrefix + strings.TrimPrefix(page.PID, fedoraPrefix) + r.cfg.DatastreamSuffix, true, nil
	}
	return "", false, nil
}

func (r *Remote) get(ctx context.Context, url string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOCRFetch, err)
	}

	logger.Debug("Fetching OCR %s", url)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrOCRFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %d", domain.ErrOCRFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrOCRFetch, url, err)
	}
	return body, nil
}
