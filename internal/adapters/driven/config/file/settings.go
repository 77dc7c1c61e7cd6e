package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// EnvPrefix prefixes environment overrides: "s3.endpoint" is read from
// BOOKINGEST_S3_ENDPOINT.
const EnvPrefix = "BOOKINGEST_"

// Storage backends for the object store.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	// Home is the base directory the defaults below live in.
	Home string

	DataDir       string
	TmpDir        string
	ProcessingDir string
	OCRDir        string

	// Storage selects the object store: "local" (directory tree) or "s3".
	Storage     string
	ObjectsRoot string
	S3          S3Settings

	StagingBucket string
	StagingPrefix string
	OCRPrefix     string
	TriggerBucket string
	TriggerPrefix string

	// Hostname, AdminPath and ViewerPath build the links sent on success.
	// Paths may contain "{pid}".
	Hostname   string
	AdminPath  string
	ViewerPath string

	Mail MailSettings

	// IndexWebhook receives reindex requests. Empty disables reindexing.
	IndexWebhook string

	OCR OCRSettings

	Workers        int
	KeepFailedJobs bool
	Retry          RetrySettings

	// HTTPAddr is the listen address of the serve command.
	HTTPAddr string

	// InboxDir is watched for dropped bundles.
	InboxDir string
}

// S3Settings configures an S3-compatible endpoint.
type S3Settings struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// MailSettings configures SMTP notifications. An empty host logs instead.
type MailSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// OCRSettings configures remote OCR fetching.
type OCRSettings struct {
	DatastreamPrefix  string
	DatastreamSuffix  string
	RequestsPerSecond float64
	Parallelism       int
	Timeout           time.Duration
}

// RetrySettings configures transient-failure retries.
type RetrySettings struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings(home string) Settings {
	return Settings{
		Home:          home,
		DataDir:       filepath.Join(home, "data"),
		TmpDir:        filepath.Join(home, "tmp"),
		ProcessingDir: filepath.Join(home, "processing"),
		OCRDir:        filepath.Join(home, "ocr"),
		Storage:       StorageLocal,
		ObjectsRoot:   filepath.Join(home, "objects"),
		StagingBucket: "ingest",
		StagingPrefix: "incoming",
		OCRPrefix:     "ocr",
		TriggerBucket: "ingest-trigger",
		Hostname:      "http://localhost:8080",
		AdminPath:     "/admin/volume/{pid}/change/",
		ViewerPath:    "/volume/{pid}",
		Mail:          MailSettings{Port: 25, From: "donotreply@localhost"},
		OCR: OCRSettings{
			DatastreamSuffix:  "/datastreams/position/content",
			RequestsPerSecond: 5,
			Parallelism:       4,
			Timeout:           30 * time.Second,
		},
		Workers:  2,
		Retry:    RetrySettings{MaxAttempts: 20, Base: time.Second, Max: 10 * time.Minute},
		HTTPAddr: "127.0.0.1:8080",
		InboxDir: filepath.Join(home, "inbox"),
	}
}

// fields binds each config key to its setting.
func (s *Settings) fields() map[string]any {
	return map[string]any{
		"dirs.data":               &s.DataDir,
		"dirs.tmp":                &s.TmpDir,
		"dirs.processing":         &s.ProcessingDir,
		"dirs.ocr":                &s.OCRDir,
		"dirs.inbox":              &s.InboxDir,
		"storage.kind":            &s.Storage,
		"storage.root":            &s.ObjectsRoot,
		"s3.endpoint":             &s.S3.Endpoint,
		"s3.access_key":           &s.S3.AccessKey,
		"s3.secret_key":           &s.S3.SecretKey,
		"s3.region":               &s.S3.Region,
		"s3.use_ssl":              &s.S3.UseSSL,
		"ingest.staging_bucket":   &s.StagingBucket,
		"ingest.staging_prefix":   &s.StagingPrefix,
		"ingest.ocr_prefix":       &s.OCRPrefix,
		"ingest.trigger_bucket":   &s.TriggerBucket,
		"ingest.trigger_prefix":   &s.TriggerPrefix,
		"ingest.workers":          &s.Workers,
		"ingest.keep_failed":      &s.KeepFailedJobs,
		"links.hostname":          &s.Hostname,
		"links.admin_path":        &s.AdminPath,
		"links.viewer_path":       &s.ViewerPath,
		"mail.host":               &s.Mail.Host,
		"mail.port":               &s.Mail.Port,
		"mail.username":           &s.Mail.Username,
		"mail.password":           &s.Mail.Password,
		"mail.from":               &s.Mail.From,
		"index.webhook":           &s.IndexWebhook,
		"ocr.datastream_prefix":   &s.OCR.DatastreamPrefix,
		"ocr.datastream_suffix":   &s.OCR.DatastreamSuffix,
		"ocr.requests_per_second": &s.OCR.RequestsPerSecond,
		"ocr.parallelism":         &s.OCR.Parallelism,
		"ocr.timeout":             &s.OCR.Timeout,
		"retry.max_attempts":      &s.Retry.MaxAttempts,
		"retry.base":              &s.Retry.Base,
		"retry.max":               &s.Retry.Max,
		"http.addr":               &s.HTTPAddr,
	}
}

// LoadSettings resolves settings from defaults, then the config store, then
// BOOKINGEST_* environment variables read through getenv.
func LoadSettings(store driven.ConfigStore, home string, getenv func(string) string) (Settings, error) {
	s := DefaultSettings(home)
	var errs []error

	for key, ptr := range s.fields() {
		if store != nil {
			if _, ok := store.Get(key); ok {
				fromStore(store, key, ptr)
			}
		}
		if getenv == nil {
			continue
		}
		if raw := getenv(EnvKey(key)); raw != "" {
			if err := fromString(raw, ptr); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", EnvKey(key), err))
			}
		}
	}

	if err := s.Validate(); err != nil {
		errs = append(errs, err)
	}
	return s, errors.Join(errs...)
}

// EnvKey maps a config key to its environment variable.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate checks settings that have no usable fallback.
func (s *Settings) Validate() error {
	switch s.Storage {
	case StorageLocal:
	case StorageS3:
		if s.S3.Endpoint == "" {
			return errors.New("s3.endpoint is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage kind %q", s.Storage)
	}
	if s.Workers < 1 {
		return fmt.Errorf("ingest.workers must be at least 1, got %d", s.Workers)
	}
	return nil
}

// AdminURL returns the admin link template.
func (s *Settings) AdminURL() string {
	return joinURL(s.Hostname, s.AdminPath)
}

// ViewerURL returns the public volume link template.
func (s *Settings) ViewerURL() string {
	return joinURL(s.Hostname, s.ViewerPath)
}

func joinURL(host, path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(host, "/") + "/" + strings.TrimLeft(path, "/")
}

// LoadEnvFiles loads .env files that exist, in order. Variables already set
// in the environment are kept.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func fromStore(store driven.ConfigStore, key string, ptr any) {
	switch p := ptr.(type) {
	case *string:
		*p = store.GetString(key)
	case *int:
		*p = store.GetInt(key)
	case *bool:
		*p = store.GetBool(key)
	case *float64:
		*p = store.GetFloat(key)
	case *time.Duration:
		if d := store.GetDuration(key); d > 0 {
			*p = d
		}
	}
}

func fromString(raw string, ptr any) error {
	switch p := ptr.(type) {
	case *string:
		*p = raw
	case *int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*p = n
	case *bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*p = b
	case *float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*p = f
	case *time.Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*p = d
	}
	return nil
}
