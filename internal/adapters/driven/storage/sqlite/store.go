package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/bookingest/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure Store implements the catalog.
var _ driven.Catalog = (*Store)(nil)

// Store is a unified SQLite-based catalog that provides access to
// all catalog store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.bookingest/data/catalog.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bookingest", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// WAL for concurrent readers; foreign keys on every pooled connection
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Volumes returns a VolumeStore backed by this store.
func (s *Store) Volumes() driven.VolumeStore {
	return &volumeStore{store: s}
}

// Pages returns a PageStore backed by this store.
func (s *Store) Pages() driven.PageStore {
	return &pageStore{store: s}
}

// Words returns a WordStore backed by this store.
func (s *Store) Words() driven.WordStore {
	return &wordStore{store: s}
}

// RelatedLinks returns a RelatedLinkStore backed by this store.
func (s *Store) RelatedLinks() driven.RelatedLinkStore {
	return &relatedLinkStore{store: s}
}

// ImageServers returns an ImageServerStore backed by this store.
func (s *Store) ImageServers() driven.ImageServerStore {
	return &imageServerStore{store: s}
}

// Jobs returns a JobStore backed by this store.
func (s *Store) Jobs() driven.JobStore {
	return &jobStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_catalog.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Volume Store ====================

// volumeStore implements driven.VolumeStore.
type volumeStore struct {
	store *Store
}

var _ driven.VolumeStore = (*volumeStore)(nil)

// Get retrieves a volume by pid.
func (s *volumeStore) Get(ctx context.Context, pid string) (*domain.Volume, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT pid, label, fields, metadata, image_server_id, created_at, updated_at
		FROM volumes WHERE pid = ?
	`, pid)

	vol, err := scanVolume(row)
	if err != nil {
		return nil, err
	}

	collections, err := s.collections(ctx, pid)
	if err != nil {
		return nil, err
	}
	vol.Collections = collections
	return vol, nil
}

// GetOrCreate retrieves a volume by pid, inserting an empty one if absent.
func (s *volumeStore) GetOrCreate(ctx context.Context, pid string) (*domain.Volume, bool, error) {
	if pid == "" {
		return nil, false, fmt.Errorf("%w: empty volume pid", domain.ErrInvalidInput)
	}

	now := formatTime(time.Now())
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO volumes (pid, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(pid) DO NOTHING
	`, pid, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("creating volume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("creating volume: %w", err)
	}

	vol, err := s.Get(ctx, pid)
	if err != nil {
		return nil, false, err
	}
	return vol, n > 0, nil
}

// Save stores or updates a volume. Collections are managed by SetCollections.
func (s *volumeStore) Save(ctx context.Context, vol *domain.Volume) error {
	if vol == nil || vol.PID == "" {
		return fmt.Errorf("%w: volume without pid", domain.ErrInvalidInput)
	}

	fieldsJSON, err := json.Marshal(nonNilFields(vol.Fields))
	if err != nil {
		return fmt.Errorf("marshalling fields: %w", err)
	}
	metadataJSON, err := json.Marshal(nonNilEntries(vol.Metadata))
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now()
	if vol.CreatedAt.IsZero() {
		vol.CreatedAt = now
	}
	vol.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO volumes (pid, label, fields, metadata, image_server_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pid) DO UPDATE SET
			label = excluded.label,
			fields = excluded.fields,
			metadata = excluded.metadata,
			image_server_id = excluded.image_server_id,
			updated_at = excluded.updated_at
	`, vol.PID, vol.Label, string(fieldsJSON), string(metadataJSON),
		nullInt64(vol.ImageServerID), formatTime(vol.CreatedAt), formatTime(vol.UpdatedAt))

	if err != nil {
		return fmt.Errorf("saving volume: %w", err)
	}
	return nil
}

// SetCollections replaces the volume's collection memberships.
func (s *volumeStore) SetCollections(ctx context.Context, pid string, collections []string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM volumes WHERE pid = ?", pid).Scan(&exists); err != nil {
		return fmt.Errorf("checking volume: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("volume %s: %w", pid, domain.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM volume_collections WHERE volume_pid = ?", pid); err != nil {
		return fmt.Errorf("clearing collections: %w", err)
	}
	for _, c := range collections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO volume_collections (volume_pid, collection) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, pid, c); err != nil {
			return fmt.Errorf("adding collection %s: %w", c, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// List returns all volumes ordered by pid.
func (s *volumeStore) List(ctx context.Context) ([]domain.Volume, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT pid, label, fields, metadata, image_server_id, created_at, updated_at
		FROM volumes ORDER BY pid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying volumes: %w", err)
	}
	defer rows.Close()

	var vols []domain.Volume //nolint:prealloc // size unknown from query
	for rows.Next() {
		vol, err := scanVolume(rows)
		if err != nil {
			return nil, err
		}
		vols = append(vols, *vol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating volumes: %w", err)
	}

	members, err := s.allCollections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vols {
		vols[i].Collections = members[vols[i].PID]
	}
	return vols, nil
}

func (s *volumeStore) collections(ctx context.Context, pid string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT collection FROM volume_collections WHERE volume_pid = ? ORDER BY collection
	`, pid)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *volumeStore) allCollections(ctx context.Context) (map[string][]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT volume_pid, collection FROM volume_collections ORDER BY volume_pid, collection
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var pid, c string
		if err := rows.Scan(&pid, &c); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		out[pid] = append(out[pid], c)
	}
	return out, rows.Err()
}

// ==================== Related Link Store ====================

// relatedLinkStore implements driven.RelatedLinkStore.
type relatedLinkStore struct {
	store *Store
}

var _ driven.RelatedLinkStore = (*relatedLinkStore)(nil)

// Add appends a link and assigns its ID.
func (s *relatedLinkStore) Add(ctx context.Context, link *domain.RelatedLink) error {
	if link == nil || link.VolumePID == "" {
		return domain.ErrInvalidInput
	}
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO related_links (volume_pid, link, format, is_structured_data)
		VALUES (?, ?, ?, ?)
	`, link.VolumePID, link.Link, link.Format, boolToInt(link.IsStructuredData))
	if err != nil {
		return fmt.Errorf("adding related link: %w", err)
	}
	if link.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("adding related link: %w", err)
	}
	return nil
}

// ListByVolume returns a volume's links in insertion order.
func (s *relatedLinkStore) ListByVolume(ctx context.Context, volumePID string) ([]domain.RelatedLink, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, volume_pid, link, format, is_structured_data
		FROM related_links WHERE volume_pid = ? ORDER BY id
	`, volumePID)
	if err != nil {
		return nil, fmt.Errorf("querying related links: %w", err)
	}
	defer rows.Close()

	var links []domain.RelatedLink //nolint:prealloc // size unknown from query
	for rows.Next() {
		var l domain.RelatedLink
		var structured int
		if err := rows.Scan(&l.ID, &l.VolumePID, &l.Link, &l.Format, &structured); err != nil {
			return nil, fmt.Errorf("scanning related link: %w", err)
		}
		l.IsStructuredData = structured != 0
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating related links: %w", err)
	}
	return links, nil
}

// ==================== Image Server Store ====================

// imageServerStore implements driven.ImageServerStore.
type imageServerStore struct {
	store *Store
}

var _ driven.ImageServerStore = (*imageServerStore)(nil)

// Get retrieves an image server by ID.
func (s *imageServerStore) Get(ctx context.Context, id int64) (*domain.ImageServer, error) {
	var srv domain.ImageServer
	var kind string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, server_base, storage_kind, bucket FROM image_servers WHERE id = ?
	`, id).Scan(&srv.ID, &srv.ServerBase, &kind, &srv.Bucket)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning image server: %w", err)
	}
	srv.StorageKind = domain.StorageKind(kind)
	return &srv, nil
}

// Save stores or updates an image server, assigning an ID when zero.
func (s *imageServerStore) Save(ctx context.Context, server *domain.ImageServer) error {
	if server == nil {
		return domain.ErrInvalidInput
	}
	if server.StorageKind == "" {
		server.StorageKind = domain.StorageLocal
	}

	if server.ID == 0 {
		res, err := s.store.db.ExecContext(ctx, `
			INSERT INTO image_servers (server_base, storage_kind, bucket) VALUES (?, ?, ?)
		`, server.ServerBase, string(server.StorageKind), server.Bucket)
		if err != nil {
			return fmt.Errorf("saving image server: %w", err)
		}
		if server.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("saving image server: %w", err)
		}
		return nil
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO image_servers (id, server_base, storage_kind, bucket) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			server_base = excluded.server_base,
			storage_kind = excluded.storage_kind,
			bucket = excluded.bucket
	`, server.ID, server.ServerBase, string(server.StorageKind), server.Bucket)
	if err != nil {
		return fmt.Errorf("saving image server: %w", err)
	}
	return nil
}

// List returns all image servers ordered by ID.
func (s *imageServerStore) List(ctx context.Context) ([]domain.ImageServer, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, server_base, storage_kind, bucket FROM image_servers ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying image servers: %w", err)
	}
	defer rows.Close()

	var servers []domain.ImageServer //nolint:prealloc // size unknown from query
	for rows.Next() {
		var srv domain.ImageServer
		var kind string
		if err := rows.Scan(&srv.ID, &srv.ServerBase, &kind, &srv.Bucket); err != nil {
			return nil, fmt.Errorf("scanning image server: %w", err)
		}
		srv.StorageKind = domain.StorageKind(kind)
		servers = append(servers, srv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating image servers: %w", err)
	}
	return servers, nil
}

// ==================== Helpers ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanVolume(row scanner) (*domain.Volume, error) {
	var vol domain.Volume
	var fieldsJSON, metadataJSON, createdAt, updatedAt string
	var serverID sql.NullInt64

	if err := row.Scan(&vol.PID, &vol.Label, &fieldsJSON, &metadataJSON,
		&serverID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning volume: %w", err)
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &vol.Fields); err != nil {
		return nil, fmt.Errorf("unmarshalling fields: %w", err)
	}
	if len(vol.Fields) == 0 {
		vol.Fields = nil
	}
	if err := json.Unmarshal([]byte(metadataJSON), &vol.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	vol.ImageServerID = serverID.Int64
	vol.CreatedAt = parseTime(createdAt)
	vol.UpdatedAt = parseTime(updatedAt)
	return &vol, nil
}

func nonNilFields(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilEntries(e []domain.MetadataEntry) []domain.MetadataEntry {
	if e == nil {
		return []domain.MetadataEntry{}
	}
	return e
}

// nullInt64 converts zero to nil for SQL NULL.
func nullInt64(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeLayout is fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime stores times as RFC3339 text in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a time written by formatTime. Unparseable values yield the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
