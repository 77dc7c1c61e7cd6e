package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// pageStore implements driven.PageStore.
type pageStore struct {
	store *Store
}

var _ driven.PageStore = (*pageStore)(nil)

// SaveAll upserts pages in one transaction. Existing pages keep their words.
func (s *pageStore) SaveAll(ctx context.Context, pages []domain.Page) error {
	if len(pages) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (pid, volume_pid, position, width, height, ocr_path, ocr_offset, default_ocr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pid) DO UPDATE SET
			volume_pid = excluded.volume_pid,
			position = excluded.position,
			width = excluded.width,
			height = excluded.height,
			ocr_path = excluded.ocr_path,
			ocr_offset = excluded.ocr_offset,
			default_ocr = excluded.default_ocr
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		var ocrPath any
		if p.OCRPath != nil {
			ocrPath = *p.OCRPath
		}
		defaultOCR := p.DefaultOCR
		if defaultOCR == "" {
			defaultOCR = domain.OCRWord
		}
		if _, err := stmt.ExecContext(ctx, p.PID, p.VolumePID, p.Position, p.Width, p.Height,
			ocrPath, p.OCROffset, string(defaultOCR)); err != nil {
			return fmt.Errorf("saving page %s: %w", p.PID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a page by pid.
func (s *pageStore) Get(ctx context.Context, pid string) (*domain.Page, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT pid, volume_pid, position, width, height, ocr_path, ocr_offset, default_ocr
		FROM pages WHERE pid = ?
	`, pid)
	return scanPage(row)
}

// ListByVolume returns a volume's pages ordered by position.
func (s *pageStore) ListByVolume(ctx context.Context, volumePID string) ([]domain.Page, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT pid, volume_pid, position, width, height, ocr_path, ocr_offset, default_ocr
		FROM pages WHERE volume_pid = ? ORDER BY position, pid
	`, volumePID)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page //nolint:prealloc // size unknown from query
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}
	return pages, nil
}

func scanPage(row scanner) (*domain.Page, error) {
	var p domain.Page
	var ocrPath sql.NullString
	var defaultOCR string
	if err := row.Scan(&p.PID, &p.VolumePID, &p.Position, &p.Width, &p.Height,
		&ocrPath, &p.OCROffset, &defaultOCR); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	if ocrPath.Valid {
		path := ocrPath.String
		p.OCRPath = &path
	}
	p.DefaultOCR = domain.OCRGranularity(defaultOCR)
	return &p, nil
}

// ==================== Word Store ====================

// wordStore implements driven.WordStore.
type wordStore struct {
	store *Store
}

var _ driven.WordStore = (*wordStore)(nil)

// ReplaceForPage deletes the page's words and inserts the given ones atomically.
func (s *wordStore) ReplaceForPage(ctx context.Context, pagePID string, words []domain.Word) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM words WHERE page_pid = ?", pagePID); err != nil {
		return fmt.Errorf("deleting words: %w", err)
	}

	if len(words) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO words (page_pid, content, x, y, w, h, ord, resource_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, w := range words {
			if _, err := stmt.ExecContext(ctx, pagePID, w.Content, w.X, w.Y, w.W, w.H,
				w.Order, string(w.ResourceType)); err != nil {
				return fmt.Errorf("saving word %d: %w", w.Order, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListByPage returns a page's words ordered by Order.
func (s *wordStore) ListByPage(ctx context.Context, pagePID string) ([]domain.Word, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT page_pid, content, x, y, w, h, ord, resource_type
		FROM words WHERE page_pid = ? ORDER BY ord, id
	`, pagePID)
	if err != nil {
		return nil, fmt.Errorf("querying words: %w", err)
	}
	defer rows.Close()

	var words []domain.Word //nolint:prealloc // size unknown from query
	for rows.Next() {
		var w domain.Word
		var rt string
		if err := rows.Scan(&w.PagePID, &w.Content, &w.X, &w.Y, &w.W, &w.H, &w.Order, &rt); err != nil {
			return nil, fmt.Errorf("scanning word: %w", err)
		}
		w.ResourceType = domain.ResourceType(rt)
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating words: %w", err)
	}
	return words, nil
}
