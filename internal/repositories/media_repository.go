package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carvault/backend/internal/models"
)

// mediaRepository implements media metadata data access
type mediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *sql.DB) *mediaRepository {
	return &mediaRepository{
		db: db,
	}
}

// Create inserts a new media record into the database
func (r *mediaRepository) Create(ctx context.Context, media *models.Media) error {
	query := `
		INSERT INTO media (id, car_id, type, category, url, thumbnail_url, file_name,
		                   file_size, mime_type, duration, resolution, uploaded_by, status, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		media.ID,
		media.CarID,
		media.Type,
		nullString(media.Category),
		media.URL,
		nullString(media.ThumbnailURL),
		media.FileName,
		media.FileSize,
		media.MimeType,
		nullInt(media.Duration),
		nullString(media.Resolution),
		media.UploadedBy,
		media.Status,
		media.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}

	return nil
}

// GetByID retrieves a media record by ID
func (r *mediaRepository) GetByID(ctx context.Context, id string) (*models.Media, error) {
	query := `
		SELECT id, car_id, type, category, url, thumbnail_url, file_name,
		       file_size, mime_type, duration, resolution, uploaded_by, status, uploaded_at
		FROM media
		WHERE id = ?
		LIMIT 1
	`

	media, err := scanMedia(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media by id: %w", err)
	}

	return media, nil
}

// ListByCar retrieves all media for a car, newest first
func (r *mediaRepository) ListByCar(ctx context.Context, carID string) ([]models.Media, error) {
	query := `
		SELECT id, car_id, type, category, url, thumbnail_url, file_name,
		       file_size, mime_type, duration, resolution, uploaded_by, status, uploaded_at
		FROM media
		WHERE car_id = ?
		ORDER BY uploaded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	return collectMedia(rows)
}

// List retrieves a page of media records with an optional type filter, newest
// first, together with the total count matching the filter
func (r *mediaRepository) List(ctx context.Context, mediaType models.MediaType, limit, offset int) ([]models.Media, int64, error) {
	var whereClause string
	var args []any

	if mediaType != "" {
		whereClause = "WHERE type = ?"
		args = append(args, mediaType)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM media %s`, whereClause)

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count media: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, car_id, type, category, url, thumbnail_url, file_name,
		       file_size, mime_type, duration, resolution, uploaded_by, status, uploaded_at
		FROM media
		%s
		ORDER BY uploaded_at DESC
		LIMIT ? OFFSET ?
	`, whereClause)

	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	media, err := collectMedia(rows)
	if err != nil {
		return nil, 0, err
	}

	return media, total, nil
}

// ConfirmUpload sets the actual file size and flips the record to READY. The
// last confirm wins when raced; the row update is the only serialization point.
func (r *mediaRepository) ConfirmUpload(ctx context.Context, id string, fileSize int64) error {
	query := `UPDATE media SET file_size = ?, status = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, fileSize, models.MediaStatusReady, id)
	if err != nil {
		return fmt.Errorf("failed to confirm upload: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrMediaNotFound
	}

	return nil
}

// DeleteByID deletes a media record by ID
func (r *mediaRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM media WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrMediaNotFound
	}

	return nil
}

// Stats aggregates total count, count per type and total stored bytes
func (r *mediaRepository) Stats(ctx context.Context) (*models.MediaStats, error) {
	stats := &models.MediaStats{
		ByType: []models.MediaTypeCount{},
	}

	query := `SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM media`
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.TotalSize); err != nil {
		return nil, fmt.Errorf("failed to aggregate media: %w", err)
	}

	groupQuery := `SELECT type, COUNT(*) FROM media GROUP BY type ORDER BY type`
	rows, err := r.db.QueryContext(ctx, groupQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to group media by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc models.MediaTypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan media type count: %w", err)
		}
		stats.ByType = append(stats.ByType, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return stats, nil
}

// Clear removes all media records. Test support only; deliberately explicit
// rather than discovering tables at runtime.
func (r *mediaRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM media`); err != nil {
		return fmt.Errorf("failed to clear media: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*models.Media, error) {
	media := &models.Media{}
	var category, thumbnailURL, resolution sql.NullString
	var duration sql.NullInt64

	err := row.Scan(
		&media.ID,
		&media.CarID,
		&media.Type,
		&category,
		&media.URL,
		&thumbnailURL,
		&media.FileName,
		&media.FileSize,
		&media.MimeType,
		&duration,
		&resolution,
		&media.UploadedBy,
		&media.Status,
		&media.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		media.Category = category.String
	}
	if thumbnailURL.Valid {
		media.ThumbnailURL = thumbnailURL.String
	}
	if duration.Valid {
		media.Duration = int(duration.Int64)
	}
	if resolution.Valid {
		media.Resolution = resolution.String
	}

	return media, nil
}

func collectMedia(rows *sql.Rows) ([]models.Media, error) {
	var media []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		media = append(media, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return media, nil
}

// nullString maps an empty string to SQL NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt maps zero to SQL NULL
func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
