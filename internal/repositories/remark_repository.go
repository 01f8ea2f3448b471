package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/carvault/backend/internal/models"
)

const remarkColumns = `id, car_id, type, priority, text, created_by, updated_by, created_at, updated_at`

// remarkRepository implements remark data access
type remarkRepository struct {
	db *sql.DB
}

// NewRemarkRepository creates a new remark repository
func NewRemarkRepository(db *sql.DB) *remarkRepository {
	return &remarkRepository{
		db: db,
	}
}

// Create inserts a new remark record into the database
func (r *remarkRepository) Create(ctx context.Context, remark *models.Remark) error {
	query := `
		INSERT INTO remarks (id, car_id, type, priority, text, created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		remark.ID,
		remark.CarID,
		nullString(remark.Type),
		nullString(remark.Priority),
		remark.Text,
		remark.CreatedBy,
		nullString(remark.UpdatedBy),
		remark.CreatedAt,
		remark.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create remark: %w", err)
	}

	return nil
}

// GetByID retrieves a remark by ID
func (r *remarkRepository) GetByID(ctx context.Context, id string) (*models.Remark, error) {
	query := fmt.Sprintf(`SELECT %s FROM remarks WHERE id = ? LIMIT 1`, remarkColumns)

	remark, err := scanRemark(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrRemarkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get remark by id: %w", err)
	}

	return remark, nil
}

// ListByCar retrieves all remarks attached to a car, newest first
func (r *remarkRepository) ListByCar(ctx context.Context, carID string) ([]models.Remark, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM remarks
		WHERE car_id = ?
		ORDER BY created_at DESC
	`, remarkColumns)

	rows, err := r.db.QueryContext(ctx, query, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to query remarks by car: %w", err)
	}
	defer rows.Close()

	return collectRemarks(rows)
}

// List retrieves a page of remarks matching the filter, newest first,
// together with the total count
func (r *remarkRepository) List(ctx context.Context, filter models.RemarkFilter) ([]models.Remark, int64, error) {
	var whereParts []string
	var args []any

	if filter.Type != "" {
		whereParts = append(whereParts, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Priority != "" {
		whereParts = append(whereParts, "priority = ?")
		args = append(args, filter.Priority)
	}

	whereClause := ""
	if len(whereParts) > 0 {
		whereClause = "WHERE " + strings.Join(whereParts, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM remarks %s`, whereClause)

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count remarks: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM remarks
		%s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, remarkColumns, whereClause)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query remarks: %w", err)
	}
	defer rows.Close()

	remarks, err := collectRemarks(rows)
	if err != nil {
		return nil, 0, err
	}

	return remarks, total, nil
}

// Update updates remark fields (partial update)
func (r *remarkRepository) Update(ctx context.Context, id string, remark *models.Remark) error {
	var setParts []string
	var args []any

	if remark.Type != "" {
		setParts = append(setParts, "type = ?")
		args = append(args, remark.Type)
	}
	if remark.Priority != "" {
		setParts = append(setParts, "priority = ?")
		args = append(args, remark.Priority)
	}
	if remark.Text != "" {
		setParts = append(setParts, "text = ?")
		args = append(args, remark.Text)
	}
	if remark.UpdatedBy != "" {
		setParts = append(setParts, "updated_by = ?")
		args = append(args, remark.UpdatedBy)
	}

	if len(setParts) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setParts = append(setParts, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE remarks
		SET %s
		WHERE id = ?
	`, strings.Join(setParts, ", "))

	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update remark: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrRemarkNotFound
	}

	return nil
}

// DeleteByID deletes a remark record
func (r *remarkRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM remarks WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete remark: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrRemarkNotFound
	}

	return nil
}

// Stats aggregates remark counts by type and priority
func (r *remarkRepository) Stats(ctx context.Context) (*models.RemarkStats, error) {
	stats := &models.RemarkStats{
		ByType:     []models.RemarkGroupCount{},
		ByPriority: []models.RemarkGroupCount{},
	}

	query := `SELECT COUNT(*) FROM remarks`
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count remarks: %w", err)
	}

	typeQuery := `SELECT type, COUNT(*) FROM remarks GROUP BY type ORDER BY type`
	byType, err := r.groupCounts(ctx, typeQuery)
	if err != nil {
		return nil, err
	}
	stats.ByType = byType

	priorityQuery := `SELECT priority, COUNT(*) FROM remarks GROUP BY priority ORDER BY priority`
	byPriority, err := r.groupCounts(ctx, priorityQuery)
	if err != nil {
		return nil, err
	}
	stats.ByPriority = byPriority

	return stats, nil
}

// Clear removes all remark records. Test support only.
func (r *remarkRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM remarks`); err != nil {
		return fmt.Errorf("failed to clear remarks: %w", err)
	}
	return nil
}

func (r *remarkRepository) groupCounts(ctx context.Context, query string) ([]models.RemarkGroupCount, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group remarks: %w", err)
	}
	defer rows.Close()

	counts := []models.RemarkGroupCount{}
	for rows.Next() {
		var gc models.RemarkGroupCount
		if err := rows.Scan(&gc.Value, &gc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan group count: %w", err)
		}
		counts = append(counts, gc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

func scanRemark(row rowScanner) (*models.Remark, error) {
	remark := &models.Remark{}
	var remarkType, priority, updatedBy sql.NullString

	err := row.Scan(
		&remark.ID,
		&remark.CarID,
		&remarkType,
		&priority,
		&remark.Text,
		&remark.CreatedBy,
		&updatedBy,
		&remark.CreatedAt,
		&remark.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if remarkType.Valid {
		remark.Type = remarkType.String
	}
	if priority.Valid {
		remark.Priority = priority.String
	}
	if updatedBy.Valid {
		remark.UpdatedBy = updatedBy.String
	}

	return remark, nil
}

func collectRemarks(rows *sql.Rows) ([]models.Remark, error) {
	var remarks []models.Remark
	for rows.Next() {
		remark, err := scanRemark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan remark: %w", err)
		}
		remarks = append(remarks, *remark)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return remarks, nil
}
