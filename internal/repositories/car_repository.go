package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/carvault/backend/internal/models"
)

const carColumns = `id, vin, make, model, year, color, car_condition, mileage, location,
       purchase_date, purchase_price, created_by, vin_data, is_archived, created_at, updated_at`

// carRepository implements car data access
type carRepository struct {
	db *sql.DB
}

// NewCarRepository creates a new car repository
func NewCarRepository(db *sql.DB) *carRepository {
	return &carRepository{
		db: db,
	}
}

// Create inserts a new car record into the database
func (r *carRepository) Create(ctx context.Context, car *models.Car) error {
	query := `
		INSERT INTO cars (id, vin, make, model, year, color, car_condition, mileage, location,
		                  purchase_date, purchase_price, created_by, vin_data, is_archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var vinData any
	if len(car.VINData) > 0 {
		vinData = string(car.VINData)
	}

	_, err := r.db.ExecContext(ctx, query,
		car.ID,
		car.VIN,
		car.Make,
		car.Model,
		car.Year,
		nullString(car.Color),
		car.Condition,
		nullInt(car.Mileage),
		nullString(car.Location),
		car.PurchaseDate,
		car.PurchasePrice,
		car.CreatedBy,
		vinData,
		car.IsArchived,
		car.CreatedAt,
		car.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}

	return nil
}

// GetByID retrieves a car by ID
func (r *carRepository) GetByID(ctx context.Context, id string) (*models.Car, error) {
	query := fmt.Sprintf(`SELECT %s FROM cars WHERE id = ? LIMIT 1`, carColumns)

	car, err := scanCar(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrCarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car by id: %w", err)
	}

	return car, nil
}

// GetByVIN retrieves a car by its VIN
func (r *carRepository) GetByVIN(ctx context.Context, vin string) (*models.Car, error) {
	query := fmt.Sprintf(`SELECT %s FROM cars WHERE vin = ? LIMIT 1`, carColumns)

	car, err := scanCar(r.db.QueryRowContext(ctx, query, vin))
	if err == sql.ErrNoRows {
		return nil, models.ErrCarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car by vin: %w", err)
	}

	return car, nil
}

// ExistsByID checks whether a car with the given ID exists. This is the
// read-only existence gate consumed by the media and remark services.
func (r *carRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM cars WHERE id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check car existence: %w", err)
	}

	return exists, nil
}

// ExistsActiveByVIN checks whether a non-archived car with the given VIN
// exists, optionally excluding one car ID (used on update)
func (r *carRepository) ExistsActiveByVIN(ctx context.Context, vin, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM cars WHERE vin = ? AND is_archived = FALSE AND id != ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, vin, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check vin existence: %w", err)
	}

	return exists, nil
}

// List retrieves a page of active cars matching the filter, newest first,
// together with the total count
func (r *carRepository) List(ctx context.Context, filter models.CarFilter) ([]models.Car, int64, error) {
	whereParts := []string{"is_archived = FALSE"}
	var args []any

	if filter.Make != "" {
		whereParts = append(whereParts, "make = ?")
		args = append(args, filter.Make)
	}
	if filter.Condition != "" {
		whereParts = append(whereParts, "car_condition = ?")
		args = append(args, filter.Condition)
	}

	whereClause := "WHERE " + strings.Join(whereParts, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM cars %s`, whereClause)

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cars: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM cars
		%s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, carColumns, whereClause)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query cars: %w", err)
	}
	defer rows.Close()

	var cars []models.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan car: %w", err)
		}
		cars = append(cars, *car)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return cars, total, nil
}

// Update updates car fields (partial update)
func (r *carRepository) Update(ctx context.Context, id string, car *models.Car) error {
	var setParts []string
	var args []any

	if car.VIN != "" {
		setParts = append(setParts, "vin = ?")
		args = append(args, car.VIN)
	}
	if car.Make != "" {
		setParts = append(setParts, "make = ?")
		args = append(args, car.Make)
	}
	if car.Model != "" {
		setParts = append(setParts, "model = ?")
		args = append(args, car.Model)
	}
	if car.Year != 0 {
		setParts = append(setParts, "year = ?")
		args = append(args, car.Year)
	}
	if car.Color != "" {
		setParts = append(setParts, "color = ?")
		args = append(args, car.Color)
	}
	if car.Condition != "" {
		setParts = append(setParts, "car_condition = ?")
		args = append(args, car.Condition)
	}
	if car.Mileage != 0 {
		setParts = append(setParts, "mileage = ?")
		args = append(args, car.Mileage)
	}
	if car.Location != "" {
		setParts = append(setParts, "location = ?")
		args = append(args, car.Location)
	}
	if car.PurchaseDate != nil {
		setParts = append(setParts, "purchase_date = ?")
		args = append(args, car.PurchaseDate)
	}
	if car.PurchasePrice != 0 {
		setParts = append(setParts, "purchase_price = ?")
		args = append(args, car.PurchasePrice)
	}

	if len(setParts) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setParts = append(setParts, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE cars
		SET %s
		WHERE id = ?
	`, strings.Join(setParts, ", "))

	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update car: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrCarNotFound
	}

	return nil
}

// Archive soft-deletes a car. Media and remarks are intentionally left in
// place; there is no cascade.
func (r *carRepository) Archive(ctx context.Context, id string) error {
	query := `UPDATE cars SET is_archived = TRUE, updated_at = NOW() WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to archive car: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrCarNotFound
	}

	return nil
}

// DeleteByID permanently deletes a car record
func (r *carRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM cars WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrCarNotFound
	}

	return nil
}

// Stats aggregates counts over active cars
func (r *carRepository) Stats(ctx context.Context) (*models.CarStats, error) {
	stats := &models.CarStats{
		ByCondition: []models.CarConditionCount{},
	}

	query := `SELECT COUNT(*) FROM cars WHERE is_archived = FALSE`
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count cars: %w", err)
	}

	recentQuery := `
		SELECT COUNT(*) FROM cars
		WHERE is_archived = FALSE AND created_at >= NOW() - INTERVAL 7 DAY
	`
	if err := r.db.QueryRowContext(ctx, recentQuery).Scan(&stats.RecentlyAdded); err != nil {
		return nil, fmt.Errorf("failed to count recent cars: %w", err)
	}

	groupQuery := `
		SELECT car_condition, COUNT(*) FROM cars
		WHERE is_archived = FALSE
		GROUP BY car_condition
		ORDER BY car_condition
	`
	rows, err := r.db.QueryContext(ctx, groupQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to group cars by condition: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cc models.CarConditionCount
		if err := rows.Scan(&cc.Condition, &cc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan condition count: %w", err)
		}
		stats.ByCondition = append(stats.ByCondition, cc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return stats, nil
}

// Clear removes all car records. Test support only.
func (r *carRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cars`); err != nil {
		return fmt.Errorf("failed to clear cars: %w", err)
	}
	return nil
}

func scanCar(row rowScanner) (*models.Car, error) {
	car := &models.Car{}
	var color, location, vinData sql.NullString
	var mileage sql.NullInt64
	var purchaseDate sql.NullTime
	var purchasePrice sql.NullFloat64

	err := row.Scan(
		&car.ID,
		&car.VIN,
		&car.Make,
		&car.Model,
		&car.Year,
		&color,
		&car.Condition,
		&mileage,
		&location,
		&purchaseDate,
		&purchasePrice,
		&car.CreatedBy,
		&vinData,
		&car.IsArchived,
		&car.CreatedAt,
		&car.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if color.Valid {
		car.Color = color.String
	}
	if mileage.Valid {
		car.Mileage = int(mileage.Int64)
	}
	if location.Valid {
		car.Location = location.String
	}
	if purchaseDate.Valid {
		car.PurchaseDate = &purchaseDate.Time
	}
	if purchasePrice.Valid {
		car.PurchasePrice = purchasePrice.Float64
	}
	if vinData.Valid {
		car.VINData = []byte(vinData.String)
	}

	return car, nil
}
