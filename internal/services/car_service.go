package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/models"
)

// CarRepository defines the interface for car data access
type CarRepository interface {
	Create(ctx context.Context, car *models.Car) error
	GetByID(ctx context.Context, id string) (*models.Car, error)
	GetByVIN(ctx context.Context, vin string) (*models.Car, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsActiveByVIN(ctx context.Context, vin, excludeID string) (bool, error)
	List(ctx context.Context, filter models.CarFilter) ([]models.Car, int64, error)
	Update(ctx context.Context, id string, car *models.Car) error
	Archive(ctx context.Context, id string) error
	DeleteByID(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.CarStats, error)
	Clear(ctx context.Context) error
}

// VINDecoder defines the interface for VIN validation and decoding against the
// external vehicle registry
type VINDecoder interface {
	Validate(vin string) bool
	Decode(ctx context.Context, vin string) (json.RawMessage, error)
}

// CarService handles business logic for car operations
type CarService struct {
	carRepo CarRepository
	decoder VINDecoder
	logger  *zap.Logger
}

// NewCarService creates a new car service
func NewCarService(carRepo CarRepository, decoder VINDecoder, logger *zap.Logger) *CarService {
	return &CarService{
		carRepo: carRepo,
		decoder: decoder,
		logger:  logger,
	}
}

// Create registers a new car. The VIN is normalized to upper case and must be
// unique among active cars. VIN decoding degrades gracefully: a registry
// failure is logged and the car is created without decoded data.
func (s *CarService) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	car.VIN = strings.ToUpper(strings.TrimSpace(car.VIN))

	if !s.decoder.Validate(car.VIN) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidVIN, car.VIN)
	}

	exists, err := s.carRepo.ExistsActiveByVIN(ctx, car.VIN, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check vin uniqueness: %w", err)
	}
	if exists {
		return nil, models.ErrDuplicateVIN
	}

	if len(car.VINData) == 0 {
		vinData, err := s.decoder.Decode(ctx, car.VIN)
		if err != nil {
			s.logger.Warn("vin decode failed, creating car without decoded data",
				zap.String("vin", car.VIN),
				zap.Error(err))
		} else {
			car.VINData = vinData
		}
	}

	now := time.Now().UTC()
	car.ID = uuid.New().String()
	car.IsArchived = false
	car.CreatedAt = now
	car.UpdatedAt = now

	if err := s.carRepo.Create(ctx, car); err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	return car, nil
}

// GetByID retrieves a car by ID
func (s *CarService) GetByID(ctx context.Context, id string) (*models.Car, error) {
	return s.carRepo.GetByID(ctx, id)
}

// GetByVIN retrieves a car by its normalized VIN
func (s *CarService) GetByVIN(ctx context.Context, vin string) (*models.Car, error) {
	return s.carRepo.GetByVIN(ctx, strings.ToUpper(strings.TrimSpace(vin)))
}

// List retrieves one page of active cars
func (s *CarService) List(ctx context.Context, filter models.CarFilter) ([]models.Car, int64, error) {
	if filter.Limit < 1 || filter.Limit > models.MaxPageSize {
		filter.Limit = models.DefaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	cars, total, err := s.carRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if cars == nil {
		cars = []models.Car{}
	}
	return cars, total, nil
}

// Update applies a partial update. A VIN change is re-validated and checked
// for conflicts against other active cars.
func (s *CarService) Update(ctx context.Context, id string, car *models.Car) (*models.Car, error) {
	if car.VIN != "" {
		car.VIN = strings.ToUpper(strings.TrimSpace(car.VIN))
		if !s.decoder.Validate(car.VIN) {
			return nil, fmt.Errorf("%w: %q", models.ErrInvalidVIN, car.VIN)
		}

		exists, err := s.carRepo.ExistsActiveByVIN(ctx, car.VIN, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check vin uniqueness: %w", err)
		}
		if exists {
			return nil, models.ErrDuplicateVIN
		}
	}

	if err := s.carRepo.Update(ctx, id, car); err != nil {
		return nil, err
	}

	return s.carRepo.GetByID(ctx, id)
}

// Archive soft-deletes a car. Attached media and remarks stay untouched.
func (s *CarService) Archive(ctx context.Context, id string) error {
	return s.carRepo.Archive(ctx, id)
}

// Delete permanently removes a car record
func (s *CarService) Delete(ctx context.Context, id string) error {
	return s.carRepo.DeleteByID(ctx, id)
}

// DecodeVIN decodes a VIN against the external registry without creating a car
func (s *CarService) DecodeVIN(ctx context.Context, vin string) (json.RawMessage, error) {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	if !s.decoder.Validate(vin) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidVIN, vin)
	}
	return s.decoder.Decode(ctx, vin)
}

// Stats aggregates car statistics
func (s *CarService) Stats(ctx context.Context) (*models.CarStats, error) {
	return s.carRepo.Stats(ctx)
}

// Clear removes all car records. Test support only.
func (s *CarService) Clear(ctx context.Context) error {
	return s.carRepo.Clear(ctx)
}
