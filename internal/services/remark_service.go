package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carvault/backend/internal/models"
)

// RemarkRepository defines the interface for remark data access
type RemarkRepository interface {
	Create(ctx context.Context, remark *models.Remark) error
	GetByID(ctx context.Context, id string) (*models.Remark, error)
	ListByCar(ctx context.Context, carID string) ([]models.Remark, error)
	List(ctx context.Context, filter models.RemarkFilter) ([]models.Remark, int64, error)
	Update(ctx context.Context, id string, remark *models.Remark) error
	DeleteByID(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.RemarkStats, error)
	Clear(ctx context.Context) error
}

// RemarkService handles business logic for remark operations
type RemarkService struct {
	remarkRepo RemarkRepository
	cars       CarExistenceChecker
}

// NewRemarkService creates a new remark service
func NewRemarkService(remarkRepo RemarkRepository, cars CarExistenceChecker) *RemarkService {
	return &RemarkService{
		remarkRepo: remarkRepo,
		cars:       cars,
	}
}

// Create attaches a new remark to an existing car
func (s *RemarkService) Create(ctx context.Context, remark *models.Remark) (*models.Remark, error) {
	exists, err := s.cars.ExistsByID(ctx, remark.CarID)
	if err != nil {
		return nil, fmt.Errorf("failed to check car existence: %w", err)
	}
	if !exists {
		return nil, models.ErrCarNotFound
	}

	now := time.Now().UTC()
	remark.ID = uuid.New().String()
	remark.CreatedAt = now
	remark.UpdatedAt = now

	if err := s.remarkRepo.Create(ctx, remark); err != nil {
		return nil, fmt.Errorf("failed to create remark: %w", err)
	}

	return remark, nil
}

// GetByID retrieves a remark by ID
func (s *RemarkService) GetByID(ctx context.Context, id string) (*models.Remark, error) {
	return s.remarkRepo.GetByID(ctx, id)
}

// ListByCar retrieves all remarks attached to a car. The car must exist; a car
// with no remarks yields an empty slice, not nil.
func (s *RemarkService) ListByCar(ctx context.Context, carID string) ([]models.Remark, error) {
	exists, err := s.cars.ExistsByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to check car existence: %w", err)
	}
	if !exists {
		return nil, models.ErrCarNotFound
	}

	remarks, err := s.remarkRepo.ListByCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	if remarks == nil {
		remarks = []models.Remark{}
	}
	return remarks, nil
}

// List retrieves one page of remarks matching the filter
func (s *RemarkService) List(ctx context.Context, filter models.RemarkFilter) ([]models.Remark, int64, error) {
	if filter.Limit < 1 || filter.Limit > models.MaxPageSize {
		filter.Limit = models.DefaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	remarks, total, err := s.remarkRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if remarks == nil {
		remarks = []models.Remark{}
	}
	return remarks, total, nil
}

// Update applies a partial update to a remark
func (s *RemarkService) Update(ctx context.Context, id string, remark *models.Remark) (*models.Remark, error) {
	if err := s.remarkRepo.Update(ctx, id, remark); err != nil {
		return nil, err
	}
	return s.remarkRepo.GetByID(ctx, id)
}

// Delete removes a remark
func (s *RemarkService) Delete(ctx context.Context, id string) error {
	return s.remarkRepo.DeleteByID(ctx, id)
}

// Stats aggregates remark statistics
func (s *RemarkService) Stats(ctx context.Context) (*models.RemarkStats, error) {
	return s.remarkRepo.Stats(ctx)
}

// Clear removes all remark records. Test support only.
func (s *RemarkService) Clear(ctx context.Context) error {
	return s.remarkRepo.Clear(ctx)
}
