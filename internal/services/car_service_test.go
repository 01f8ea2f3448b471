package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/models"
)

// mockCarRepository is a mock implementation of CarRepository
type mockCarRepository struct {
	car       *models.Car
	cars      []models.Car
	total     int64
	stats     *models.CarStats
	exists    bool
	vinExists bool
	err       error

	created     *models.Car
	updatedID   string
	archivedID  string
	deletedID   string
	clearCalled bool
}

func (m *mockCarRepository) Create(ctx context.Context, car *models.Car) error {
	if m.err != nil {
		return m.err
	}
	m.created = car
	return nil
}

func (m *mockCarRepository) GetByID(ctx context.Context, id string) (*models.Car, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.car == nil {
		return nil, models.ErrCarNotFound
	}
	return m.car, nil
}

func (m *mockCarRepository) GetByVIN(ctx context.Context, vin string) (*models.Car, error) {
	if m.car == nil {
		return nil, models.ErrCarNotFound
	}
	return m.car, nil
}

func (m *mockCarRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return m.exists, m.err
}

func (m *mockCarRepository) ExistsActiveByVIN(ctx context.Context, vin, excludeID string) (bool, error) {
	return m.vinExists, nil
}

func (m *mockCarRepository) List(ctx context.Context, filter models.CarFilter) ([]models.Car, int64, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.cars, m.total, nil
}

func (m *mockCarRepository) Update(ctx context.Context, id string, car *models.Car) error {
	if m.err != nil {
		return m.err
	}
	m.updatedID = id
	return nil
}

func (m *mockCarRepository) Archive(ctx context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.archivedID = id
	return nil
}

func (m *mockCarRepository) DeleteByID(ctx context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = id
	return nil
}

func (m *mockCarRepository) Stats(ctx context.Context) (*models.CarStats, error) {
	return m.stats, m.err
}

func (m *mockCarRepository) Clear(ctx context.Context) error {
	m.clearCalled = true
	return m.err
}

// mockVINDecoder is a mock implementation of VINDecoder
type mockVINDecoder struct {
	valid     bool
	data      json.RawMessage
	decodeErr error

	decodedVIN string
}

func (m *mockVINDecoder) Validate(vin string) bool {
	return m.valid
}

func (m *mockVINDecoder) Decode(ctx context.Context, vin string) (json.RawMessage, error) {
	m.decodedVIN = vin
	if m.decodeErr != nil {
		return nil, m.decodeErr
	}
	return m.data, nil
}

func setupCarService(repo *mockCarRepository, decoder *mockVINDecoder) *CarService {
	return NewCarService(repo, decoder, zap.NewNop())
}

func TestCarService_Create(t *testing.T) {
	t.Run("normalizes vin and decodes registry data", func(t *testing.T) {
		repo := &mockCarRepository{}
		decoder := &mockVINDecoder{valid: true, data: json.RawMessage(`{"Make":"HONDA"}`)}
		svc := setupCarService(repo, decoder)

		car, err := svc.Create(context.Background(), &models.Car{
			VIN:       " 1hgbh41jxmn109186 ",
			Make:      "Honda",
			Model:     "Accord",
			Year:      2021,
			Condition: "RUNS_DRIVES",
			CreatedBy: "user-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "1HGBH41JXMN109186", car.VIN)
		assert.Equal(t, "1HGBH41JXMN109186", decoder.decodedVIN)
		assert.JSONEq(t, `{"Make":"HONDA"}`, string(car.VINData))
		assert.NotEmpty(t, car.ID)
		assert.False(t, car.IsArchived)
		assert.NotNil(t, repo.created)
	})

	t.Run("registry failure degrades to car without decoded data", func(t *testing.T) {
		repo := &mockCarRepository{}
		decoder := &mockVINDecoder{valid: true, decodeErr: errors.New("registry unavailable")}
		svc := setupCarService(repo, decoder)

		car, err := svc.Create(context.Background(), &models.Car{
			VIN:       "1HGBH41JXMN109186",
			Make:      "Honda",
			Model:     "Accord",
			Year:      2021,
			CreatedBy: "user-1",
		})

		require.NoError(t, err)
		assert.Empty(t, car.VINData)
		assert.NotNil(t, repo.created)
	})

	t.Run("invalid vin is rejected", func(t *testing.T) {
		svc := setupCarService(&mockCarRepository{}, &mockVINDecoder{valid: false})

		car, err := svc.Create(context.Background(), &models.Car{VIN: "TOO-SHORT"})

		assert.ErrorIs(t, err, models.ErrInvalidVIN)
		assert.Nil(t, car)
	})

	t.Run("duplicate active vin is rejected", func(t *testing.T) {
		repo := &mockCarRepository{vinExists: true}
		svc := setupCarService(repo, &mockVINDecoder{valid: true})

		car, err := svc.Create(context.Background(), &models.Car{VIN: "1HGBH41JXMN109186"})

		assert.ErrorIs(t, err, models.ErrDuplicateVIN)
		assert.Nil(t, car)
		assert.Nil(t, repo.created)
	})

	t.Run("provided vin data skips the registry", func(t *testing.T) {
		repo := &mockCarRepository{}
		decoder := &mockVINDecoder{valid: true, data: json.RawMessage(`{"Make":"HONDA"}`)}
		svc := setupCarService(repo, decoder)

		car, err := svc.Create(context.Background(), &models.Car{
			VIN:     "1HGBH41JXMN109186",
			VINData: json.RawMessage(`{"Make":"PROVIDED"}`),
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"Make":"PROVIDED"}`, string(car.VINData))
		assert.Empty(t, decoder.decodedVIN)
	})
}

func TestCarService_List(t *testing.T) {
	t.Run("empty inventory yields empty slice", func(t *testing.T) {
		repo := &mockCarRepository{cars: nil, total: 0}
		svc := setupCarService(repo, &mockVINDecoder{valid: true})

		cars, total, err := svc.List(context.Background(), models.CarFilter{})

		require.NoError(t, err)
		assert.NotNil(t, cars)
		assert.Empty(t, cars)
		assert.Zero(t, total)
	})
}

func TestCarService_Update(t *testing.T) {
	t.Run("vin change is re-validated", func(t *testing.T) {
		svc := setupCarService(&mockCarRepository{}, &mockVINDecoder{valid: false})

		car, err := svc.Update(context.Background(), "car-1", &models.Car{VIN: "BAD"})

		assert.ErrorIs(t, err, models.ErrInvalidVIN)
		assert.Nil(t, car)
	})

	t.Run("vin conflict with another active car is rejected", func(t *testing.T) {
		repo := &mockCarRepository{vinExists: true}
		svc := setupCarService(repo, &mockVINDecoder{valid: true})

		_, err := svc.Update(context.Background(), "car-1", &models.Car{VIN: "1HGBH41JXMN109186"})

		assert.ErrorIs(t, err, models.ErrDuplicateVIN)
	})

	t.Run("partial update returns refreshed car", func(t *testing.T) {
		repo := &mockCarRepository{car: &models.Car{ID: "car-1", Color: "red"}}
		svc := setupCarService(repo, &mockVINDecoder{valid: true})

		car, err := svc.Update(context.Background(), "car-1", &models.Car{Color: "red"})

		require.NoError(t, err)
		assert.Equal(t, "car-1", repo.updatedID)
		assert.Equal(t, "red", car.Color)
	})
}

func TestCarService_Archive(t *testing.T) {
	repo := &mockCarRepository{}
	svc := setupCarService(repo, &mockVINDecoder{valid: true})

	err := svc.Archive(context.Background(), "car-1")

	assert.NoError(t, err)
	assert.Equal(t, "car-1", repo.archivedID)
}

func TestCarService_DecodeVIN(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		decoder := &mockVINDecoder{valid: true, data: json.RawMessage(`{"Make":"HONDA"}`)}
		svc := setupCarService(&mockCarRepository{}, decoder)

		data, err := svc.DecodeVIN(context.Background(), "1hgbh41jxmn109186")

		require.NoError(t, err)
		assert.JSONEq(t, `{"Make":"HONDA"}`, string(data))
		assert.Equal(t, "1HGBH41JXMN109186", decoder.decodedVIN)
	})

	t.Run("invalid vin", func(t *testing.T) {
		svc := setupCarService(&mockCarRepository{}, &mockVINDecoder{valid: false})

		data, err := svc.DecodeVIN(context.Background(), "BAD")

		assert.ErrorIs(t, err, models.ErrInvalidVIN)
		assert.Nil(t, data)
	})
}
