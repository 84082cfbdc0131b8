package database

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// SpotModel represents the database model for spots
type SpotModel struct {
	ID              uint   `gorm:"primaryKey"`
	UUID            string `gorm:"uniqueIndex;not null"`
	Name            string `gorm:"index;not null"`
	Category        string
	Latitude        *float64
	Longitude       *float64
	Address         *string
	City            *string
	Postcode        *string
	Department      *string `gorm:"index"`
	ElevationMeters *float64
	Confidence      *float64
	// JSON-encoded field name -> provider map
	Provenance string
	EnrichedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (SpotModel) TableName() string {
	return "spots"
}

// SpotRepositoryAdapter implements the SpotRepository port using GORM
type SpotRepositoryAdapter struct {
	db *gorm.DB
}

// NewSpotRepositoryAdapter creates a new spot repository adapter
func NewSpotRepositoryAdapter(db *gorm.DB) ports.SpotRepository {
	return &SpotRepositoryAdapter{db: db}
}

// Save persists a spot, creating it when it has no ID yet
func (r *SpotRepositoryAdapter) Save(ctx context.Context, spot *ports.SpotRecord) error {
	if spot == nil {
		return errors.NewValidationError("spot cannot be nil")
	}
	if spot.UUID == "" {
		return errors.NewValidationError("spot UUID cannot be empty")
	}

	model, err := r.recordToModel(spot)
	if err != nil {
		return err
	}

	var result *gorm.DB
	if spot.ID == 0 {
		result = r.db.WithContext(ctx).Create(model)
		spot.ID = model.ID
	} else {
		result = r.db.WithContext(ctx).Save(model)
	}

	if result.Error != nil {
		return errors.NewDatabaseError("failed to save spot", result.Error)
	}

	return nil
}

// FindByUUID retrieves a spot by its public identifier
func (r *SpotRepositoryAdapter) FindByUUID(ctx context.Context, uuid string) (*ports.SpotRecord, error) {
	if uuid == "" {
		return nil, errors.NewValidationError("spot UUID cannot be empty")
	}

	var model SpotModel
	result := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("spot not found")
		}
		return nil, errors.NewDatabaseError("failed to find spot", result.Error)
	}

	return r.modelToRecord(&model)
}

// FindAll retrieves every stored spot
func (r *SpotRepositoryAdapter) FindAll(ctx context.Context) ([]ports.SpotRecord, error) {
	var models []SpotModel
	result := r.db.WithContext(ctx).Order("created_at").Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("failed to list spots", result.Error)
	}

	return r.modelsToRecords(models)
}

// FindUnenriched retrieves spots that have not been through enrichment yet
func (r *SpotRepositoryAdapter) FindUnenriched(ctx context.Context) ([]ports.SpotRecord, error) {
	var models []SpotModel
	result := r.db.WithContext(ctx).Where("enriched_at IS NULL").Order("created_at").Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("failed to list unenriched spots", result.Error)
	}

	return r.modelsToRecords(models)
}

// Delete removes a spot by its public identifier
func (r *SpotRepositoryAdapter) Delete(ctx context.Context, uuid string) error {
	if uuid == "" {
		return errors.NewValidationError("spot UUID cannot be empty")
	}

	result := r.db.WithContext(ctx).Where("uuid = ?", uuid).Delete(&SpotModel{})
	if result.Error != nil {
		return errors.NewDatabaseError("failed to delete spot", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("spot not found")
	}

	return nil
}

func (r *SpotRepositoryAdapter) recordToModel(spot *ports.SpotRecord) (*SpotModel, error) {
	provenance := ""
	if len(spot.Provenance) > 0 {
		data, err := json.Marshal(spot.Provenance)
		if err != nil {
			return nil, errors.NewValidationError("failed to encode provenance")
		}
		provenance = string(data)
	}

	return &SpotModel{
		ID:              spot.ID,
		UUID:            spot.UUID,
		Name:            spot.Name,
		Category:        spot.Category,
		Latitude:        spot.Latitude,
		Longitude:       spot.Longitude,
		Address:         spot.Address,
		City:            spot.City,
		Postcode:        spot.Postcode,
		Department:      spot.Department,
		ElevationMeters: spot.ElevationMeters,
		Confidence:      spot.Confidence,
		Provenance:      provenance,
		EnrichedAt:      spot.EnrichedAt,
		CreatedAt:       spot.CreatedAt,
		UpdatedAt:       spot.UpdatedAt,
	}, nil
}

func (r *SpotRepositoryAdapter) modelToRecord(model *SpotModel) (*ports.SpotRecord, error) {
	record := &ports.SpotRecord{
		ID:              model.ID,
		UUID:            model.UUID,
		Name:            model.Name,
		Category:        model.Category,
		Latitude:        model.Latitude,
		Longitude:       model.Longitude,
		Address:         model.Address,
		City:            model.City,
		Postcode:        model.Postcode,
		Department:      model.Department,
		ElevationMeters: model.ElevationMeters,
		Confidence:      model.Confidence,
		EnrichedAt:      model.EnrichedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.Provenance != "" {
		provenance := map[string]ports.Provider{}
		if err := json.Unmarshal([]byte(model.Provenance), &provenance); err != nil {
			return nil, errors.NewDatabaseError("failed to decode provenance", err)
		}
		record.Provenance = provenance
	}

	return record, nil
}

func (r *SpotRepositoryAdapter) modelsToRecords(models []SpotModel) ([]ports.SpotRecord, error) {
	records := make([]ports.SpotRecord, 0, len(models))
	for i := range models {
		record, err := r.modelToRecord(&models[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}
