// Package predictions keeps the append-only log of maternal risk-prediction
// runs. The model itself runs remotely; this is its local history.
package predictions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/validate"
	"gorm.io/datatypes"
)

// Input mirrors the risk-model request payload.
type Input struct {
	Age         int     `json:"age" validate:"required,gt=0"`
	SystolicBP  int     `json:"systolic_bp" validate:"required,gt=0"`
	DiastolicBP int     `json:"diastolic_bp" validate:"required,gt=0"`
	BloodSugar  float64 `json:"blood_sugar" validate:"required,gt=0"`
	BodyTempF   float64 `json:"body_temp_f" validate:"required,gt=0"`
	HeartRate   int     `json:"heart_rate" validate:"required,gt=0"`
}

// Output mirrors the risk-model response payload.
type Output struct {
	RiskLevel     string             `json:"risk_level" validate:"required"`
	Advice        string             `json:"advice"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Repository exposes prediction-history persistence.
type Repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository constructs a predictions repo bound to the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// Append records one prediction run for a user.
func (r *Repository) Append(ctx context.Context, userID string, input Input, output Output) (*models.PredictionHistory, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := validate.Struct(output); err != nil {
		return nil, err
	}

	rawIn, err := json.Marshal(input)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "encoding prediction input")
	}
	rawOut, err := json.Marshal(output)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "encoding prediction output")
	}

	entry := &models.PredictionHistory{
		ID:        uuid.NewString(),
		UserID:    userID,
		Input:     datatypes.JSON(rawIn),
		Output:    datatypes.JSON(rawOut),
		RiskLevel: output.RiskLevel,
		CreatedAt: r.now().UTC(),
	}
	if err := r.DB(ctx).Create(entry).Error; err != nil {
		return nil, db.Translate(err, schema.TablePredictionHistory)
	}
	return entry, nil
}

// List returns a user's prediction history, newest first.
func (r *Repository) List(ctx context.Context, userID string, limit int) ([]models.PredictionHistory, error) {
	query := r.DB(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []models.PredictionHistory
	if err := query.Find(&entries).Error; err != nil {
		return nil, db.Translate(err, schema.TablePredictionHistory)
	}
	return entries, nil
}
