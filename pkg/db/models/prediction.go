package models

import (
	"time"

	"gorm.io/datatypes"
)

// PredictionHistory is an append-only log of risk-prediction runs. Input and
// Output keep the model payloads as JSON; rows are read newest-first.
type PredictionHistory struct {
	ID        string         `gorm:"column:id;primaryKey"`
	UserID    string         `gorm:"column:user_id;not null;index"`
	Input     datatypes.JSON `gorm:"column:input;not null"`
	Output    datatypes.JSON `gorm:"column:output;not null"`
	RiskLevel string         `gorm:"column:risk_level;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;index"`
}

func (PredictionHistory) TableName() string { return "prediction_history" }
