package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Setting keys
const (
	KeyMaintenanceMode = "maintenance_mode"
)

var ErrSettingNotFound = errors.New("setting not found")

// Setting là một row trong app_settings. Value là JSON thô.
type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedBy *uuid.UUID      `json:"updated_by,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Repository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, key string, value json.RawMessage, actor *uuid.UUID) (*Setting, error)
}

type Service interface {
	MaintenanceMode(ctx context.Context) (bool, error)
	SetMaintenanceMode(ctx context.Context, on bool, actor uuid.UUID) (*MaintenanceStatus, error)
	MaintenanceStatus(ctx context.Context) (*MaintenanceStatus, error)
}

type MaintenanceStatus struct {
	Enabled   bool       `json:"enabled"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type UpdateMaintenanceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}
