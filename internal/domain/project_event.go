package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProjectEventCreated = "CREATED"
	ProjectEventUpdated = "UPDATED"
	ProjectEventLiked   = "LIKED"
	ProjectEventSold    = "SOLD"
	ProjectEventDeleted = "DELETED"
)

// ProjectEvent is one audit entry for a project. Events survive project deletion.
type ProjectEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	ProjectID uuid.UUID      `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	AgentID   uuid.UUID      `gorm:"column:agent_id;type:uuid;not null" json:"agent_id"`
	EventType string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	EventData datatypes.JSON `gorm:"column:event_data;type:json;not null" json:"event_data"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (ProjectEvent) TableName() string {
	return "ProjectEvents"
}

func (e *ProjectEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
