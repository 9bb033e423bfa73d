package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and standard Audit Trails
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"_id" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`

	// Audit User Tracking
	CreatedBy string `gorm:"type:varchar(255)" json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	UpdatedBy string `gorm:"type:varchar(255)" json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}

// BeforeCreate keeps IDs assigned by the service layer and generates the rest.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// Touch fills the ID and timestamps for stores that have no create hooks.
func (base *BaseModel) Touch(now time.Time) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

// Actor identifies who performed a change. Requests without a valid
// identity are attributed to SystemActor.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

var SystemActor = Actor{ID: "system", Name: "System"}
