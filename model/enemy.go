package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enemy is a designer-authored enemy definition.
type Enemy struct {
	ID          uuid.UUID   `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string      `gorm:"size:64;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Drops       []EnemyDrop `gorm:"foreignKey:EnemyID" json:"drops"`
}

func (e *Enemy) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EnemyDrop is one possible drop. MinRoll is the floor a draw must reach for
// the drop to happen; a successful drop grants between Min and Max items
// inclusive.
type EnemyDrop struct {
	EnemyID uuid.UUID `gorm:"type:char(36);primaryKey" json:"enemy_id"`
	ItemID  uuid.UUID `gorm:"type:char(36);primaryKey" json:"item_id"`
	MinRoll int       `gorm:"not null" json:"min_roll"`
	Min     int       `gorm:"not null" json:"min"`
	Max     int       `gorm:"not null" json:"max"`
}
