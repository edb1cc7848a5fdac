package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InstanceType categorizes instanced content.
type InstanceType string

const (
	InstanceTypeDungeon InstanceType = "Dungeon"
	InstanceTypeTrial   InstanceType = "Trial"
	InstanceTypeRaid    InstanceType = "Raid"
)

// Instance is a designer-authored instanced duty template. Per-character
// progress lives in CharacterInstanceRelation.
type Instance struct {
	ID          uuid.UUID    `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string       `gorm:"size:64;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Type        InstanceType `gorm:"size:16;not null" json:"type"`
	PlayerCount int          `gorm:"not null" json:"player_count"`
	MinLevel    int          `gorm:"not null" json:"min_level"`
}

func (i *Instance) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InstanceState is a character's progress on an instance. A missing relation
// row means the instance is still locked.
type InstanceState string

const (
	InstanceStateUnlocked InstanceState = "Unlocked"
	InstanceStateCleared  InstanceState = "Cleared"
)

// CharacterInstanceRelation tracks one character's state on one instance.
type CharacterInstanceRelation struct {
	CharacterID uuid.UUID     `gorm:"type:char(36);primaryKey" json:"character_id"`
	InstanceID  uuid.UUID     `gorm:"type:char(36);primaryKey" json:"instance_id"`
	State       InstanceState `gorm:"size:16;not null" json:"state"`
}
