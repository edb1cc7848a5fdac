package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Character represents a player's in-game character.
type Character struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Digidollar   int64     `gorm:"default:0;not null" json:"digidollar"`
	GameServerID int       `gorm:"not null" json:"game_server_id"`
	AreaID       int       `gorm:"not null" json:"area_id"`
	Location     Location  `gorm:"not null" json:"location"`
	// InstanceID and InstanceLocation are set together or not at all; the
	// progression service owns that invariant.
	InstanceID       *uuid.UUID `gorm:"type:char(36)" json:"instance_id"`
	InstanceLocation *Location  `json:"instance_location"`
	KeycloakUserID   uuid.UUID  `gorm:"type:char(36);index:idx_character_user;not null" json:"keycloak_user_id"`
	CreationDate     time.Time  `gorm:"autoCreateTime" json:"creation_date"`
	Playtime         int64      `gorm:"default:0;not null" json:"playtime"`
}

func (c *Character) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// InsideInstance reports whether the character is currently inside an instance.
func (c *Character) InsideInstance() bool {
	return c.InstanceID != nil
}

// MoveToInstance places the character inside an instance, keeping the paired
// instance fields in sync.
func (c *Character) MoveToInstance(instanceID uuid.UUID, loc Location) {
	id := instanceID
	c.InstanceID = &id
	c.InstanceLocation = &loc
}

// LeaveInstance clears both instance fields together.
func (c *Character) LeaveInstance() {
	c.InstanceID = nil
	c.InstanceLocation = nil
}

// ClassType is the combat archetype of a class.
type ClassType string

const (
	ClassTypeMelee  ClassType = "Melee"
	ClassTypeRanged ClassType = "Ranged"
	ClassTypeCaster ClassType = "Caster"
	ClassTypeTank   ClassType = "Tank"
	ClassTypeHealer ClassType = "Healer"
)

// Class is a designer-authored playable class.
type Class struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:32;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        ClassType `gorm:"size:16;not null" json:"type"`
}

// CharacterClass is a character's per-class level and experience.
type CharacterClass struct {
	CharacterID uuid.UUID `gorm:"type:char(36);primaryKey" json:"character_id"`
	ClassID     int       `gorm:"primaryKey" json:"class_id"`
	Level       int       `gorm:"default:1;not null" json:"level"`
	Experience  int64     `gorm:"default:0;not null" json:"experience"`
}
