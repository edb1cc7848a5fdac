package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Datacenter groups game servers by physical region.
type Datacenter struct {
	ID     int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Region string `gorm:"size:32;not null" json:"region"`
}

// GameServer is one world server inside a datacenter.
type GameServer struct {
	ID           int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"uniqueIndex;size:32;not null" json:"name"`
	DatacenterID int    `gorm:"index:idx_server_datacenter;not null" json:"datacenter_id"`
}

// Area is an open-world zone.
type Area struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"size:64;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// NPC is a designer-placed non-player character.
type NPC struct {
	ID                  uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	AreaID              int       `gorm:"index:idx_npc_area;not null" json:"area_id"`
	Location            Location  `gorm:"not null" json:"location"`
	Name                string    `gorm:"size:64;not null" json:"name"`
	DefaultConversation string    `gorm:"type:text" json:"default_conversation"`
	VisibleWithoutQuest bool      `gorm:"default:true" json:"visible_without_quest"`
}

func (n *NPC) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
