package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestType categorizes a quest.
type QuestType string

const (
	QuestTypeNormal    QuestType = "Normal"
	QuestTypeUnlocking QuestType = "Unlocking"
	QuestTypeMainStory QuestType = "MainStory"
)

// Quest is a designer-authored quest definition. RequirementDisjunction picks
// how incoming QuestRequirement edges combine: true means any one cleared
// prerequisite unlocks the quest, false means all must be cleared.
type Quest struct {
	ID                     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name                   string    `gorm:"size:64;not null" json:"name"`
	LevelRequirement       int       `gorm:"not null" json:"level_requirement"`
	ClassRequirement       *int      `json:"class_requirement"`
	ClassTypeRequirement   ClassType `gorm:"size:16;not null" json:"class_type_requirement"`
	RequirementDisjunction bool      `gorm:"default:false" json:"requirement_disjunction"`
	Type                   QuestType `gorm:"size:16;not null" json:"type"`
	DigidollarReward       *int64    `json:"digidollar_reward"`
	ExperienceReward       *int64    `json:"experience_reward"`
	UnlocksClass           *int      `json:"unlocks_class"`
}

func (q *Quest) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuestRequirement is a directed edge: Requirement must be cleared before
// Unlocks becomes available.
type QuestRequirement struct {
	Requirement uuid.UUID `gorm:"type:char(36);primaryKey" json:"requirement"`
	Unlocks     uuid.UUID `gorm:"type:char(36);primaryKey;index:idx_requirement_unlocks" json:"unlocks"`
}

// ObjectiveItemType says whether an item objective grants or consumes items.
type ObjectiveItemType string

const (
	ObjectiveGiveItem   ObjectiveItemType = "GiveItem"
	ObjectiveRemoveItem ObjectiveItemType = "RemoveItem"
)

// QuestObjective is one step of a quest. Objectives complete strictly in
// ascending OrderInQuest. Exactly one target field group is set: NPC visit,
// item give/remove, enemy defeat, or instance clear.
type QuestObjective struct {
	ID           uuid.UUID          `gorm:"type:char(36);primaryKey" json:"id"`
	QuestID      uuid.UUID          `gorm:"type:char(36);uniqueIndex:idx_quest_order,priority:1;not null" json:"quest_id"`
	Description  string             `gorm:"type:text" json:"description"`
	Dialogue     *string            `gorm:"type:text" json:"dialogue"`
	Amount       *int               `json:"amount"`
	OrderInQuest int                `gorm:"uniqueIndex:idx_quest_order,priority:2;not null" json:"order_in_quest"`
	NPCID        *uuid.UUID         `gorm:"type:char(36)" json:"npc_id"`
	ItemID       *uuid.UUID         `gorm:"type:char(36)" json:"item_id"`
	ItemType     *ObjectiveItemType `gorm:"size:16" json:"item_type"`
	EnemyID      *uuid.UUID         `gorm:"type:char(36)" json:"enemy_id"`
	InstanceID   *uuid.UUID         `gorm:"type:char(36)" json:"instance_id"`
}

func (o *QuestObjective) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// QuestItemReward is an item granted when a quest clears. Optional rewards
// are granted only when the clearing request picks one.
type QuestItemReward struct {
	QuestID  uuid.UUID `gorm:"type:char(36);primaryKey" json:"quest_id"`
	ItemID   uuid.UUID `gorm:"type:char(36);primaryKey" json:"item_id"`
	Optional bool      `gorm:"default:false" json:"optional"`
	Amount   int       `gorm:"not null" json:"amount"`
}

// QuestState is a character's state on an accepted quest.
type QuestState string

const (
	QuestStateUnlocked QuestState = "Unlocked"
	QuestStateAccepted QuestState = "Accepted"
	QuestStateCleared  QuestState = "Cleared"
)

// QuestCharacterRelation tracks one character's progress through one quest.
// Progression is the OrderInQuest of the active objective; SubProgression
// counts partial steps inside it (items collected, enemies defeated).
type QuestCharacterRelation struct {
	CharacterID    uuid.UUID  `gorm:"type:char(36);primaryKey" json:"character_id"`
	QuestID        uuid.UUID  `gorm:"type:char(36);primaryKey" json:"quest_id"`
	Progression    int        `gorm:"default:0;not null" json:"progression"`
	SubProgression *int       `json:"sub_progression"`
	State          QuestState `gorm:"size:16;not null" json:"state"`
}
