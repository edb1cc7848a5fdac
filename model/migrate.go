package model

import "gorm.io/gorm"

// allModels lists every model to be auto-migrated.
var allModels = []interface{}{
	&Datacenter{},
	&GameServer{},
	&Area{},
	&NPC{},
	&Instance{},
	&Character{},
	&Class{},
	&CharacterClass{},
	&Item{},
	&InventoryItem{},
	&Stat{},
	&ItemStat{},
	&ShopType{},
	&Shop{},
	&ShopSellsItem{},
	&ItemAsPrice{},
	&Enemy{},
	&EnemyDrop{},
	&Quest{},
	&QuestRequirement{},
	&QuestObjective{},
	&QuestItemReward{},
	&QuestCharacterRelation{},
	&CharacterInstanceRelation{},
	&AuditLog{},
}

// AutoMigrate creates or updates all tables in the given database.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels...)
}
