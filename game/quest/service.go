package quest

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/game/inventory"
	"github.com/nocturne-works/dataport/game/progression"
	"github.com/nocturne-works/dataport/gameerr"
	"github.com/nocturne-works/dataport/model"
)

// Evidence is the caller's proof that the active objective happened. Exactly
// the fields matching the objective's target are consulted; everything else
// is ignored.
type Evidence struct {
	NPCID      *uuid.UUID `json:"npc_id"`
	ItemID     *uuid.UUID `json:"item_id"`
	EnemyID    *uuid.UUID `json:"enemy_id"`
	InstanceID *uuid.UUID `json:"instance_id"`
	// Amount is the count of items turned in / received or enemies defeated
	// in this call. Zero means one.
	Amount int `json:"amount"`
	// OptionalReward selects which optional item reward to take on clear.
	OptionalReward *uuid.UUID `json:"optional_reward"`
}

// Service evaluates quest availability and drives the per-character quest
// state machine Unlocked → Accepted → Cleared.
type Service struct {
	db     *gorm.DB
	inv    *inventory.Service
	prog   *progression.Service
	logger *zap.Logger
}

// NewService creates a quest Service.
func NewService(db *gorm.DB, inv *inventory.Service, prog *progression.Service, logger *zap.Logger) *Service {
	return &Service{db: db, inv: inv, prog: prog, logger: logger}
}

// IsAvailable reports whether the character's active class meets the quest's
// level and class requirements and the prerequisite gate evaluates true.
func (svc *Service) IsAvailable(ctx context.Context, char *model.Character, active *model.CharacterClass, class *model.Class, q *model.Quest) (bool, error) {
	return svc.isAvailableTx(svc.db.WithContext(ctx), char, active, class, q)
}

// isAvailableTx is IsAvailable against an explicit handle so callers already
// inside a transaction reuse its connection instead of pulling a second one
// from the pool.
func (svc *Service) isAvailableTx(tx *gorm.DB, char *model.Character, active *model.CharacterClass, class *model.Class, q *model.Quest) (bool, error) {
	if active.Level < q.LevelRequirement {
		return false, nil
	}
	if class.Type != q.ClassTypeRequirement {
		return false, nil
	}
	if q.ClassRequirement != nil && active.ClassID != *q.ClassRequirement {
		return false, nil
	}
	return svc.gateSatisfied(tx, char.ID, q)
}

// gateSatisfied evaluates the quest's boolean gate over its incoming
// prerequisite edges. No edges means the gate is open; otherwise the quest's
// disjunction flag picks ANY (OR) or ALL (AND) over cleared prerequisites.
func (svc *Service) gateSatisfied(tx *gorm.DB, charID uuid.UUID, q *model.Quest) (bool, error) {
	var edges []model.QuestRequirement
	if err := tx.Where("unlocks = ?", q.ID).Find(&edges).Error; err != nil {
		return false, err
	}
	if len(edges) == 0 {
		return true, nil
	}

	reqIDs := make([]uuid.UUID, len(edges))
	for i, e := range edges {
		reqIDs[i] = e.Requirement
	}
	var cleared int64
	if err := tx.Model(&model.QuestCharacterRelation{}).
		Where("character_id = ? AND quest_id IN ? AND state = ?",
			charID, reqIDs, model.QuestStateCleared).
		Count(&cleared).Error; err != nil {
		return false, err
	}
	if q.RequirementDisjunction {
		return cleared > 0, nil
	}
	return cleared == int64(len(edges)), nil
}

// Available lists every quest the character could accept right now.
func (svc *Service) Available(ctx context.Context, char *model.Character, active *model.CharacterClass, class *model.Class) ([]model.Quest, error) {
	var quests []model.Quest
	if err := svc.db.WithContext(ctx).Find(&quests).Error; err != nil {
		return nil, err
	}
	var out []model.Quest
	for i := range quests {
		q := &quests[i]
		var rel model.QuestCharacterRelation
		err := svc.db.WithContext(ctx).
			Where("character_id = ? AND quest_id = ? AND state <> ?",
				char.ID, q.ID, model.QuestStateUnlocked).
			First(&rel).Error
		if err == nil {
			continue // already accepted or cleared
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		ok, err := svc.IsAvailable(ctx, char, active, class, q)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

// Accept moves the (character, quest) relation to Accepted with progression
// at the quest's first objective. Accepting twice reports the existing state
// instead of duplicating the relation.
func (svc *Service) Accept(ctx context.Context, char *model.Character, active *model.CharacterClass, class *model.Class, q *model.Quest) (*model.QuestCharacterRelation, error) {
	var rel *model.QuestCharacterRelation
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.QuestCharacterRelation
		err := tx.Where("character_id = ? AND quest_id = ?", char.ID, q.ID).
			First(&existing).Error
		if err == nil {
			switch existing.State {
			case model.QuestStateAccepted:
				return gameerr.New(gameerr.CodeAlreadyAccepted, "quest %s already accepted", q.Name)
			case model.QuestStateCleared:
				return gameerr.New(gameerr.CodeAlreadyCleared, "quest %s already cleared", q.Name)
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		ok, avErr := svc.isAvailableTx(tx, char, active, class, q)
		if avErr != nil {
			return avErr
		}
		if !ok {
			return gameerr.New(gameerr.CodeNotAvailable, "quest %s is not available", q.Name)
		}

		first, fErr := firstObjectiveOrder(tx, q.ID)
		if fErr != nil {
			return fErr
		}
		row := model.QuestCharacterRelation{
			CharacterID: char.ID,
			QuestID:     q.ID,
			Progression: first,
			State:       model.QuestStateAccepted,
		}
		if err == gorm.ErrRecordNotFound {
			if cErr := tx.Create(&row).Error; cErr != nil {
				return cErr
			}
		} else {
			if uErr := tx.Model(&model.QuestCharacterRelation{}).
				Where("character_id = ? AND quest_id = ?", char.ID, q.ID).
				Updates(map[string]interface{}{
					"state":           model.QuestStateAccepted,
					"progression":     first,
					"sub_progression": nil,
				}).Error; uErr != nil {
				return uErr
			}
		}
		rel = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	svc.logger.Info("quest accepted",
		zap.String("character_id", char.ID.String()),
		zap.String("quest_id", q.ID.String()))
	return rel, nil
}

// AdvanceObjective validates evidence against the active objective only.
// Matching evidence advances progression to the next objective in order, or
// clears the quest and applies its rewards when the last objective completes.
func (svc *Service) AdvanceObjective(ctx context.Context, char *model.Character, active *model.CharacterClass, q *model.Quest, ev Evidence) (*model.QuestCharacterRelation, error) {
	var out *model.QuestCharacterRelation
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rel model.QuestCharacterRelation
		err := tx.Where("character_id = ? AND quest_id = ?", char.ID, q.ID).
			First(&rel).Error
		if err == gorm.ErrRecordNotFound {
			return gameerr.New(gameerr.CodeNotAvailable, "quest %s has not been accepted", q.Name)
		}
		if err != nil {
			return err
		}
		switch rel.State {
		case model.QuestStateCleared:
			return gameerr.New(gameerr.CodeAlreadyCleared, "quest %s already cleared", q.Name)
		case model.QuestStateUnlocked:
			return gameerr.New(gameerr.CodeNotAvailable, "quest %s has not been accepted", q.Name)
		}

		var obj model.QuestObjective
		if err := tx.Where("quest_id = ? AND order_in_quest = ?", q.ID, rel.Progression).
			First(&obj).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return gameerr.New(gameerr.CodeNotFound,
					"quest %s has no objective at order %d", q.Name, rel.Progression)
			}
			return err
		}

		done, err := svc.applyEvidence(tx, char, &rel, &obj, ev)
		if err != nil {
			return err
		}
		if !done {
			// Partial progress: the sub-counter moved but the objective holds.
			if err := tx.Model(&model.QuestCharacterRelation{}).
				Where("character_id = ? AND quest_id = ?", char.ID, q.ID).
				Update("sub_progression", rel.SubProgression).Error; err != nil {
				return err
			}
			out = &rel
			return nil
		}

		next, found, err := nextObjectiveOrder(tx, q.ID, rel.Progression)
		if err != nil {
			return err
		}
		if found {
			rel.Progression = next
			rel.SubProgression = nil
			if err := tx.Model(&model.QuestCharacterRelation{}).
				Where("character_id = ? AND quest_id = ?", char.ID, q.ID).
				Updates(map[string]interface{}{
					"progression":     next,
					"sub_progression": nil,
				}).Error; err != nil {
				return err
			}
			out = &rel
			return nil
		}

		// Final objective: clear the quest and grant rewards atomically.
		rel.State = model.QuestStateCleared
		rel.SubProgression = nil
		if err := tx.Model(&model.QuestCharacterRelation{}).
			Where("character_id = ? AND quest_id = ?", char.ID, q.ID).
			Updates(map[string]interface{}{
				"state":           model.QuestStateCleared,
				"sub_progression": nil,
			}).Error; err != nil {
			return err
		}
		if err := svc.grantRewards(tx, char, active, q, ev.OptionalReward); err != nil {
			return err
		}
		svc.logger.Info("quest cleared",
			zap.String("character_id", char.ID.String()),
			zap.String("quest_id", q.ID.String()))
		out = &rel
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyEvidence checks the evidence against the objective's target and
// applies its side effects. It returns true once the objective is complete;
// false means the sub-counter advanced but more steps remain.
func (svc *Service) applyEvidence(tx *gorm.DB, char *model.Character, rel *model.QuestCharacterRelation, obj *model.QuestObjective, ev Evidence) (bool, error) {
	step := ev.Amount
	if step <= 0 {
		step = 1
	}
	required := 1
	if obj.Amount != nil {
		required = *obj.Amount
	}

	switch {
	case obj.NPCID != nil:
		if ev.NPCID == nil || *ev.NPCID != *obj.NPCID {
			return false, gameerr.New(gameerr.CodeObjectiveMismatch,
				"objective expects a visit to NPC %s", obj.NPCID)
		}
		return true, nil

	case obj.ItemID != nil:
		if ev.ItemID == nil || *ev.ItemID != *obj.ItemID {
			return false, gameerr.New(gameerr.CodeObjectiveMismatch,
				"objective expects item %s", obj.ItemID)
		}
		item, err := loadItem(tx, *obj.ItemID)
		if err != nil {
			return false, err
		}
		if obj.ItemType != nil && *obj.ItemType == model.ObjectiveRemoveItem {
			// Quest turn-ins may consume key items.
			if err := svc.inv.RemoveTx(tx, char.ID, item, step, inventory.ReasonQuest); err != nil {
				return false, err
			}
		} else {
			if err := svc.inv.AddTx(tx, char.ID, item, step); err != nil {
				return false, err
			}
		}
		return bumpSub(rel, step, required), nil

	case obj.EnemyID != nil:
		if ev.EnemyID == nil || *ev.EnemyID != *obj.EnemyID {
			return false, gameerr.New(gameerr.CodeObjectiveMismatch,
				"objective expects enemy %s defeated", obj.EnemyID)
		}
		return bumpSub(rel, step, required), nil

	case obj.InstanceID != nil:
		if ev.InstanceID == nil || *ev.InstanceID != *obj.InstanceID {
			return false, gameerr.New(gameerr.CodeObjectiveMismatch,
				"objective expects instance %s", obj.InstanceID)
		}
		if err := svc.prog.AdvanceTx(tx, char.ID, *obj.InstanceID); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, gameerr.New(gameerr.CodeObjectiveMismatch,
		"objective %s has no target", obj.ID)
}

// bumpSub advances the relation's sub-counter and reports whether the
// objective reached its required count.
func bumpSub(rel *model.QuestCharacterRelation, step, required int) bool {
	sub := step
	if rel.SubProgression != nil {
		sub += *rel.SubProgression
	}
	if sub >= required {
		return true
	}
	rel.SubProgression = &sub
	return false
}

func (svc *Service) grantRewards(tx *gorm.DB, char *model.Character, active *model.CharacterClass, q *model.Quest, optionalPick *uuid.UUID) error {
	if q.DigidollarReward != nil {
		if err := tx.Model(&model.Character{}).Where("id = ?", char.ID).
			Update("digidollar", gorm.Expr("digidollar + ?", *q.DigidollarReward)).Error; err != nil {
			return err
		}
		char.Digidollar += *q.DigidollarReward
	}
	if q.ExperienceReward != nil {
		if err := tx.Model(&model.CharacterClass{}).
			Where("character_id = ? AND class_id = ?", char.ID, active.ClassID).
			Update("experience", gorm.Expr("experience + ?", *q.ExperienceReward)).Error; err != nil {
			return err
		}
		active.Experience += *q.ExperienceReward
	}
	if q.UnlocksClass != nil {
		var existing model.CharacterClass
		err := tx.Where("character_id = ? AND class_id = ?", char.ID, *q.UnlocksClass).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if cErr := tx.Create(&model.CharacterClass{
				CharacterID: char.ID,
				ClassID:     *q.UnlocksClass,
				Level:       1,
			}).Error; cErr != nil {
				return cErr
			}
		} else if err != nil {
			return err
		}
	}

	var rewards []model.QuestItemReward
	if err := tx.Where("quest_id = ?", q.ID).Find(&rewards).Error; err != nil {
		return err
	}
	for _, rw := range rewards {
		if rw.Optional && (optionalPick == nil || *optionalPick != rw.ItemID) {
			continue
		}
		item, err := loadItem(tx, rw.ItemID)
		if err != nil {
			return err
		}
		if err := svc.inv.AddTx(tx, char.ID, item, rw.Amount); err != nil {
			return err
		}
	}
	return nil
}

func firstObjectiveOrder(tx *gorm.DB, questID uuid.UUID) (int, error) {
	var obj model.QuestObjective
	err := tx.Where("quest_id = ?", questID).Order("order_in_quest").First(&obj).Error
	if err == gorm.ErrRecordNotFound {
		return 0, gameerr.New(gameerr.CodeNotFound, "quest %s has no objectives", questID)
	}
	if err != nil {
		return 0, err
	}
	return obj.OrderInQuest, nil
}

func nextObjectiveOrder(tx *gorm.DB, questID uuid.UUID, after int) (int, bool, error) {
	var obj model.QuestObjective
	err := tx.Where("quest_id = ? AND order_in_quest > ?", questID, after).
		Order("order_in_quest").First(&obj).Error
	if err == gorm.ErrRecordNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return obj.OrderInQuest, true, nil
}

func loadItem(tx *gorm.DB, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := tx.Where("id = ?", id).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gameerr.New(gameerr.CodeNotFound, "item %s not found", id)
		}
		return nil, err
	}
	return &item, nil
}
