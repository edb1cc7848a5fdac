package progression

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/gameerr"
	"github.com/nocturne-works/dataport/model"
)

// Service tracks per-character instance progress and the character's
// position. Instances move Locked → Unlocked → Cleared and never backwards;
// Locked is the absence of a relation row.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a progression Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// State returns the character's state on an instance. found is false while
// the instance is still locked.
func (svc *Service) State(ctx context.Context, charID, instanceID uuid.UUID) (state model.InstanceState, found bool, err error) {
	var rel model.CharacterInstanceRelation
	e := svc.db.WithContext(ctx).
		Where("character_id = ? AND instance_id = ?", charID, instanceID).
		First(&rel).Error
	if e == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if e != nil {
		return "", false, e
	}
	return rel.State, true, nil
}

// Unlock makes the instance enterable. Safe to repeat; a cleared instance
// stays cleared.
func (svc *Service) Unlock(ctx context.Context, charID, instanceID uuid.UUID) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rel model.CharacterInstanceRelation
		err := tx.Where("character_id = ? AND instance_id = ?", charID, instanceID).
			First(&rel).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(&model.CharacterInstanceRelation{
				CharacterID: charID,
				InstanceID:  instanceID,
				State:       model.InstanceStateUnlocked,
			}).Error
		}
		return err
	})
}

// Clear marks an unlocked instance as cleared. Clearing a locked instance is
// a violation; clearing twice is a no-op.
func (svc *Service) Clear(ctx context.Context, charID, instanceID uuid.UUID) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rel model.CharacterInstanceRelation
		err := tx.Where("character_id = ? AND instance_id = ?", charID, instanceID).
			First(&rel).Error
		if err == gorm.ErrRecordNotFound {
			return gameerr.New(gameerr.CodeInstanceLocked, "instance %s is locked", instanceID)
		}
		if err != nil {
			return err
		}
		if rel.State == model.InstanceStateCleared {
			return nil
		}
		return tx.Model(&model.CharacterInstanceRelation{}).
			Where("character_id = ? AND instance_id = ?", charID, instanceID).
			Update("state", model.InstanceStateCleared).Error
	})
}

// AdvanceTx steps the relation forward one state inside the caller's
// transaction: locked instances unlock, unlocked instances clear, cleared
// instances stay cleared. Quest objectives targeting an instance go through
// here.
func (svc *Service) AdvanceTx(tx *gorm.DB, charID, instanceID uuid.UUID) error {
	var rel model.CharacterInstanceRelation
	err := tx.Where("character_id = ? AND instance_id = ?", charID, instanceID).
		First(&rel).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&model.CharacterInstanceRelation{
			CharacterID: charID,
			InstanceID:  instanceID,
			State:       model.InstanceStateUnlocked,
		}).Error
	}
	if err != nil {
		return err
	}
	if rel.State != model.InstanceStateUnlocked {
		return nil
	}
	return tx.Model(&model.CharacterInstanceRelation{}).
		Where("character_id = ? AND instance_id = ?", charID, instanceID).
		Update("state", model.InstanceStateCleared).Error
}

// Enter places the character inside the instance at loc. The instance must be
// at least unlocked and the active class must meet the minimum level.
func (svc *Service) Enter(ctx context.Context, char *model.Character, inst *model.Instance, loc model.Location, activeLevel int) error {
	if char.InsideInstance() {
		return gameerr.New(gameerr.CodeValidation,
			"character %s is already inside an instance", char.Name)
	}
	if activeLevel < inst.MinLevel {
		return gameerr.New(gameerr.CodeNotAvailable,
			"%s requires level %d", inst.Name, inst.MinLevel)
	}
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rel model.CharacterInstanceRelation
		err := tx.Where("character_id = ? AND instance_id = ?", char.ID, inst.ID).
			First(&rel).Error
		if err == gorm.ErrRecordNotFound {
			return gameerr.New(gameerr.CodeInstanceLocked, "%s is locked", inst.Name)
		}
		if err != nil {
			return err
		}
		char.MoveToInstance(inst.ID, loc)
		return tx.Model(&model.Character{}).Where("id = ?", char.ID).
			Updates(map[string]interface{}{
				"instance_id":       char.InstanceID,
				"instance_location": char.InstanceLocation,
			}).Error
	})
}

// Leave moves the character back to the open world, clearing both instance
// fields together.
func (svc *Service) Leave(ctx context.Context, char *model.Character) error {
	if !char.InsideInstance() {
		return gameerr.New(gameerr.CodeValidation,
			"character %s is not inside an instance", char.Name)
	}
	char.LeaveInstance()
	return svc.db.WithContext(ctx).Model(&model.Character{}).Where("id = ?", char.ID).
		Updates(map[string]interface{}{
			"instance_id":       nil,
			"instance_location": nil,
		}).Error
}

// Move updates the character's position in whichever space they occupy.
// World-space and instance-space coordinates never mix: inside an instance
// only the instance location changes.
func (svc *Service) Move(ctx context.Context, char *model.Character, loc model.Location) error {
	tx := svc.db.WithContext(ctx).Model(&model.Character{}).Where("id = ?", char.ID)
	if char.InsideInstance() {
		char.InstanceLocation = &loc
		return tx.Update("instance_location", &loc).Error
	}
	char.Location = loc
	return tx.Update("location", loc).Error
}

// AddPlaytime adds seconds to the character's monotonic playtime counter.
func (svc *Service) AddPlaytime(ctx context.Context, charID uuid.UUID, seconds int64) error {
	if seconds <= 0 {
		return gameerr.New(gameerr.CodeValidation, "playtime delta %d must be positive", seconds)
	}
	return svc.db.WithContext(ctx).Model(&model.Character{}).Where("id = ?", charID).
		Update("playtime", gorm.Expr("playtime + ?", seconds)).Error
}
