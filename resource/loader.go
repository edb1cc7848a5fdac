package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nocturne-works/dataport/cache"
	"github.com/nocturne-works/dataport/game/shop"
	"github.com/nocturne-works/dataport/model"
)

// Loader imports designer-authored reference data from JSON files into the
// database at boot. Files are optional; a missing file skips its entity.
// Imports are upserts keyed by id, so re-running on edited data is safe.
type Loader struct {
	dir    string
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewLoader creates a reference-data Loader reading from dir. A non-nil cache
// has its shop listing entries dropped when shops are re-imported, so replicas
// sharing a Redis cache do not serve listings from before the import.
func NewLoader(dir string, db *gorm.DB, c cache.Cache, logger *zap.Logger) *Loader {
	return &Loader{dir: dir, db: db, cache: c, logger: logger}
}

// ---- File shapes ----

type itemFile struct {
	Items []model.Item `json:"items"`
}

type classFile struct {
	Classes []model.Class `json:"classes"`
}

type instanceFile struct {
	Instances []model.Instance `json:"instances"`
}

type enemyFile struct {
	Enemies []struct {
		model.Enemy
		Drops []model.EnemyDrop `json:"drops"`
	} `json:"enemies"`
}

type shopFile struct {
	ShopTypes []model.ShopType `json:"shop_types"`
	Shops     []struct {
		model.Shop
		Listings []struct {
			model.ShopSellsItem
			BarterItems []model.ItemAsPrice `json:"barter_items"`
		} `json:"listings"`
	} `json:"shops"`
}

type questFile struct {
	Quests []struct {
		model.Quest
		Objectives   []model.QuestObjective  `json:"objectives"`
		Requirements []uuid.UUID             `json:"requirements"`
		ItemRewards  []model.QuestItemReward `json:"item_rewards"`
	} `json:"quests"`
}

// Load imports every recognized file present in the data directory.
func (l *Loader) Load() error {
	steps := []struct {
		file string
		fn   func(string) error
	}{
		{"classes.json", l.loadClasses},
		{"items.json", l.loadItems},
		{"instances.json", l.loadInstances},
		{"enemies.json", l.loadEnemies},
		{"shops.json", l.loadShops},
		{"quests.json", l.loadQuests},
	}
	for _, step := range steps {
		path := filepath.Join(l.dir, step.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := step.fn(path); err != nil {
			return fmt.Errorf("resource: %s: %w", step.file, err)
		}
		l.logger.Info("reference data imported", zap.String("file", step.file))
	}
	return nil
}

func (l *Loader) loadItems(path string) error {
	var f itemFile
	if err := readJSON(path, &f); err != nil {
		return err
	}
	return upsert(l.db, f.Items)
}

func (l *Loader) loadClasses(path string) error {
	var f classFile
	if err := readJSON(path, &f); err != nil {
		return err
	}
	return upsert(l.db, f.Classes)
}

func (l *Loader) loadInstances(path string) error {
	var f instanceFile
	if err := readJSON(path, &f); err != nil {
		return err
	}
	return upsert(l.db, f.Instances)
}

func (l *Loader) loadEnemies(path string) error {
	var f enemyFile
	if err := readJSON(path, &f); err != nil {
		return err
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range f.Enemies {
			enemy := e.Enemy
			enemy.Drops = nil
			rows := []model.Enemy{enemy}
			if err := upsert(tx, rows); err != nil {
				return err
			}
			for i := range e.Drops {
				e.Drops[i].EnemyID = rows[0].ID
			}
			if err := upsert(tx, e.Drops); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Loader) loadShops(path string) error {
	var f shopFile
	if err := readJSON(path, &f); err != nil {
		return err
	}
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, f.ShopTypes); err != nil {
			return err
		}
		for _, s := range f.Shops {
			if err := upsert(tx, []model.Shop{s.Shop}); err != nil {
				return err
			}
			for _, li := range s.Listings {
				listing := li.ShopSellsItem
				listing.ShopID = s.Shop.ID
				listing.BarterItems = nil
				// Create backfills the generated listing id into the slice.
				rows := []model.ShopSellsItem{listing}
				if err := upsert(tx, rows); err != nil {
					return err
				}
				for i := range li.BarterItems {
					li.BarterItems[i].ShopSellsItemID = rows[0].ID
				}
				if err := upsert(tx, li.BarterItems); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if l.cache != nil && len(f.Shops) > 0 {
		keys := make([]string, len(f.Shops))
		for i, s := range f.Shops {
			keys[i] = shop.ListingsCacheKey(s.Shop.ID)
		}
		if err := l.cache.Del(context.Background(), keys...); err != nil {
			l.logger.Warn("shop listing cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

func (l *Loader) loadQuests(path string) error {
	var f questFile
	if err := readJSON(path, &f); err != nil {
		return err
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		for _, q := range f.Quests {
			rows := []model.Quest{q.Quest}
			if err := upsert(tx, rows); err != nil {
				return err
			}
			questID := rows[0].ID
			for i := range q.Objectives {
				q.Objectives[i].QuestID = questID
			}
			if err := upsert(tx, q.Objectives); err != nil {
				return err
			}
			edges := make([]model.QuestRequirement, len(q.Requirements))
			for i, req := range q.Requirements {
				edges[i] = model.QuestRequirement{Requirement: req, Unlocks: questID}
			}
			if err := upsert(tx, edges); err != nil {
				return err
			}
			for i := range q.ItemRewards {
				q.ItemRewards[i].QuestID = questID
			}
			if err := upsert(tx, q.ItemRewards); err != nil {
				return err
			}
		}
		return nil
	})
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// upsert writes rows with on-conflict-update semantics. Empty slices are
// skipped so gorm does not reject the statement.
func upsert[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}
