package loot

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nocturne-works/dataport/gameerr"
	"github.com/nocturne-works/dataport/model"
)

// DefaultRollMax is the inclusive upper bound of a drop roll draw.
const DefaultRollMax = 9999

// Rand supplies uniform draws. Injected so rolls are reproducible in tests;
// production wires math/rand.
type Rand interface {
	Intn(n int) int
}

// Drop is one granted drop.
type Drop struct {
	ItemID uuid.UUID `json:"item_id"`
	Amount int       `json:"amount"`
}

// Service evaluates enemy drop tables. Pure computation over prefetched
// enemies; crediting the inventory is the caller's job.
type Service struct {
	rng     Rand
	rollMax int
	logger  *zap.Logger
}

// NewService creates a loot Service. rollMax <= 0 selects the default.
func NewService(rng Rand, rollMax int, logger *zap.Logger) *Service {
	if rollMax <= 0 {
		rollMax = DefaultRollMax
	}
	return &Service{rng: rng, rollMax: rollMax, logger: logger}
}

// Roll evaluates every drop of the enemy against a single draw. A drop
// happens when the draw reaches its MinRoll floor, so a higher floor means a
// rarer drop. Drops are independent: one kill can yield zero, one, or many.
func (svc *Service) Roll(enemy *model.Enemy, draw int) ([]Drop, error) {
	if draw < 0 || draw > svc.rollMax {
		return nil, gameerr.New(gameerr.CodeValidation,
			"draw %d outside [0, %d]", draw, svc.rollMax)
	}

	var drops []Drop
	for _, d := range enemy.Drops {
		if draw < d.MinRoll {
			continue
		}
		amount := d.Min
		if d.Max > d.Min {
			amount += svc.rng.Intn(d.Max - d.Min + 1)
		}
		if amount < 1 {
			continue
		}
		drops = append(drops, Drop{ItemID: d.ItemID, Amount: amount})
	}
	if len(drops) > 0 {
		svc.logger.Debug("loot roll",
			zap.String("enemy_id", enemy.ID.String()),
			zap.Int("draw", draw),
			zap.Int("drops", len(drops)))
	}
	return drops, nil
}
