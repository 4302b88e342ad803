package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/types"
)

type PersonaRepo interface {
	Create(ctx context.Context, tx *gorm.DB, personas []*types.Persona) ([]*types.Persona, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Persona, error)
	// GetRandom returns one uniformly random persona, or nil when the catalog
	// is empty. Runs a single random-order limit-1 query.
	GetRandom(ctx context.Context, tx *gorm.DB) (*types.Persona, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type personaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger) PersonaRepo {
	return &personaRepo{db: db, log: baseLog.With("repo", "PersonaRepo")}
}

func (pr *personaRepo) Create(ctx context.Context, tx *gorm.DB, personas []*types.Persona) ([]*types.Persona, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(personas) == 0 {
		return []*types.Persona{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&personas).Error; err != nil {
		return nil, err
	}
	return personas, nil
}

func (pr *personaRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Persona, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Persona
	if err := transaction.WithContext(ctx).
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *personaRepo) GetRandom(ctx context.Context, tx *gorm.DB) (*types.Persona, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.Persona
	// random() exists on both postgres and sqlite.
	err := transaction.WithContext(ctx).
		Order("random()").
		Limit(1).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *personaRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Persona{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
