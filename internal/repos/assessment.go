package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/types"
)

type AssessmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *types.Assessment) (*types.Assessment, error)
	GetBySimulationID(ctx context.Context, tx *gorm.DB, simulationID uuid.UUID) (*types.Assessment, error)
	GetBySimulationIDs(ctx context.Context, tx *gorm.DB, simulationIDs []uuid.UUID) ([]*types.Assessment, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (ar *assessmentRepo) Create(ctx context.Context, tx *gorm.DB, assessment *types.Assessment) (*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if err := transaction.WithContext(ctx).Create(assessment).Error; err != nil {
		return nil, err
	}
	return assessment, nil
}

func (ar *assessmentRepo) GetBySimulationID(ctx context.Context, tx *gorm.DB, simulationID uuid.UUID) (*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.Assessment
	err := transaction.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *assessmentRepo) GetBySimulationIDs(ctx context.Context, tx *gorm.DB, simulationIDs []uuid.UUID) ([]*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Assessment
	if len(simulationIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("simulation_id IN ?", simulationIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
