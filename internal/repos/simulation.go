package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/types"
)

type SimulationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, simulations []*types.Simulation) ([]*types.Simulation, error)
	GetByID(ctx context.Context, tx *gorm.DB, simulationID uuid.UUID) (*types.Simulation, error)
	GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Simulation, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Simulation, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, simulationID uuid.UUID, status types.SimulationStatus) error
}

type simulationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSimulationRepo(db *gorm.DB, baseLog *logger.Logger) SimulationRepo {
	return &simulationRepo{db: db, log: baseLog.With("repo", "SimulationRepo")}
}

func (sr *simulationRepo) Create(ctx context.Context, tx *gorm.DB, simulations []*types.Simulation) ([]*types.Simulation, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(simulations) == 0 {
		return []*types.Simulation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&simulations).Error; err != nil {
		return nil, err
	}
	return simulations, nil
}

func (sr *simulationRepo) GetByID(ctx context.Context, tx *gorm.DB, simulationID uuid.UUID) (*types.Simulation, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var result types.Simulation
	err := transaction.WithContext(ctx).
		Where("id = ?", simulationID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *simulationRepo) GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Simulation, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var result types.Simulation
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.SimulationStatusActive).
		Order("created_at desc").
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *simulationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Simulation, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Simulation
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *simulationRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, simulationID uuid.UUID, status types.SimulationStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Simulation{}).
		Where("id = ?", simulationID).
		Update("status", status).Error
}
