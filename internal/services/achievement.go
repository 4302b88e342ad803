package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/repos"
	"github.com/callsim/callsim-backend/internal/requestdata"
	"github.com/callsim/callsim-backend/internal/types"
)

type AchievementService interface {
	// Evaluate derives badges the user now qualifies for but does not yet
	// hold, records them against the triggering simulation, and returns only
	// the newly unlocked ones. Safe to call repeatedly on identical history.
	Evaluate(ctx context.Context, tx *gorm.DB, userID, simulationID uuid.UUID) ([]*types.Achievement, error)
	GetMine(ctx context.Context) ([]*types.Achievement, error)
}

type achievementService struct {
	db              *gorm.DB
	log             *logger.Logger
	personaRepo     repos.PersonaRepo
	simulationRepo  repos.SimulationRepo
	assessmentRepo  repos.AssessmentRepo
	achievementRepo repos.AchievementRepo
}

func NewAchievementService(
	db *gorm.DB,
	log *logger.Logger,
	personaRepo repos.PersonaRepo,
	simulationRepo repos.SimulationRepo,
	assessmentRepo repos.AssessmentRepo,
	achievementRepo repos.AchievementRepo,
) AchievementService {
	return &achievementService{
		db:              db,
		log:             log.With("service", "AchievementService"),
		personaRepo:     personaRepo,
		simulationRepo:  simulationRepo,
		assessmentRepo:  assessmentRepo,
		achievementRepo: achievementRepo,
	}
}

func (as *achievementService) GetMine(ctx context.Context) ([]*types.Achievement, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return as.achievementRepo.GetByUserID(ctx, nil, rd.UserID)
}

func (as *achievementService) Evaluate(ctx context.Context, tx *gorm.DB, userID, simulationID uuid.UUID) ([]*types.Achievement, error) {
	held, err := as.achievementRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load achievements: %w", err)
	}
	heldBadges := make(map[types.AchievementBadge]bool, len(held))
	for _, a := range held {
		heldBadges[a.BadgeType] = true
	}
	if len(heldBadges) == len(types.AchievementBadgeList) {
		return nil, nil
	}

	simulations, err := as.simulationRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load simulations: %w", err)
	}
	simulationIDs := make([]uuid.UUID, 0, len(simulations))
	for _, s := range simulations {
		simulationIDs = append(simulationIDs, s.ID)
	}
	assessments, err := as.assessmentRepo.GetBySimulationIDs(ctx, tx, simulationIDs)
	if err != nil {
		return nil, fmt.Errorf("Failed to load assessments: %w", err)
	}

	assessedBy := make(map[uuid.UUID]*types.Assessment, len(assessments))
	perfect := false
	for _, a := range assessments {
		assessedBy[a.SimulationID] = a
		if a.Score == 100 {
			perfect = true
		}
	}

	// Completed = has an assessment. Group completed scenario call ids by
	// persona; the frozen scenario copy carries the call id.
	completedByPersona := make(map[uuid.UUID]map[int]bool)
	completedCount := 0
	for _, s := range simulations {
		if assessedBy[s.ID] == nil {
			continue
		}
		completedCount++
		callIDs, ok := completedByPersona[s.PersonaID]
		if !ok {
			callIDs = make(map[int]bool)
			completedByPersona[s.PersonaID] = callIDs
		}
		scenario := s.ScenarioContext.Data()
		callIDs[scenario.CallID] = true
	}

	personas, err := as.personaRepo.GetAll(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("Failed to load persona catalog: %w", err)
	}

	allPersonas := len(personas) > 0
	allScenariosOnePersona := false
	allScenariosEverywhere := len(personas) > 0
	for _, p := range personas {
		completed := completedByPersona[p.ID]
		if len(completed) == 0 {
			allPersonas = false
		}
		full := len(p.Scenarios) > 0
		for _, sc := range p.Scenarios {
			if !completed[sc.CallID] {
				full = false
				break
			}
		}
		if full {
			allScenariosOnePersona = true
		} else {
			allScenariosEverywhere = false
		}
	}

	qualified := map[types.AchievementBadge]bool{
		types.BadgeSimulationFirst:                  completedCount > 0,
		types.BadgeSimulationAllPersonas:            allPersonas,
		types.BadgeSimulationAllScenariosForPersona: allScenariosOnePersona,
		types.BadgeSimulationAllScenarios:           allScenariosEverywhere,
		types.BadgeSimulationPerfectScore:           perfect,
	}

	var unlocked []*types.Achievement
	for _, badge := range types.AchievementBadgeList {
		if qualified[badge] && !heldBadges[badge] {
			unlocked = append(unlocked, &types.Achievement{
				ID:           uuid.New(),
				UserID:       userID,
				SimulationID: simulationID,
				BadgeType:    badge,
			})
		}
	}
	if len(unlocked) == 0 {
		return nil, nil
	}

	if _, err := as.achievementRepo.Create(ctx, tx, unlocked); err != nil {
		return nil, fmt.Errorf("Failed to record achievements: %w", err)
	}
	as.log.Info("Unlocked achievements", "user_id", userID, "count", len(unlocked))
	return unlocked, nil
}
