package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/callsim/callsim-backend/internal/engine"
	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/repos"
	"github.com/callsim/callsim-backend/internal/requestdata"
	"github.com/callsim/callsim-backend/internal/types"
)

const fallbackUsername = "there"

type StartResult struct {
	Simulation *types.Simulation `json:"simulation"`
	Messages   []*types.Message  `json:"messages"`
}

type SendResult struct {
	UserMessage    *types.Message `json:"user_message"`
	PersonaMessage *types.Message `json:"persona_message"`
}

type EndResult struct {
	Assessment      *types.Assessment    `json:"assessment"`
	NewAchievements []*types.Achievement `json:"new_achievements,omitempty"`
}

type SimulationService interface {
	Start(ctx context.Context) (*StartResult, error)
	GetActive(ctx context.Context) (*types.Simulation, error)
	GetMessages(ctx context.Context, simulationID uuid.UUID) ([]*types.Message, error)
	SendMessage(ctx context.Context, simulationID uuid.UUID, content string) (*SendResult, error)
	End(ctx context.Context, simulationID uuid.UUID) (*EndResult, error)
}

type simulationService struct {
	db                 *gorm.DB
	log                *logger.Logger
	profileRepo        repos.ProfileRepo
	personaRepo        repos.PersonaRepo
	simulationRepo     repos.SimulationRepo
	messageRepo        repos.MessageRepo
	assessmentRepo     repos.AssessmentRepo
	achievementService AchievementService
	notifier           SimulationNotifier

	// rng picks the scenario index. Injected so tests can seed it.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewSimulationService(
	db *gorm.DB,
	log *logger.Logger,
	profileRepo repos.ProfileRepo,
	personaRepo repos.PersonaRepo,
	simulationRepo repos.SimulationRepo,
	messageRepo repos.MessageRepo,
	assessmentRepo repos.AssessmentRepo,
	achievementService AchievementService,
	notifier SimulationNotifier,
	rng *rand.Rand,
) SimulationService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &simulationService{
		db:                 db,
		log:                log.With("service", "SimulationService"),
		profileRepo:        profileRepo,
		personaRepo:        personaRepo,
		simulationRepo:     simulationRepo,
		messageRepo:        messageRepo,
		assessmentRepo:     assessmentRepo,
		achievementService: achievementService,
		notifier:           notifier,
		rng:                rng,
	}
}

func (ss *simulationService) randIndex(n int) int {
	ss.rngMu.Lock()
	defer ss.rngMu.Unlock()
	return ss.rng.Intn(n)
}

// Start pairs the caller with a random persona and scenario, freezes the
// scenario into the new simulation, and posts the rendered greeting as the
// first persona message. At most one active simulation may exist per user.
func (ss *simulationService) Start(ctx context.Context) (*StartResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	var result StartResult
	if err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := ss.simulationRepo.GetActiveByUserID(ctx, tx, rd.UserID)
		if err != nil {
			return fmt.Errorf("Failed to check for active simulation: %w", err)
		}
		if active != nil {
			return ErrSimulationAlreadyActive
		}

		persona, err := ss.personaRepo.GetRandom(ctx, tx)
		if err != nil {
			return fmt.Errorf("Failed to pick a persona: %w", err)
		}
		if persona == nil {
			return ErrNoPersonasAvailable
		}
		if len(persona.Scenarios) == 0 {
			return ErrNoScenariosForPersona
		}
		scenario := persona.Scenarios[ss.randIndex(len(persona.Scenarios))]

		simulation := &types.Simulation{
			ID:              uuid.New(),
			UserID:          rd.UserID,
			PersonaID:       persona.ID,
			ScenarioContext: datatypes.NewJSONType(scenario),
			Status:          types.SimulationStatusActive,
		}
		if _, err := ss.simulationRepo.Create(ctx, tx, []*types.Simulation{simulation}); err != nil {
			return fmt.Errorf("Failed to create simulation: %w", err)
		}

		username, err := ss.usernameFor(ctx, tx, rd.UserID)
		if err != nil {
			return err
		}

		var messages []*types.Message
		if initial := engine.RenderTemplate(scenario.Responses.Initial, username); initial != "" {
			greeting := &types.Message{
				SimulationID: simulation.ID,
				Sender:       types.MessageSenderPersona,
				Content:      initial,
			}
			if _, err := ss.messageRepo.Create(ctx, tx, []*types.Message{greeting}); err != nil {
				return fmt.Errorf("Failed to create initial message: %w", err)
			}
			messages = append(messages, greeting)
		}

		result = StartResult{Simulation: simulation, Messages: messages}
		return nil
	}); err != nil {
		return nil, err
	}

	ss.notifier.SimulationStarted(ctx, result.Simulation, result.Messages)
	return &result, nil
}

func (ss *simulationService) GetActive(ctx context.Context) (*types.Simulation, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return ss.simulationRepo.GetActiveByUserID(ctx, nil, rd.UserID)
}

func (ss *simulationService) GetMessages(ctx context.Context, simulationID uuid.UUID) ([]*types.Message, error) {
	simulation, err := ss.ownedSimulation(ctx, nil, simulationID)
	if err != nil {
		return nil, err
	}
	return ss.messageRepo.GetBySimulationID(ctx, nil, simulation.ID)
}

// SendMessage appends the user's utterance and the matched persona reply as
// one transcript extension. Both rows land in the same transaction so no
// reader ever sees half a turn.
func (ss *simulationService) SendMessage(ctx context.Context, simulationID uuid.UUID, content string) (*SendResult, error) {
	var result SendResult
	if err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		simulation, err := ss.ownedSimulation(ctx, tx, simulationID)
		if err != nil {
			return err
		}

		scenario := simulation.ScenarioContext.Data()
		reply := engine.Reply(&scenario, content)

		username, err := ss.usernameFor(ctx, tx, simulation.UserID)
		if err != nil {
			return err
		}

		userMessage := &types.Message{
			SimulationID: simulation.ID,
			Sender:       types.MessageSenderUser,
			Content:      content,
		}
		personaMessage := &types.Message{
			SimulationID: simulation.ID,
			Sender:       types.MessageSenderPersona,
			Content:      engine.RenderTemplate(reply, username),
		}
		if _, err := ss.messageRepo.Create(ctx, tx, []*types.Message{userMessage, personaMessage}); err != nil {
			return fmt.Errorf("Failed to append messages: %w", err)
		}

		result = SendResult{UserMessage: userMessage, PersonaMessage: personaMessage}
		return nil
	}); err != nil {
		return nil, err
	}

	ss.notifier.MessagesCreated(ctx, simulationID, []*types.Message{result.UserMessage, result.PersonaMessage})
	return &result, nil
}

// End finalizes a simulation: status flips to inactive, the transcript is
// scored, and achievements are evaluated, all in one transaction. Calling it
// again returns the existing assessment untouched.
func (ss *simulationService) End(ctx context.Context, simulationID uuid.UUID) (*EndResult, error) {
	var result EndResult
	ended := false
	if err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		simulation, err := ss.ownedSimulation(ctx, tx, simulationID)
		if err != nil {
			return err
		}

		existing, err := ss.assessmentRepo.GetBySimulationID(ctx, tx, simulation.ID)
		if err != nil {
			return fmt.Errorf("Failed to check for existing assessment: %w", err)
		}
		if existing != nil {
			result = EndResult{Assessment: existing}
			return nil
		}

		if err := ss.simulationRepo.UpdateStatus(ctx, tx, simulation.ID, types.SimulationStatusInactive); err != nil {
			return fmt.Errorf("Failed to deactivate simulation: %w", err)
		}

		transcript, err := ss.messageRepo.GetBySimulationID(ctx, tx, simulation.ID)
		if err != nil {
			return fmt.Errorf("Failed to load transcript: %w", err)
		}

		scenario := simulation.ScenarioContext.Data()
		assessed := engine.Assess(&scenario, simulation.CreatedAt, transcript)

		assessment := &types.Assessment{
			ID:               uuid.New(),
			SimulationID:     simulation.ID,
			Score:            int16(assessed.Score),
			TimeToResolve:    int64(assessed.TimeToResolve / time.Second),
			CriteriaFeedback: assessed.CriteriaFeedback,
		}
		if _, err := ss.assessmentRepo.Create(ctx, tx, assessment); err != nil {
			return fmt.Errorf("Failed to persist assessment: %w", err)
		}

		unlocked, err := ss.achievementService.Evaluate(ctx, tx, simulation.UserID, simulation.ID)
		if err != nil {
			return err
		}

		result = EndResult{Assessment: assessment, NewAchievements: unlocked}
		ended = true
		return nil
	}); err != nil {
		return nil, err
	}

	if ended {
		ss.notifier.SimulationEnded(ctx, simulationID, result.Assessment)
	}
	return &result, nil
}

// ownedSimulation loads a simulation and hides other users' simulations
// behind the same not-found error.
func (ss *simulationService) ownedSimulation(ctx context.Context, tx *gorm.DB, simulationID uuid.UUID) (*types.Simulation, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	simulation, err := ss.simulationRepo.GetByID(ctx, tx, simulationID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load simulation: %w", err)
	}
	if simulation == nil || simulation.UserID != rd.UserID {
		return nil, ErrSimulationNotFound
	}
	return simulation, nil
}

func (ss *simulationService) usernameFor(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (string, error) {
	profiles, err := ss.profileRepo.GetByIDs(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		return "", fmt.Errorf("Failed to load profile: %w", err)
	}
	if len(profiles) == 0 || profiles[0].Username == "" {
		return fallbackUsername, nil
	}
	return profiles[0].Username, nil
}
