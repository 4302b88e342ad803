package services

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/repos"
	"github.com/callsim/callsim-backend/internal/requestdata"
	"github.com/callsim/callsim-backend/internal/sse"
	"github.com/callsim/callsim-backend/internal/types"
)

type testEnv struct {
	db              *gorm.DB
	log             *logger.Logger
	profileRepo     repos.ProfileRepo
	personaRepo     repos.PersonaRepo
	simulationRepo  repos.SimulationRepo
	messageRepo     repos.MessageRepo
	assessmentRepo  repos.AssessmentRepo
	achievementRepo repos.AchievementRepo
	achievements    AchievementService
	simulations     SimulationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "callsim.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.Profile{},
		&types.UserToken{},
		&types.Persona{},
		&types.Simulation{},
		&types.Message{},
		&types.Assessment{},
		&types.Achievement{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		db:              gdb,
		log:             log,
		profileRepo:     repos.NewProfileRepo(gdb, log),
		personaRepo:     repos.NewPersonaRepo(gdb, log),
		simulationRepo:  repos.NewSimulationRepo(gdb, log),
		messageRepo:     repos.NewMessageRepo(gdb, log),
		assessmentRepo:  repos.NewAssessmentRepo(gdb, log),
		achievementRepo: repos.NewAchievementRepo(gdb, log),
	}
	env.achievements = NewAchievementService(gdb, log, env.personaRepo, env.simulationRepo, env.assessmentRepo, env.achievementRepo)
	notifier := NewSimulationNotifier(log, sse.NewHub(log), nil)
	env.simulations = NewSimulationService(
		gdb, log,
		env.profileRepo, env.personaRepo, env.simulationRepo, env.messageRepo, env.assessmentRepo,
		env.achievements, notifier,
		rand.New(rand.NewSource(1)),
	)
	return env
}

func (env *testEnv) createUser(t *testing.T, username string) (context.Context, *types.Profile) {
	t.Helper()
	profile := &types.Profile{
		ID:       uuid.New(),
		Email:    username + "@example.com",
		Password: "hashed",
		Username: username,
	}
	if _, err := env.profileRepo.Create(context.Background(), nil, []*types.Profile{profile}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:   profile.ID,
		Username: profile.Username,
	})
	return ctx, profile
}

func (env *testEnv) createPersona(t *testing.T, name string, scenarios ...types.Scenario) *types.Persona {
	t.Helper()
	persona := &types.Persona{
		ID:                     uuid.New(),
		Name:                   name,
		Role:                   "Customer",
		Tone:                   "frustrated",
		OceanOpenness:          50,
		OceanConscientiousness: 50,
		OceanExtraversion:      50,
		OceanAgreeableness:     50,
		OceanNeuroticism:       50,
		Scenarios:              scenarios,
	}
	if _, err := env.personaRepo.Create(context.Background(), nil, []*types.Persona{persona}); err != nil {
		t.Fatalf("create persona: %v", err)
	}
	return persona
}

func supportScenario(callID int) types.Scenario {
	return types.Scenario{
		CallID:  callID,
		Service: "Internet",
		Subject: fmt.Sprintf("Connection outage #%d", callID),
		Notes:   "Customer's connection drops intermittently.",
		Responses: types.Responses{
			Initial: "Hi {username}, my internet keeps dropping.",
			Default: "That did not help at all.",
			Rules: []types.Rule{
				{Triggers: []string{"restart"}, Response: "Okay, restarting the router now."},
				{Triggers: []string{"thank"}, Response: "Thanks for your help, {username}."},
			},
		},
	}
}
