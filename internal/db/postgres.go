package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/types"
	"github.com/callsim/callsim-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "callsim", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(
		&types.Profile{},
		&types.UserToken{},
		&types.Persona{},
		&types.Simulation{},
		&types.Message{},
		&types.Assessment{},
		&types.Achievement{},
	); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_user_tokens_user_id",
			sql: `ALTER TABLE "user_tokens"
				ADD CONSTRAINT "fk_user_tokens_user_id"
				FOREIGN KEY ("user_id") REFERENCES "profiles"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_simulations_user_id",
			sql: `ALTER TABLE "simulations"
				ADD CONSTRAINT "fk_simulations_user_id"
				FOREIGN KEY ("user_id") REFERENCES "profiles"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_simulations_persona_id",
			sql: `ALTER TABLE "simulations"
				ADD CONSTRAINT "fk_simulations_persona_id"
				FOREIGN KEY ("persona_id") REFERENCES "personas"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_messages_simulation_id",
			sql: `ALTER TABLE "messages"
				ADD CONSTRAINT "fk_messages_simulation_id"
				FOREIGN KEY ("simulation_id") REFERENCES "simulations"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_assessments_simulation_id",
			sql: `ALTER TABLE "assessments"
				ADD CONSTRAINT "fk_assessments_simulation_id"
				FOREIGN KEY ("simulation_id") REFERENCES "simulations"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_achievements_user_id",
			sql: `ALTER TABLE "achievements"
				ADD CONSTRAINT "fk_achievements_user_id"
				FOREIGN KEY ("user_id") REFERENCES "profiles"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_achievements_simulation_id",
			sql: `ALTER TABLE "achievements"
				ADD CONSTRAINT "fk_achievements_simulation_id"
				FOREIGN KEY ("simulation_id") REFERENCES "simulations"("id")
				ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		var exists bool
		if err := s.db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("Failed to check constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		if err := s.db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("Failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
