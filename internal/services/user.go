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

type UserService interface {
	GetMe(ctx context.Context) (*types.Profile, error)
}

type userService struct {
	db          *gorm.DB
	log         *logger.Logger
	profileRepo repos.ProfileRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, profileRepo repos.ProfileRepo) UserService {
	return &userService{
		db:          db,
		log:         log.With("service", "UserService"),
		profileRepo: profileRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.Profile, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	profiles, err := us.profileRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("error fetching profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("profile does not exist")
	}
	return profiles[0], nil
}
