package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/repos"
	"github.com/callsim/callsim-backend/internal/requestdata"
	"github.com/callsim/callsim-backend/internal/types"
	"github.com/callsim/callsim-backend/internal/utils"
)

type JWTClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, profile *types.Profile) error
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	profileRepo   repos.ProfileRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	profileRepo repos.ProfileRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		profileRepo:   profileRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, profile *types.Profile) error {
	utils.NormalizeProfileFields(profile)
	if err := utils.ValidateRegistration(profile); err != nil {
		return err
	}

	exists, err := as.profileRepo.EmailExists(ctx, nil, profile.Email)
	if err != nil {
		return fmt.Errorf("Failed to check user email: %w", err)
	}
	if exists {
		return fmt.Errorf("Email is already in use")
	}

	if err := utils.HashPassword(profile); err != nil {
		return err
	}

	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile.ID = uuid.New()
		if _, err := as.profileRepo.Create(ctx, tx, []*types.Profile{profile}); err != nil {
			return fmt.Errorf("Failed to create profile: %w", err)
		}
		// A broken avatar pipeline must never block registration.
		if as.avatarService != nil {
			if err := as.avatarService.CreateUserAvatar(ctx, tx, profile); err != nil {
				as.log.Warn("Failed to generate avatar for new profile", "user_id", profile.ID, "error", err)
			}
		}
		return nil
	})
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = utils.ParseInputString(email)
	password = utils.ParseInputString(password)
	if email == "" {
		return "", "", fmt.Errorf("Email is required to login")
	}
	if password == "" {
		return "", "", fmt.Errorf("Password is required to login")
	}

	profiles, err := as.profileRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", "", fmt.Errorf("Error retrieving profile by email: %w", err)
	}
	if len(profiles) == 0 {
		return "", "", fmt.Errorf("Invalid email")
	}
	profile := profiles[0]

	if err := utils.CheckPassword(profile.Password, password); err != nil {
		return "", "", err
	}

	return as.issueTokens(ctx, profile)
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	refreshToken = utils.ParseInputString(refreshToken)
	if refreshToken == "" {
		return "", "", fmt.Errorf("A refresh token is required")
	}

	stored, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("Failed to look up refresh token: %w", err)
	}
	if stored == nil || stored.ExpiresAt.Before(time.Now()) {
		return "", "", fmt.Errorf("Invalid or expired refresh token")
	}

	profiles, err := as.profileRepo.GetByIDs(ctx, nil, []uuid.UUID{stored.UserID})
	if err != nil || len(profiles) == 0 {
		return "", "", fmt.Errorf("Profile for refresh token no longer exists")
	}

	return as.issueTokens(ctx, profiles[0])
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return ErrUnauthorized
	}
	return as.userTokenRepo.DeleteByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("Invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid || claims.UserID == uuid.Nil {
		return ctx, fmt.Errorf("Invalid token claims")
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      claims.UserID,
		Username:    claims.Username,
	}), nil
}

func (as *authService) issueTokens(ctx context.Context, profile *types.Profile) (string, string, error) {
	var accessToken, refreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// One token row per user; a new login invalidates older sessions.
		if err := as.userTokenRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{profile.ID}); err != nil {
			return fmt.Errorf("Failed to clear previous tokens: %w", err)
		}

		tok, err := as.generateAccessToken(profile)
		if err != nil {
			return fmt.Errorf("Generate access token error: %w", err)
		}
		accessToken = tok
		refreshToken = uuid.New().String()

		userToken := &types.UserToken{
			ID:           uuid.New(),
			UserID:       profile.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); err != nil {
			return fmt.Errorf("Create user token error: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) generateAccessToken(profile *types.Profile) (string, error) {
	claims := JWTClaims{
		UserID:   profile.ID,
		Username: profile.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}
