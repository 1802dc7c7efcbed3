package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/repository"
)

// ErrInvalidCredentials indicates a failed roll/password check. The same
// error covers unknown rolls so responses do not leak account existence.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrRollTaken indicates the roll identifier is already registered.
var ErrRollTaken = errors.New("roll already registered")

// ErrUserNotFound indicates a user could not be found.
var ErrUserNotFound = errors.New("user not found")

// ErrBatchNotOpen indicates the batch does not accept self-enrollment.
var ErrBatchNotOpen = errors.New("batch is not open for enrollment")

// AuthService issues signed session tokens validated on every request
// boundary, replacing client-held session state.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	batches   repository.BatchRepository
	validator *validator.Validate
	jwtSecret string
	jwtExpiry time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users repository.UserRepository, batches repository.BatchRepository, validate *validator.Validate, jwtSecret string, jwtExpiry time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		batches:   batches,
		validator: validate,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	if _, err := s.users.GetByRoll(ctx, payload.Roll); err == nil {
		return dto.AuthResponse{}, ErrRollTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Name:         payload.Name,
		Roll:         payload.Roll,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Institution:  payload.Institution,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.AuthResponse{}, err
	}

	if payload.BatchID != nil {
		batch, err := s.batches.GetByID(ctx, *payload.BatchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AuthResponse{}, ErrBatchNotFound
			}
			return dto.AuthResponse{}, err
		}

		// Self-enrollment is limited to public active batches; private
		// cohorts are enrolled by an administrator.
		if !batch.IsPublic || batch.Status != models.BatchStatusActive {
			return dto.AuthResponse{}, ErrBatchNotOpen
		}

		if err := s.users.Enroll(ctx, &user, batch); err != nil {
			return dto.AuthResponse{}, err
		}
		user.Batches = append(user.Batches, batch)
	}

	token, err := s.signToken(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")

	return dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByRoll(ctx, payload.Roll)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := s.signToken(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) signToken(user models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.jwtExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
