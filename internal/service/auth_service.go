package service

import (
	"context"
	"strings"
	"time"

	"knowledge-workspace/internal/dto"
	"knowledge-workspace/internal/entity"
	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/internal/pkg/serverutils"
	"knowledge-workspace/internal/repository/specification"
	"knowledge-workspace/internal/repository/unitofwork"
	"knowledge-workspace/pkg/events"
	pktNats "knowledge-workspace/pkg/nats"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error)
	Me(ctx context.Context, session serverutils.Session) (*dto.SessionResponse, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
}

type AuthSettings struct {
	JwtSecret  string
	SessionTTL time.Duration
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	settings       AuthSettings
	eventPublisher pktNats.AuditPublisher
	logger         logger.ILogger
}

// NewAuthService accepts a nil eventPublisher when NATS is unavailable.
func NewAuthService(uowFactory unitofwork.RepositoryFactory, settings AuthSettings, eventPublisher pktNats.AuditPublisher, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		settings:       settings,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("AuthService", "Failed login attempt", map[string]interface{}{"email": user.Email, "ip": ipAddress})
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := serverutils.IssueSessionToken(s.settings.JwtSecret, serverutils.Session{
		UserID: user.Id.String(),
		Email:  user.Email,
		Role:   string(user.Role),
	}, s.settings.SessionTTL)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		event := events.BaseEvent{
			Type: events.TypeUserLogin,
			Data: map[string]interface{}{
				"user_id":    user.Id,
				"email":      user.Email,
				"ip_address": ipAddress,
				"user_agent": userAgent,
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("AuthService", "Failed to publish login event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		SessionResponse: dto.SessionResponse{
			Email: user.Email,
			Role:  string(user.Role),
		},
	}, nil
}

// Me confirms the session still belongs to an existing user.
func (s *authService) Me(ctx context.Context, session serverutils.Session) (*dto.SessionResponse, error) {
	id, err := uuid.Parse(session.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	return &dto.SessionResponse{Email: user.Email, Role: string(user.Role)}, nil
}

func (s *authService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         entity.UserRole(req.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("AuthService", "User created", map[string]interface{}{"user_id": user.Id.String(), "role": req.Role})

	return &dto.UserResponse{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}, nil
}
