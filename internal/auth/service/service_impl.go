package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/auth/domain"
	"github.com/smallbiznis/utilibill/internal/auth/password"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	obslogger "github.com/smallbiznis/utilibill/internal/observability/logger"
	"github.com/smallbiznis/utilibill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Repo   domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	tokens *Tokens
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("auth.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		tokens: NewTokens(p.Config.AuthJWTSecret, p.Config.AuthTokenTTL, p.Clock),
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, s.db, username)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		obslogger.WithContext(ctx, s.log).Info("login rejected", zap.String("username", username))
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	if password.NeedsRehash(user.PasswordHash) {
		if hashed, err := password.Hash(req.Password); err == nil {
			user.PasswordHash = hashed
			user.UpdatedAt = s.clock.Now()
			if err := s.repo.Update(ctx, s.db, user); err != nil {
				s.log.Warn("password rehash failed", zap.String("user_id", user.ID.String()), zap.Error(err))
			}
		}
	}

	token, expiresAt, err := s.tokens.Issue(*user)
	if err != nil {
		return domain.LoginResult{}, err
	}
	return domain.LoginResult{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (domain.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Claims{}, domain.ErrInvalidToken
	}
	return s.tokens.Verify(token)
}

func (s *Service) Me(ctx context.Context, id string) (domain.User, error) {
	return s.GetUser(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	username, err := normalizeUsername(req.Username)
	if err != nil {
		return domain.User{}, err
	}
	if len(req.Password) < domain.MinPasswordLength {
		return domain.User{}, domain.ErrInvalidPassword
	}
	role := domain.Role(strings.TrimSpace(req.Role))
	if !role.Valid() {
		return domain.User{}, domain.ErrInvalidRole
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return domain.User{}, err
	}
	now := s.clock.Now()
	user := domain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	existing, err := s.repo.FindByUsername(ctx, s.db, username)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ErrUserExists
	}
	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, err
	}

	obslogger.WithContext(ctx, s.log).Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
	)
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, rawID string, req domain.UpdateUserRequest) (domain.User, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrUserNotFound
	}

	if req.Username != nil {
		username, err := normalizeUsername(*req.Username)
		if err != nil {
			return domain.User{}, err
		}
		if username != user.Username {
			existing, err := s.repo.FindByUsername(ctx, s.db, username)
			if err != nil {
				return domain.User{}, err
			}
			if existing != nil {
				return domain.User{}, domain.ErrUserExists
			}
		}
		user.Username = username
	}
	if req.Role != nil {
		role := domain.Role(strings.TrimSpace(*req.Role))
		if !role.Valid() {
			return domain.User{}, domain.ErrInvalidRole
		}
		user.Role = role
	}
	if req.Password != nil {
		if len(*req.Password) < domain.MinPasswordLength {
			return domain.User{}, domain.ErrInvalidPassword
		}
		hashed, err := password.Hash(*req.Password)
		if err != nil {
			return domain.User{}, err
		}
		user.PasswordHash = hashed
	}

	user.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, err
	}
	return *user, nil
}

func (s *Service) DeleteUser(ctx context.Context, rawID string, actorID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(actorID) == id.String() {
		return domain.ErrCannotDeleteSelf
	}
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return s.repo.Delete(ctx, s.db, id)
}

func (s *Service) GetUser(ctx context.Context, rawID string) (domain.User, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

func (s *Service) ListUsers(ctx context.Context, rawRole string) ([]domain.User, error) {
	role := domain.Role(strings.TrimSpace(rawRole))
	if role != "" && !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	users, err := s.repo.List(ctx, s.db, role)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func normalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if len(username) < 3 || len(username) > 50 || strings.ContainsAny(username, " \t\r\n") {
		return "", domain.ErrInvalidUsername
	}
	return username, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// IsAuthError reports errors that should surface as 401.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrInvalidToken)
}
