package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/config"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/security"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

const minPasswordLen = 8

// RegisterInput is one account registration request.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     enums.ActorRole
}

// Service owns the registered-account collection.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, email string) (*models.User, error)
}

type service struct {
	records  store.Store
	keys     store.Keys
	password config.PasswordConfig
	logg     *logger.Logger
}

// NewService builds a user service backed by the provided stack.
func NewService(records store.Store, keys store.Keys, password config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		records:  records,
		keys:     keys,
		password: password,
		logg:     logg,
	}, nil
}

// Register creates a new account. Emails are unique case-insensitively;
// the role defaults to customer when unset.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if len(input.Password) < minPasswordLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	role := input.Role
	if role == "" {
		role = enums.ActorRoleCustomer
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown role %q", role))
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if findUser(users, email) >= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("email %s already registered", email))
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user := models.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := models.Validate(user); err != nil {
		return nil, err
	}

	users = append(users, user)
	if err := s.records.Set(ctx, s.keys.Users(), users); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithActorEmail(ctx, email), "account registered")
	return sanitize(user), nil
}

// Authenticate verifies credentials. Unknown emails and wrong passwords
// return the same error so the endpoint cannot be used to probe for
// registered addresses.
func (s *service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	invalid := pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")

	idx := findUser(users, email)
	if idx < 0 {
		return nil, invalid
	}
	ok, err := security.VerifyPassword(password, users[idx].PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalid
	}
	return sanitize(users[idx]), nil
}

func (s *service) Get(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	idx := findUser(users, email)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no account for %s", email))
	}
	return sanitize(users[idx]), nil
}

func (s *service) loadUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.records.Get(ctx, s.keys.Users(), &users); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return users, nil
}

func findUser(users []models.User, email string) int {
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return i
		}
	}
	return -1
}

// sanitize strips the credential hash before a user leaves the service.
func sanitize(user models.User) *models.User {
	user.PasswordHash = ""
	return &user
}
