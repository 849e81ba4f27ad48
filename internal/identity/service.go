package identity

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost      = 12
	defaultLanguage = "ES"
)

// Service handles registration and login.
type Service struct {
	store  Store
	issuer *TokenIssuer
}

// NewService wires a Service.
func NewService(store Store, issuer *TokenIssuer) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if issuer == nil {
		return nil, fmt.Errorf("%w: token issuer dependency is nil", ErrInvalidServiceConfig)
	}
	return &Service{store: store, issuer: issuer}, nil
}

// Register creates a PLAYER account and returns its profile with a signed
// token. Email is normalized to lowercase and must be unused.
func (service *Service) Register(ctx context.Context, email string, name string, password string) (Session, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	normalizedName := strings.TrimSpace(name)
	if normalizedEmail == "" || normalizedName == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	existing, err := service.store.UserByEmail(ctx, normalizedEmail)
	if err != nil {
		return Session{}, err
	}
	if existing != nil {
		return Session{}, ErrEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return Session{}, err
	}

	created, err := service.store.CreateUser(ctx, User{
		Email:        normalizedEmail,
		Name:         normalizedName,
		PasswordHash: string(passwordHash),
		Role:         RolePlayer,
		Language:     defaultLanguage,
	})
	if err != nil {
		return Session{}, err
	}
	return service.sessionFor(created)
}

// Login verifies credentials and returns the profile with a signed token. The
// same error covers an unknown email and a wrong password.
func (service *Service) Login(ctx context.Context, email string, password string) (Session, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	if normalizedEmail == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	user, err := service.store.UserByEmail(ctx, normalizedEmail)
	if err != nil {
		return Session{}, err
	}
	if user == nil || user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return service.sessionFor(*user)
}

func (service *Service) sessionFor(user User) (Session, error) {
	clubID := ""
	if user.ClubID != nil {
		clubID = *user.ClubID
	}
	token, err := service.issuer.Issue(Identity{
		UserID: user.UserID,
		Role:   user.Role,
		ClubID: clubID,
	})
	if err != nil {
		return Session{}, err
	}
	return Session{
		User: Profile{
			UserID:    user.UserID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role.String(),
			ClubID:    user.ClubID,
			Language:  user.Language,
			CreatedAt: user.CreatedAt,
		},
		AccessToken: token,
	}, nil
}
