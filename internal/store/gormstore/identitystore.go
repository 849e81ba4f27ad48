package gormstore

import (
	"context"
	"errors"

	"github.com/padelcana/courtbook/internal/identity"
	"gorm.io/gorm"
)

// CreateUser inserts a user. A duplicate email maps to identity.ErrEmailTaken.
func (store *Store) CreateUser(ctx context.Context, user identity.User) (identity.User, error) {
	row := User{
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Role:         user.Role.String(),
		ClubID:       user.ClubID,
		Language:     user.Language,
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return identity.User{}, wrapStoreError(errorSubjectUser, errorCodeCreate, identity.ErrEmailTaken)
		}
		return identity.User{}, wrapStoreError(errorSubjectUser, errorCodeCreate, err)
	}
	mapped, err := mapUser(row)
	if err != nil {
		return identity.User{}, wrapStoreError(errorSubjectUser, errorCodeInvalid, err)
	}
	return mapped, nil
}

// UserByEmail returns the user with the given normalized email, or nil when
// absent.
func (store *Store) UserByEmail(ctx context.Context, email string) (*identity.User, error) {
	var row User
	err := store.db.WithContext(ctx).
		Where("email = ?", email).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	mapped, err := mapUser(row)
	if err != nil {
		return nil, wrapStoreError(errorSubjectUser, errorCodeInvalid, err)
	}
	return &mapped, nil
}

func mapUser(row User) (identity.User, error) {
	role, err := identity.ParseRole(row.Role)
	if err != nil {
		return identity.User{}, err
	}
	return identity.User{
		UserID:       row.UserID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Role:         role,
		ClubID:       row.ClubID,
		Language:     row.Language,
		CreatedAt:    row.CreatedAt,
	}, nil
}
