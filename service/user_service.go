package service

import (
	"context"
	"fmt"
	"strings"

	"projector/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{uowFactory: uowFactory}
}

// Register stores a user issued by the authentication system
func (s *userService) Register(ctx context.Context, username, email string, isManager bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateField("username", username, "required,max=64"); err != nil {
		return nil, err
	}
	if err := validateField("email", email, "required,email"); err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, IsManager: isManager}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %w", ErrPersistence, err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", username, ErrUserExists)
		}
		return nil, fmt.Errorf("%w: create user: %w", ErrPersistence, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit transaction: %w", ErrPersistence, err)
	}

	log.WithFields(log.Fields{
		"userID":    user.ID,
		"username":  user.Username,
		"isManager": user.IsManager,
	}).Info("Registered user")

	return user, nil
}

// GetByUsername returns the user with the given username
func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %w", ErrPersistence, err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %w", ErrPersistence, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit transaction: %w", ErrPersistence, err)
	}
	return user, nil
}
