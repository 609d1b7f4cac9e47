package services

import (
	"context"
	"errors"
	"strings"

	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/repositories"

	"go.uber.org/zap"
)

// SessionService keeps the "logged in" operator name. There is no credential;
// the name is only used to attribute seals and checkpoints.
type SessionService struct {
	store  repositories.SessionStore
	logger *zap.Logger
	now    clock
}

func NewSessionService(store repositories.SessionStore, logger *zap.Logger) *SessionService {
	return &SessionService{store: store, logger: logger, now: utcNow}
}

func (s *SessionService) Login(ctx context.Context, name string) (models.Session, error) {
	session := models.NewSession(name, s.now())
	if !session.Valid() {
		return models.Session{}, invalid("name", "operator name is required")
	}
	if err := s.store.SetCurrentUser(ctx, session.Actor); err != nil {
		return models.Session{}, err
	}
	s.logger.Info("Operator logged in", zap.String("operator", session.Actor))
	return session, nil
}

func (s *SessionService) Logout(ctx context.Context) error {
	return s.store.ClearCurrentUser(ctx)
}

// Current returns the stored operator, or ErrUnauthenticated when nobody is
// logged in.
func (s *SessionService) Current(ctx context.Context) (models.Session, error) {
	name, err := s.store.CurrentUser(ctx)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && strings.TrimSpace(name) == "") {
		return models.Session{}, ErrUnauthenticated
	}
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{Actor: name}, nil
}
