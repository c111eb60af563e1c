package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

// CreateSession stores a new active session. A blank name becomes
// "Session HH:MM:SS".
func (s *Service) CreateSession(ctx context.Context, name string, description *string) (contracts.Session, error) {
	now := s.now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Session " + now.Format("15:04:05")
	}
	sess := contracts.Session{
		SessionID:    uuid.NewString(),
		Name:         name,
		Description:  description,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsActive:     true,
		LastActivity: &now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return contracts.Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (contracts.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return contracts.Session{}, err
	}
	return s.withCount(ctx, sess)
}

func (s *Service) ListSessions(ctx context.Context) ([]contracts.Session, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i], err = s.withCount(ctx, sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// UpdateSession applies the set fields of u. An empty update returns the
// session unchanged.
func (s *Service) UpdateSession(ctx context.Context, id string, u contracts.SessionUpdate) (contracts.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return contracts.Session{}, err
	}
	if !u.Empty() {
		u.Apply(&sess, s.now())
		if err := s.store.UpdateSession(ctx, sess); err != nil {
			return contracts.Session{}, err
		}
	}
	return s.withCount(ctx, sess)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.store.GetSession(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, id)
}

// SessionReports returns the session together with its reports, newest first.
func (s *Service) SessionReports(ctx context.Context, id string) (contracts.Session, []contracts.RiskReport, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return contracts.Session{}, nil, err
	}
	reports, err := s.store.ListSessionReports(ctx, id)
	if err != nil {
		return contracts.Session{}, nil, err
	}
	sess.ReportCount = len(reports)
	return sess, reports, nil
}

func (s *Service) withCount(ctx context.Context, sess contracts.Session) (contracts.Session, error) {
	n, err := s.store.CountSessionReports(ctx, sess.SessionID)
	if err != nil {
		return contracts.Session{}, fmt.Errorf("count session reports: %w", err)
	}
	sess.ReportCount = n
	return sess, nil
}
