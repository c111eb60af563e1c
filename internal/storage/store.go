package storage

import (
	"context"
	"errors"
	"sort"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

var ErrNotFound = errors.New("not found")

// Store persists reports, sessions and chat transcripts.
type Store interface {
	Name() string

	SaveReport(ctx context.Context, r contracts.RiskReport) error
	GetReport(ctx context.Context, id string) (contracts.RiskReport, error)
	ListReports(ctx context.Context) ([]contracts.RiskReport, error)
	ListSessionReports(ctx context.Context, sessionID string) ([]contracts.RiskReport, error)
	CountSessionReports(ctx context.Context, sessionID string) (int, error)

	CreateSession(ctx context.Context, s contracts.Session) error
	GetSession(ctx context.Context, id string) (contracts.Session, error)
	ListSessions(ctx context.Context) ([]contracts.Session, error)
	// UpdateSession replaces an existing session and returns ErrNotFound when it is missing.
	UpdateSession(ctx context.Context, s contracts.Session) error
	DeleteSession(ctx context.Context, id string) error

	AppendMessages(ctx context.Context, sessionID string, msgs ...contracts.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]contracts.ChatMessage, error)

	Close(ctx context.Context) error
}

func sortReports(reports []contracts.RiskReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}

func sortSessions(sessions []contracts.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}

func filterSession(reports []contracts.RiskReport, sessionID string) []contracts.RiskReport {
	out := make([]contracts.RiskReport, 0)
	for _, r := range reports {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out
}
