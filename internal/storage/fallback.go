package storage

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

// FallbackStore writes to a primary backend and falls back to the file store
// whenever the primary fails. Reads consult the files when the primary errors
// or does not have the record; lists merge both sides.
type FallbackStore struct {
	primary    Store
	files      *FileStore
	logger     *zap.Logger
	onFallback func(op string)
}

func NewFallbackStore(primary Store, files *FileStore, logger *zap.Logger) *FallbackStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackStore{
		primary:    primary,
		files:      files,
		logger:     logger,
		onFallback: func(string) {},
	}
}

// OnFallback registers a hook invoked with the operation name on every fallback.
func (s *FallbackStore) OnFallback(fn func(op string)) {
	if fn != nil {
		s.onFallback = fn
	}
}

func (s *FallbackStore) Name() string { return s.primary.Name() + "+file" }

func (s *FallbackStore) Close(ctx context.Context) error {
	return errors.Join(s.primary.Close(ctx), s.files.Close(ctx))
}

func (s *FallbackStore) SaveReport(ctx context.Context, r contracts.RiskReport) error {
	if err := s.primary.SaveReport(ctx, r); err != nil {
		s.fallback("save_report", err)
		return s.files.SaveReport(ctx, r)
	}
	return nil
}

func (s *FallbackStore) GetReport(ctx context.Context, id string) (contracts.RiskReport, error) {
	r, err := s.primary.GetReport(ctx, id)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.fallback("get_report", err)
	}
	return s.files.GetReport(ctx, id)
}

func (s *FallbackStore) ListReports(ctx context.Context) ([]contracts.RiskReport, error) {
	primary, err := s.primary.ListReports(ctx)
	if err != nil {
		s.fallback("list_reports", err)
	}
	files, ferr := s.files.ListReports(ctx)
	if ferr != nil {
		if err != nil {
			return nil, ferr
		}
		s.filesFailed("list_reports", ferr)
	}
	return mergeReports(primary, files), nil
}

func (s *FallbackStore) ListSessionReports(ctx context.Context, sessionID string) ([]contracts.RiskReport, error) {
	primary, err := s.primary.ListSessionReports(ctx, sessionID)
	if err != nil {
		s.fallback("list_session_reports", err)
	}
	files, ferr := s.files.ListSessionReports(ctx, sessionID)
	if ferr != nil {
		if err != nil {
			return nil, ferr
		}
		s.filesFailed("list_session_reports", ferr)
	}
	return mergeReports(primary, files), nil
}

func (s *FallbackStore) CountSessionReports(ctx context.Context, sessionID string) (int, error) {
	reports, err := s.ListSessionReports(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return len(reports), nil
}

func (s *FallbackStore) CreateSession(ctx context.Context, sess contracts.Session) error {
	if err := s.primary.CreateSession(ctx, sess); err != nil {
		s.fallback("create_session", err)
		return s.files.CreateSession(ctx, sess)
	}
	return nil
}

func (s *FallbackStore) GetSession(ctx context.Context, id string) (contracts.Session, error) {
	sess, err := s.primary.GetSession(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.fallback("get_session", err)
	}
	return s.files.GetSession(ctx, id)
}

func (s *FallbackStore) ListSessions(ctx context.Context) ([]contracts.Session, error) {
	primary, err := s.primary.ListSessions(ctx)
	if err != nil {
		s.fallback("list_sessions", err)
	}
	files, ferr := s.files.ListSessions(ctx)
	if ferr != nil {
		if err != nil {
			return nil, ferr
		}
		s.filesFailed("list_sessions", ferr)
	}
	return mergeSessions(primary, files), nil
}

func (s *FallbackStore) UpdateSession(ctx context.Context, sess contracts.Session) error {
	err := s.primary.UpdateSession(ctx, sess)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.fallback("update_session", err)
	}
	return s.files.UpdateSession(ctx, sess)
}

// DeleteSession removes the session from both sides. The file store's answer
// wins when the primary did not delete anything.
func (s *FallbackStore) DeleteSession(ctx context.Context, id string) error {
	perr := s.primary.DeleteSession(ctx, id)
	if perr != nil && !errors.Is(perr, ErrNotFound) {
		s.fallback("delete_session", perr)
	}
	ferr := s.files.DeleteSession(ctx, id)
	if perr == nil || ferr == nil {
		return nil
	}
	return ferr
}

func (s *FallbackStore) AppendMessages(ctx context.Context, sessionID string, msgs ...contracts.ChatMessage) error {
	if err := s.primary.AppendMessages(ctx, sessionID, msgs...); err != nil {
		s.fallback("append_messages", err)
		return s.files.AppendMessages(ctx, sessionID, msgs...)
	}
	return nil
}

// ListMessages merges the transcript halves held by each side, so messages
// written during a primary outage stay in order with the rest.
func (s *FallbackStore) ListMessages(ctx context.Context, sessionID string) ([]contracts.ChatMessage, error) {
	primary, err := s.primary.ListMessages(ctx, sessionID)
	if err != nil {
		s.fallback("list_messages", err)
	}
	files, ferr := s.files.ListMessages(ctx, sessionID)
	if ferr != nil {
		if err != nil {
			return nil, ferr
		}
		s.filesFailed("list_messages", ferr)
	}
	return mergeMessages(primary, files), nil
}

func (s *FallbackStore) fallback(op string, err error) {
	s.logger.Warn("primary store failed, using file store",
		zap.String("op", op),
		zap.String("primary", s.primary.Name()),
		zap.Error(err))
	s.onFallback(op)
}

// filesFailed logs a file store read that failed while the primary answered.
func (s *FallbackStore) filesFailed(op string, err error) {
	s.logger.Warn("file store read failed, serving primary only",
		zap.String("op", op),
		zap.Error(err))
}

func mergeReports(a, b []contracts.RiskReport) []contracts.RiskReport {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]contracts.RiskReport, 0, len(a)+len(b))
	for _, list := range [][]contracts.RiskReport{a, b} {
		for _, r := range list {
			if seen[r.ReportID] {
				continue
			}
			seen[r.ReportID] = true
			out = append(out, r)
		}
	}
	sortReports(out)
	return out
}

func mergeSessions(a, b []contracts.Session) []contracts.Session {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]contracts.Session, 0, len(a)+len(b))
	for _, list := range [][]contracts.Session{a, b} {
		for _, sess := range list {
			if seen[sess.SessionID] {
				continue
			}
			seen[sess.SessionID] = true
			out = append(out, sess)
		}
	}
	sortSessions(out)
	return out
}

type messageKey struct {
	at      int64
	role    string
	content string
}

// mergeMessages drops duplicates by timestamp, role and content and orders the
// result by timestamp. Timestamps compare at millisecond precision since the
// databases store less than the files do.
func mergeMessages(a, b []contracts.ChatMessage) []contracts.ChatMessage {
	seen := make(map[messageKey]bool, len(a)+len(b))
	out := make([]contracts.ChatMessage, 0, len(a)+len(b))
	for _, list := range [][]contracts.ChatMessage{a, b} {
		for _, m := range list {
			key := messageKey{at: m.Timestamp.UnixMilli(), role: m.Role, content: m.Content}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
