package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

const (
	reportsDir    = "reports_data"
	sessionsDir   = "sessions_data"
	chatSuffix    = "_chat.json"
	jsonExtension = ".json"
)

// FileStore keeps one JSON document per report and session under a root
// directory. Chat transcripts live next to their session as <id>_chat.json.
type FileStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{reportsDir, sessionsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &FileStore{root: root}, nil
}

func (f *FileStore) Name() string { return "file" }

func (f *FileStore) Close(context.Context) error { return nil }

func (f *FileStore) SaveReport(_ context.Context, r contracts.RiskReport) error {
	if err := validID(r.ReportID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return writeJSON(f.reportPath(r.ReportID), r)
}

func (f *FileStore) GetReport(_ context.Context, id string) (contracts.RiskReport, error) {
	var r contracts.RiskReport
	if err := validID(id); err != nil {
		return r, ErrNotFound
	}
	if err := readJSON(f.reportPath(id), &r); err != nil {
		return contracts.RiskReport{}, err
	}
	return r, nil
}

func (f *FileStore) ListReports(_ context.Context) ([]contracts.RiskReport, error) {
	paths, err := filepath.Glob(filepath.Join(f.root, reportsDir, "*"+jsonExtension))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	reports := make([]contracts.RiskReport, 0, len(paths))
	for _, p := range paths {
		var r contracts.RiskReport
		if err := readJSON(p, &r); err != nil {
			continue
		}
		reports = append(reports, r)
	}
	sortReports(reports)
	return reports, nil
}

func (f *FileStore) ListSessionReports(ctx context.Context, sessionID string) ([]contracts.RiskReport, error) {
	all, err := f.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	return filterSession(all, sessionID), nil
}

func (f *FileStore) CountSessionReports(ctx context.Context, sessionID string) (int, error) {
	reports, err := f.ListSessionReports(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return len(reports), nil
}

func (f *FileStore) CreateSession(_ context.Context, s contracts.Session) error {
	if err := validID(s.SessionID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return writeJSON(f.sessionPath(s.SessionID), s)
}

func (f *FileStore) GetSession(_ context.Context, id string) (contracts.Session, error) {
	var s contracts.Session
	if err := validID(id); err != nil {
		return s, ErrNotFound
	}
	if err := readJSON(f.sessionPath(id), &s); err != nil {
		return contracts.Session{}, err
	}
	return s, nil
}

func (f *FileStore) ListSessions(_ context.Context) ([]contracts.Session, error) {
	paths, err := filepath.Glob(filepath.Join(f.root, sessionsDir, "*"+jsonExtension))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]contracts.Session, 0, len(paths))
	for _, p := range paths {
		if strings.HasSuffix(p, chatSuffix) {
			continue
		}
		var s contracts.Session
		if err := readJSON(p, &s); err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	sortSessions(sessions)
	return sessions, nil
}

func (f *FileStore) UpdateSession(_ context.Context, s contracts.Session) error {
	if err := validID(s.SessionID); err != nil {
		return ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	path := f.sessionPath(s.SessionID)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("stat session: %w", err)
	}
	return writeJSON(path, s)
}

func (f *FileStore) DeleteSession(_ context.Context, id string) error {
	if err := validID(id); err != nil {
		return ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.sessionPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (f *FileStore) AppendMessages(_ context.Context, sessionID string, msgs ...contracts.ChatMessage) error {
	if err := validID(sessionID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.chatPath(sessionID)
	transcript := make([]contracts.ChatMessage, 0, len(msgs))
	if err := readJSON(path, &transcript); err != nil && !errors.Is(err, ErrNotFound) {
		// A corrupt transcript restarts empty.
		transcript = transcript[:0]
	}
	transcript = append(transcript, msgs...)
	return writeJSON(path, transcript)
}

func (f *FileStore) ListMessages(_ context.Context, sessionID string) ([]contracts.ChatMessage, error) {
	transcript := make([]contracts.ChatMessage, 0)
	if err := validID(sessionID); err != nil {
		return transcript, nil
	}
	if err := readJSON(f.chatPath(sessionID), &transcript); err != nil {
		return make([]contracts.ChatMessage, 0), nil
	}
	return transcript, nil
}

func (f *FileStore) reportPath(id string) string {
	return filepath.Join(f.root, reportsDir, id+jsonExtension)
}

func (f *FileStore) sessionPath(id string) string {
	return filepath.Join(f.root, sessionsDir, id+jsonExtension)
}

func (f *FileStore) chatPath(id string) string {
	return filepath.Join(f.root, sessionsDir, id+chatSuffix)
}

// validID rejects ids that would escape the data directories or land on a
// transcript file.
func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." ||
		strings.HasSuffix(id+jsonExtension, chatSuffix) {
		return fmt.Errorf("invalid id %q", id)
	}
	return nil
}

func writeJSON(path string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
