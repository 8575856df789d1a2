package history

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

// FileSelectionStore keeps selections in a JSON document:
//
//	{"selections": [...], "last_updated": "..."}
//
// Load is tolerant: a missing or corrupt file means an empty history. The
// whole file is rewritten on every append; concurrent writers are expected to
// serialize externally or accept last-writer-wins.
type FileSelectionStore struct {
	path   string
	logger *slog.Logger
}

func NewFileSelectionStore(path string, logger *slog.Logger) *FileSelectionStore {
	return &FileSelectionStore{path: path, logger: logger}
}

type selectionsFile struct {
	Selections  []Selection `json:"selections"`
	LastUpdated time.Time   `json:"last_updated"`
}

func (s *FileSelectionStore) Selections() ([]Selection, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read preferences file", "path", s.path, "err", err)
		}
		return nil, nil
	}
	var f selectionsFile
	if err := json.Unmarshal(b, &f); err != nil {
		s.logger.Warn("corrupt preferences file, starting empty", "path", s.path, "err", err)
		return nil, nil
	}
	return f.Selections, nil
}

func (s *FileSelectionStore) AppendSelection(sel Selection) error {
	existing, _ := s.Selections()
	f := selectionsFile{
		Selections:  append(existing, sel),
		LastUpdated: time.Now(),
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

// FileAttemptStore keeps booking attempts as a JSON array, one element per
// attempt, oldest first.
type FileAttemptStore struct {
	path   string
	logger *slog.Logger
}

func NewFileAttemptStore(path string, logger *slog.Logger) *FileAttemptStore {
	return &FileAttemptStore{path: path, logger: logger}
}

func (s *FileAttemptStore) Attempts() ([]Attempt, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read booking history file", "path", s.path, "err", err)
		}
		return nil, nil
	}
	var out []Attempt
	if err := json.Unmarshal(b, &out); err != nil {
		s.logger.Warn("corrupt booking history file, starting empty", "path", s.path, "err", err)
		return nil, nil
	}
	return out, nil
}

func (s *FileAttemptStore) AppendAttempt(a Attempt) error {
	existing, _ := s.Attempts()
	b, err := json.MarshalIndent(append(existing, a), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
