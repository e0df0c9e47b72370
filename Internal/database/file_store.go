package datafeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fazecat/lexipulse/Internal/sentiment"
)

// FileStore keeps one ticker's state in a directory: the lexicon and seen
// set as JSON, the sentiment log as CSV.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	ticker string
}

func NewFileStore(dir, ticker string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{dir: dir, ticker: ticker}, nil
}

func (s *FileStore) lexiconPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("sentiment_dictionary_%s.json", s.ticker))
}

func (s *FileStore) seenPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("seen_links_%s.json", s.ticker))
}

// LogPath is the CSV sentiment log for the ticker.
func (s *FileStore) LogPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("sentiment_log_%s.csv", s.ticker))
}

func (s *FileStore) LoadLexicon(ctx context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.lexiconPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	var weights map[string]float64
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	if len(weights) == 0 {
		return nil, ErrNotFound
	}
	return weights, nil
}

func (s *FileStore) LoadSeen(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.seenPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read seen items: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode seen items: %w", err)
	}
	return ids, nil
}

// Commit stages both JSON files, appends the log rows, then renames the
// staged files into place. A failure at any step undoes the earlier ones.
func (s *FileStore) Commit(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	lexTmp, err := s.stageJSON(s.lexiconPath(), nonNilMap(snap.Lexicon))
	if err != nil {
		return fmt.Errorf("stage lexicon: %w", err)
	}
	defer os.Remove(lexTmp)

	seenTmp, err := s.stageJSON(s.seenPath(), nonNilSlice(snap.Seen))
	if err != nil {
		return fmt.Errorf("stage seen items: %w", err)
	}
	defer os.Remove(seenTmp)

	undoLog, err := appendLogCSV(s.LogPath(), snap.Entries)
	if err != nil {
		return fmt.Errorf("append sentiment log: %w", err)
	}

	prevLexicon, hadLexicon := readIfExists(s.lexiconPath())
	if err := os.Rename(lexTmp, s.lexiconPath()); err != nil {
		undoLog()
		return fmt.Errorf("save lexicon: %w", err)
	}
	if err := os.Rename(seenTmp, s.seenPath()); err != nil {
		undoLog()
		s.restoreLexicon(prevLexicon, hadLexicon)
		return fmt.Errorf("save seen items: %w", err)
	}
	return nil
}

func (s *FileStore) History(ctx context.Context, limit int) ([]sentiment.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readLogCSV(s.LogPath())
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// stageJSON writes v to a synced temp file next to target and returns its path.
func (s *FileStore) stageJSON(target string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (s *FileStore) restoreLexicon(prev []byte, existed bool) {
	if !existed {
		os.Remove(s.lexiconPath())
		return
	}
	tmp, err := os.CreateTemp(s.dir, "lexicon-restore-*.tmp")
	if err != nil {
		return
	}
	_, werr := tmp.Write(prev)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		return
	}
	if err := os.Rename(tmp.Name(), s.lexiconPath()); err != nil {
		os.Remove(tmp.Name())
	}
}

func readIfExists(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func nonNilMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
