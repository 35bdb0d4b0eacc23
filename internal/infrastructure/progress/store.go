// Package progress persists per-task scrape status to a single JSON file.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

var _ output.ProgressStore = (*JSONStore)(nil)

// JSONStore keeps every record in memory and rewrites the whole file on each
// update. The file maps "state_rto_year_product" to a record. Keys are labels
// only: records are rebuilt from their own fields on load, and ids whose
// labels coincide get a "#n" suffix.
type JSONStore struct {
	mu      sync.RWMutex
	path    string
	records map[entity.TaskID]entity.ProgressRecord
	logger  output.LoggerPort
	now     func() time.Time
}

// Open loads path. A missing file is an empty store; an unreadable or
// corrupted one is logged and also treated as empty.
func Open(path string, logger output.LoggerPort) *JSONStore {
	s := &JSONStore{
		path:    path,
		records: make(map[entity.TaskID]entity.ProgressRecord),
		logger:  logger,
		now:     time.Now,
	}

	if err := s.load(); err != nil {
		logger.Warn("Progress file unusable, starting fresh", "path", path, "error", err)
		s.records = make(map[entity.TaskID]entity.ProgressRecord)
	}

	return s
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read progress file: %w", err)
	}

	var raw map[string]entity.ProgressRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode progress file: %w", err)
	}

	for key, rec := range raw {
		if rec.State == "" || !rec.Status.Valid() {
			s.logger.Warn("Dropping malformed progress record", "key", key)
			continue
		}
		s.records[rec.TaskID] = rec
	}

	s.logger.Debug("Progress loaded", "path", s.path, "records", len(s.records))
	return nil
}

func (s *JSONStore) Status(id entity.TaskID) entity.TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.records[id]; ok {
		return rec.Status
	}
	return entity.TaskStatusNotStarted
}

func (s *JSONStore) Record(id entity.TaskID) (entity.ProgressRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	return rec, ok
}

// Update upserts the record and writes the file. Nil details keep whatever
// details the record already had.
func (s *JSONStore) Update(id entity.TaskID, status entity.TaskStatus, details *entity.RecordDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[id]
	rec.TaskID = id
	rec.Status = status
	rec.Timestamp = s.now()
	if details != nil {
		rec.Details = details
	}
	s.records[id] = rec

	if err := s.persist(); err != nil {
		s.logger.Error("Failed to save progress", "task", id.String(), "error", err)
		return err
	}
	return nil
}

func (s *JSONStore) Summary() map[entity.TaskStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[entity.TaskStatus]int)
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts
}

// Records returns a copy of every record.
func (s *JSONStore) Records() []entity.ProgressRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.ProgressRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}

func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[entity.TaskID]entity.ProgressRecord)
	return s.persist()
}

func (s *JSONStore) persist() error {
	raw := make(map[string]entity.ProgressRecord, len(s.records))
	for id, key := range fileKeys(s.records) {
		raw[key] = s.records[id]
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create progress dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write progress file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}

	return nil
}

// fileKeys labels each id with its String form. Ids are visited in a fixed
// order so that a collision, such as ("A_B", "C") against ("A", "B_C"),
// always resolves to the same suffixed key.
func fileKeys(records map[entity.TaskID]entity.ProgressRecord) map[entity.TaskID]string {
	ids := make([]entity.TaskID, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b entity.TaskID) int {
		return strings.Compare(
			strings.Join([]string{a.State, a.RTO, a.Year, string(a.Product)}, "\x00"),
			strings.Join([]string{b.State, b.RTO, b.Year, string(b.Product)}, "\x00"),
		)
	})

	keys := make(map[entity.TaskID]string, len(ids))
	used := make(map[string]bool, len(ids))
	for _, id := range ids {
		key := id.String()
		for n := 2; used[key]; n++ {
			key = id.String() + "#" + strconv.Itoa(n)
		}
		used[key] = true
		keys[id] = key
	}
	return keys
}
