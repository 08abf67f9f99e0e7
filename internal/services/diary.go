package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/mimosa-app/mimosa/internal/logger"
	"github.com/mimosa-app/mimosa/internal/models"
)

// DiaryService owns the durable set of diary entries. The backing file is
// the database: the whole mapping is loaded at construction and rewritten
// after every mutation. Single-process access is assumed; the mutex only
// guards the server's own concurrent handlers.
type DiaryService struct {
	storageFile string

	mu      sync.RWMutex
	entries map[string]models.DiaryEntry

	// saves performed by this process, so the file watcher can tell our
	// own rewrites apart from external ones
	selfWrites int32
}

// NewDiaryService creates the store and loads any existing diary file. A
// missing file means an empty store. A malformed file is moved aside and
// the store starts empty with a logged warning.
func NewDiaryService(storageFile string) *DiaryService {
	s := &DiaryService{
		storageFile: storageFile,
		entries:     make(map[string]models.DiaryEntry),
	}
	s.load()
	return s
}

// StorageFile returns the path of the backing diary file.
func (s *DiaryService) StorageFile() string {
	return s.storageFile
}

func (s *DiaryService) load() {
	data, err := os.ReadFile(s.storageFile)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Error reading diary file %s: %v", s.storageFile, err)
		}
		return
	}

	entries := make(map[string]models.DiaryEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		// Availability over failure: start empty, but keep the corrupt
		// file aside instead of silently destroying it on the next save.
		logger.Warnf("Error loading diary entries from %s: %v", s.storageFile, err)
		aside := fmt.Sprintf("%s.corrupt-%d", s.storageFile, time.Now().Unix())
		if renameErr := os.Rename(s.storageFile, aside); renameErr == nil {
			logger.Warnf("Moved unreadable diary file to %s", aside)
		}
		return
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// save rewrites the whole diary file. Write-to-temp-then-rename keeps a
// crash from truncating the previous snapshot. Failures are logged; the
// in-memory state is kept as-is.
func (s *DiaryService) save() {
	s.mu.RLock()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(s.entries)
	s.mu.RUnlock()
	if err != nil {
		logger.Errorf("Error serializing diary entries: %v", err)
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.storageFile), ".diary-*.json")
	if err != nil {
		logger.Errorf("Error saving diary entries: %v", err)
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		logger.Errorf("Error saving diary entries: %v", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		logger.Errorf("Error saving diary entries: %v", err)
		return
	}

	atomic.AddInt32(&s.selfWrites, 1)
	if err := os.Rename(tmpName, s.storageFile); err != nil {
		atomic.AddInt32(&s.selfWrites, -1)
		os.Remove(tmpName)
		logger.Errorf("Error saving diary entries: %v", err)
	}
}

// AddEntry inserts a new entry, assigns its id when absent, and persists
// the full set. Two entries created within the same second get distinct
// ids: the derived timestamp id is suffixed with a short discriminator on
// collision. An explicitly supplied id keeps the original overwrite
// semantics.
func (s *DiaryService) AddEntry(entry models.DiaryEntry) string {
	entryID := entry.EntryID
	explicit := entryID != ""
	if !explicit {
		entryID = entry.DefaultID()
	}

	s.mu.Lock()
	if !explicit {
		if _, exists := s.entries[entryID]; exists {
			entryID = entryID + "-" + uuid.NewString()[:8]
		}
	}
	entry.EntryID = entryID
	s.entries[entryID] = entry
	s.mu.Unlock()

	s.save()
	return entryID
}

// GetEntriesByDateRange returns the entries whose timestamp falls within
// [start, end], bounds inclusive. Order is unspecified.
func (s *DiaryService) GetEntriesByDateRange(start, end time.Time) []models.DiaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []models.DiaryEntry{}
	for _, entry := range s.entries {
		if !entry.Timestamp.Before(start) && !entry.Timestamp.After(end) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// entriesInWindow returns entries with timestamp in the half-open window
// [start, end). The calendar convenience queries use this so an entry at
// exactly the next window's midnight lands in one window only.
func (s *DiaryService) entriesInWindow(start, end time.Time) []models.DiaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []models.DiaryEntry{}
	for _, entry := range s.entries {
		if !entry.Timestamp.Before(start) && entry.Timestamp.Before(end) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// GetDailyEntries returns the entries of date's calendar day.
func (s *DiaryService) GetDailyEntries(date time.Time) []models.DiaryEntry {
	start := midnight(date)
	return s.entriesInWindow(start, start.AddDate(0, 0, 1))
}

// GetWeeklyEntries returns the entries of date's ISO week, Monday 00:00
// through the following Monday.
func (s *DiaryService) GetWeeklyEntries(date time.Time) []models.DiaryEntry {
	daysSinceMonday := (int(date.Weekday()) + 6) % 7
	start := midnight(date).AddDate(0, 0, -daysSinceMonday)
	return s.entriesInWindow(start, start.AddDate(0, 0, 7))
}

// GetMonthlyEntries returns the entries of date's calendar month. December
// rolls over to January of the following year.
func (s *DiaryService) GetMonthlyEntries(date time.Time) []models.DiaryEntry {
	start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	return s.entriesInWindow(start, start.AddDate(0, 1, 0))
}

// DeleteEntry removes the entry when present, persists, and reports
// whether it existed.
func (s *DiaryService) DeleteEntry(entryID string) bool {
	s.mu.Lock()
	_, existed := s.entries[entryID]
	if existed {
		delete(s.entries, entryID)
	}
	s.mu.Unlock()

	if existed {
		s.save()
	}
	return existed
}

// UpdateEntry replaces the entry under entryID when present, persists, and
// reports whether it existed.
func (s *DiaryService) UpdateEntry(entryID string, updated models.DiaryEntry) bool {
	s.mu.Lock()
	_, existed := s.entries[entryID]
	if existed {
		updated.EntryID = entryID
		s.entries[entryID] = updated
	}
	s.mu.Unlock()

	if existed {
		s.save()
	}
	return existed
}

// GetAllEntries returns every entry sorted ascending by timestamp.
func (s *DiaryService) GetAllEntries() []models.DiaryEntry {
	s.mu.RLock()
	entries := make([]models.DiaryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

// SearchEntries returns the entries whose content or AI reply contains the
// keyword, case-insensitively.
func (s *DiaryService) SearchEntries(keyword string) []models.DiaryEntry {
	needle := strings.ToLower(keyword)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []models.DiaryEntry{}
	for _, entry := range s.entries {
		if strings.Contains(strings.ToLower(entry.Content), needle) ||
			strings.Contains(strings.ToLower(entry.Response), needle) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Watch reloads the store when the diary file is rewritten by another
// process (the desktop shell and a browser tab share one file). It blocks
// until ctx is done.
func (s *DiaryService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create diary file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: renames onto the file (our own save pattern,
	// and any careful writer's) drop plain file watches.
	if err := watcher.Add(filepath.Dir(s.storageFile)); err != nil {
		return fmt.Errorf("failed to watch diary directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.storageFile) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if atomic.AddInt32(&s.selfWrites, -1) >= 0 {
				continue
			}
			atomic.StoreInt32(&s.selfWrites, 0)
			logger.Infof("Diary file changed on disk, reloading")
			s.load()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("Diary file watcher error: %v", err)
		}
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
