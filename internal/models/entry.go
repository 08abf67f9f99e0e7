package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamps are persisted the way the diary file has always stored them:
// ISO-8601 without a forced zone offset.
const entryTimeLayout = "2006-01-02T15:04:05"

// DiaryEntry is one saved diary record: the user's written material paired
// with the AI reply and optional attachment paths.
//
// The on-disk field names are frozen for compatibility with existing diary
// files, including "claude_response" for the reply text.
type DiaryEntry struct {
	EntryID   string    `json:"entry_id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Response  string    `json:"claude_response"`
	ImagePath string    `json:"image_path"` // comma-joined paths, empty when absent
	FilePath  string    `json:"file_path"`  // comma-joined paths, empty when absent
}

// entryWire is the exact persisted shape. Attachment paths serialize to
// explicit nulls when absent rather than empty strings.
type entryWire struct {
	EntryID   string  `json:"entry_id"`
	Timestamp string  `json:"timestamp"`
	Content   string  `json:"content"`
	Response  string  `json:"claude_response"`
	ImagePath *string `json:"image_path"`
	FilePath  *string `json:"file_path"`
}

// DefaultID derives the entry id used when none was assigned: the integer
// Unix timestamp of the creation moment.
func (e *DiaryEntry) DefaultID() string {
	return strconv.FormatInt(e.Timestamp.Unix(), 10)
}

// ImagePaths returns the attached image paths as a slice.
func (e *DiaryEntry) ImagePaths() []string {
	return splitPaths(e.ImagePath)
}

// FilePaths returns the attached non-image file paths as a slice.
func (e *DiaryEntry) FilePaths() []string {
	return splitPaths(e.FilePath)
}

// SetImagePaths stores the given paths in the comma-joined wire encoding.
func (e *DiaryEntry) SetImagePaths(paths []string) {
	e.ImagePath = strings.Join(paths, ",")
}

// SetFilePaths stores the given paths in the comma-joined wire encoding.
func (e *DiaryEntry) SetFilePaths(paths []string) {
	e.FilePath = strings.Join(paths, ",")
}

func splitPaths(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func (e DiaryEntry) MarshalJSON() ([]byte, error) {
	wire := entryWire{
		EntryID:   e.EntryID,
		Timestamp: e.Timestamp.Format(entryTimeLayout),
		Content:   e.Content,
		Response:  e.Response,
	}
	if wire.EntryID == "" {
		wire.EntryID = e.DefaultID()
	}
	if e.ImagePath != "" {
		wire.ImagePath = &e.ImagePath
	}
	if e.FilePath != "" {
		wire.FilePath = &e.FilePath
	}
	return json.Marshal(wire)
}

func (e *DiaryEntry) UnmarshalJSON(data []byte) error {
	var wire entryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	ts, err := ParseTimestamp(wire.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid entry timestamp %q: %w", wire.Timestamp, err)
	}

	e.EntryID = wire.EntryID
	e.Timestamp = ts
	e.Content = wire.Content
	e.Response = wire.Response
	e.ImagePath = ""
	e.FilePath = ""
	if wire.ImagePath != nil {
		e.ImagePath = *wire.ImagePath
	}
	if wire.FilePath != nil {
		e.FilePath = *wire.FilePath
	}
	return nil
}

// CreateEntryRequest is the save action's payload: the UI shell bundles a
// chat session into one entry. Timestamp defaults to the current moment
// when absent.
type CreateEntryRequest struct {
	Content    string   `json:"content"`
	Response   string   `json:"claude_response"`
	ImagePaths []string `json:"image_paths,omitempty"`
	FilePaths  []string `json:"file_paths,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"`
}

// ParseTimestamp accepts both zone-less diary timestamps and RFC 3339
// ones, so files touched by other tooling still load.
func ParseTimestamp(value string) (time.Time, error) {
	if ts, err := time.ParseInLocation(entryTimeLayout, value, time.Local); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation(entryTimeLayout+".999999", value, time.Local); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
