package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventQuery   EventType = "query"
	EventSearch  EventType = "search"
	EventSelect  EventType = "select"
	EventArtist  EventType = "artist"
	EventTrack   EventType = "track"
	EventPersist EventType = "persist"
	EventSkip    EventType = "skip"
	EventImport  EventType = "import"
	EventDelete  EventType = "delete"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single step of an enrichment or maintenance run
type Event struct {
	Timestamp  time.Time         `json:"ts"`
	RunID      string            `json:"run_id"`
	Level      EventLevel        `json:"level"`
	Event      EventType         `json:"event"`
	ItemID     string            `json:"item_id,omitempty"`
	Query      string            `json:"query,omitempty"`
	Candidates int               `json:"candidates,omitempty"`
	ReleaseID  int64             `json:"release_id,omitempty"`
	ArtistIDs  []int64           `json:"artist_ids,omitempty"`
	TrackID    int64             `json:"track_id,omitempty"`
	State      string            `json:"state,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Duration   int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error      string            `json:"error,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil *EventLogger is valid
// and discards everything.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate filename with timestamp
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	// Append: two runs in the same second share a file, told apart by run id
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    uuid.NewString(),
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	// Filter by minimum level
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogQuery logs the search string chosen for an item
func (l *EventLogger) LogQuery(itemID, query string) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventQuery,
		ItemID: itemID,
		Query:  query,
	})
}

// LogSearch logs a catalogue search and how many candidates it produced
func (l *EventLogger) LogSearch(itemID, query string, candidates int, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:      level,
		Event:      EventSearch,
		ItemID:     itemID,
		Query:      query,
		Candidates: candidates,
		Duration:   duration.Milliseconds(),
		Error:      errMsg,
	})
}

// LogSelect logs the release chosen for an item
func (l *EventLogger) LogSelect(itemID string, releaseID int64, title string, manual bool) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventSelect,
		ItemID:    itemID,
		ReleaseID: releaseID,
		Extra: map[string]string{
			"title":  title,
			"manual": fmt.Sprintf("%t", manual),
		},
	})
}

// LogArtist logs an artist confirmation decision
func (l *EventLogger) LogArtist(itemID string, releaseID, artistID int64, name string, confirmed bool) error {
	return l.Log(&Event{
		Level:     LevelDebug,
		Event:     EventArtist,
		ItemID:    itemID,
		ReleaseID: releaseID,
		ArtistIDs: []int64{artistID},
		Extra: map[string]string{
			"name":      name,
			"confirmed": fmt.Sprintf("%t", confirmed),
		},
	})
}

// LogTrack logs the track chosen for an item
func (l *EventLogger) LogTrack(itemID string, releaseID int64, title, position string) error {
	return l.Log(&Event{
		Level:     LevelDebug,
		Event:     EventTrack,
		ItemID:    itemID,
		ReleaseID: releaseID,
		Extra: map[string]string{
			"title":    title,
			"position": position,
		},
	})
}

// LogPersist logs the outcome of writing an enrichment
func (l *EventLogger) LogPersist(itemID string, releaseID int64, artistIDs []int64, trackID int64, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:     level,
		Event:     EventPersist,
		ItemID:    itemID,
		ReleaseID: releaseID,
		ArtistIDs: artistIDs,
		TrackID:   trackID,
		Error:     errMsg,
	})
}

// LogSkip logs an item left unenriched and the state it was left in
func (l *EventLogger) LogSkip(itemID, state, reason string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventSkip,
		ItemID: itemID,
		State:  state,
		Reason: reason,
	})
}

// LogImport logs an item imported from a playlist dump
func (l *EventLogger) LogImport(playlistID, itemID string) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventImport,
		ItemID: itemID,
		Extra: map[string]string{
			"playlist_id": playlistID,
		},
	})
}

// LogDelete logs an item deletion
func (l *EventLogger) LogDelete(itemID string, filesRemoved int, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:  level,
		Event:  EventDelete,
		ItemID: itemID,
		Error:  errMsg,
		Extra: map[string]string{
			"files_removed": fmt.Sprintf("%d", filesRemoved),
		},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, itemID string, err error) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  event,
		ItemID: itemID,
		Error:  err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the identifier stamped on every event of this run
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
