package replay

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/arenaforge/skirmish-server-go/internal/combat"
)

// archiveHeader describes a saved event log.
type archiveHeader struct {
	EncounterID string
	Timestamp   time.Time
	Version     int
	EventCount  int
}

const archiveVersion = 1

// Archive persists raw encounter event logs as gzipped gob files, one file
// per encounter. Only the input event sequence is stored; the indexed
// hierarchy is cheap enough to rebuild on load, which also keeps archived
// files valid across indexing changes.
type Archive struct {
	dir     string
	builder *Builder
}

// NewArchive creates an archive rooted at dir. The builder is used to
// re-index loaded event logs.
func NewArchive(dir string, builder *Builder) *Archive {
	return &Archive{dir: dir, builder: builder}
}

// Save writes the event log for an encounter to <dir>/<encounterID>.replay.
func (a *Archive) Save(encounterID string, events []combat.Event) error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	file, err := os.Create(a.path(encounterID))
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)

	encoder := gob.NewEncoder(gzipWriter)
	header := archiveHeader{
		EncounterID: encounterID,
		Timestamp:   time.Now(),
		Version:     archiveVersion,
		EventCount:  len(events),
	}
	if err := encoder.Encode(&header); err != nil {
		return fmt.Errorf("failed to encode archive header: %w", err)
	}
	for i := range events {
		if err := encoder.Encode(&events[i]); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// LoadEvents reads back the raw event log for an encounter.
func (a *Archive) LoadEvents(encounterID string) ([]combat.Event, error) {
	file, err := os.Open(a.path(encounterID))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var header archiveHeader
	if err := decoder.Decode(&header); err != nil {
		return nil, fmt.Errorf("failed to decode archive header: %w", err)
	}
	if header.Version != archiveVersion {
		return nil, fmt.Errorf("unsupported archive version: %d", header.Version)
	}

	events := make([]combat.Event, 0, header.EventCount)
	for i := 0; i < header.EventCount; i++ {
		var ev combat.Event
		if err := decoder.Decode(&ev); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// Load reads an archived event log and re-indexes it into a Replay.
func (a *Archive) Load(encounterID string) (*Replay, error) {
	events, err := a.LoadEvents(encounterID)
	if err != nil {
		return nil, err
	}
	return a.builder.Build(encounterID, events), nil
}

func (a *Archive) path(encounterID string) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s.replay", encounterID))
}
