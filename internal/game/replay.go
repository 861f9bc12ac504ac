package game

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/terrabots/terra-server-go/internal/game/cult"
)

// EntryKind tags a replay entry.
type EntryKind int

const (
	EntryAction EntryKind = iota
	EntryEndRound
	EntryGiveKey
)

var entryKindNames = map[EntryKind]string{
	EntryAction:   "ACTION",
	EntryEndRound: "END_ROUND",
	EntryGiveKey:  "GIVE_KEY",
}

func (k EntryKind) String() string {
	if name, ok := entryKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ENTRY_%d", int(k))
}

// Entry is one state transition. Player is the acting player for actions and the
// key holder for EntryGiveKey.
type Entry struct {
	Kind   EntryKind
	Player int
	Action Action
	Cult   cult.Type
}

// Replay is the options a game started with plus every transition applied to it.
// Re-applying the entries to a fresh state reproduces the game exactly.
type Replay struct {
	GameID  string
	Options Options
	Entries []Entry
	mu      sync.RWMutex
}

// NewReplay starts an empty log for a game created with opts.
func NewReplay(gameID string, opts Options) *Replay {
	return &Replay{
		GameID:  gameID,
		Options: opts,
		Entries: make([]Entry, 0),
	}
}

// Record appends an entry.
func (r *Replay) Record(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Entries = append(r.Entries, e)
}

// Size returns the number of recorded entries.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Entries)
}

// EntryAt returns the entry at index.
func (r *Replay) EntryAt(index int) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Entries) {
		return r.Entries[index], true
	}
	return Entry{}, false
}

// Rebuild replays every entry onto a fresh state.
func (r *Replay) Rebuild(logger *zap.Logger) (*State, error) {
	return r.StateAt(r.Size(), logger)
}

// StateAt replays the first n entries onto a fresh state.
func (r *Replay) StateAt(n int, logger *zap.Logger) (*State, error) {
	r.mu.RLock()
	opts := r.Options
	entries := append([]Entry(nil), r.Entries...)
	r.mu.RUnlock()

	if n < 0 || n > len(entries) {
		return nil, fmt.Errorf("replay %s: entry %d out of range [0, %d]", r.GameID, n, len(entries))
	}

	s, err := NewState(opts, logger)
	if err != nil {
		return nil, err
	}
	for i, e := range entries[:n] {
		if err := applyEntry(s, e); err != nil {
			return nil, fmt.Errorf("replay %s: entry %d (%s): %w", r.GameID, i, e.Kind, err)
		}
	}
	return s, nil
}

func applyEntry(s *State, e Entry) error {
	switch e.Kind {
	case EntryAction:
		if p := s.CurrentPlayer(); p != e.Player {
			return fmt.Errorf("%w: recorded player %d, current %d", ErrNotYourTurn, e.Player, p)
		}
		return s.ApplyAction(e.Action)
	case EntryEndRound:
		return s.EndRound()
	case EntryGiveKey:
		return s.GiveKey(e.Player, e.Cult)
	default:
		return fmt.Errorf("unknown entry kind %d", int(e.Kind))
	}
}

// replayMetadata heads every encoded replay.
type replayMetadata struct {
	GameID     string
	Timestamp  time.Time
	Version    int
	EntryCount int
}

const replayVersion = 1

func (r *Replay) encode(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	encoder := gob.NewEncoder(w)
	metadata := replayMetadata{
		GameID:     r.GameID,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		EntryCount: len(r.Entries),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := encoder.Encode(&r.Options); err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	for i := range r.Entries {
		if err := encoder.Encode(&r.Entries[i]); err != nil {
			return fmt.Errorf("failed to encode entry %d: %w", i, err)
		}
	}
	return nil
}

func decodeReplay(rd io.Reader) (*Replay, error) {
	decoder := gob.NewDecoder(rd)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	var opts Options
	if err := decoder.Decode(&opts); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	replay := NewReplay(metadata.GameID, opts)
	for i := 0; i < metadata.EntryCount; i++ {
		var e Entry
		if err := decoder.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode entry %d: %w", i, err)
		}
		replay.Entries = append(replay.Entries, e)
	}
	return replay, nil
}

// MarshalBinary encodes the replay with gob.
func (r *Replay) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalReplay decodes a replay produced by MarshalBinary.
func UnmarshalReplay(data []byte) (*Replay, error) {
	return decodeReplay(bytes.NewReader(data))
}

// SaveToFile writes the replay to <directory>/<game id>.replay, gzipped.
func (r *Replay) SaveToFile(directory string) error {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	if err := r.encode(gzipWriter); err != nil {
		gzipWriter.Close()
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	return decodeReplay(gzipReader)
}
