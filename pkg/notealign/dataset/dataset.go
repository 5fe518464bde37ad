// Package dataset knows where a recording's files live inside a corpus
// directory. Recordings are identified by small integers, rendered as
// two-digit file stems ("01", "02", ...).
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

// Default subdirectory names relative to the corpus root.
const (
	DefaultMonoLabelDir = "mono_label"
	DefaultNoteLabelDir = "mono_label_with_note"
	DefaultAlignedDir   = "mono_label_aligned"
	DefaultGeneratedDir = "mono_label_generated"
	DefaultWavDir       = "wav"
)

// LockFile is created inside the aligned directory while a batch is writing.
const LockFile = ".notealign.lock"

// ErrLocked is returned by Lock when another process holds the lock.
var ErrLocked = errors.New("dataset output directory is locked by another run")

// Layout maps a recording id to its input and output paths.
type Layout struct {
	Root         string `toml:"root"`
	MonoLabelDir string `toml:"mono_label_dir"`
	NoteLabelDir string `toml:"note_label_dir"`
	AlignedDir   string `toml:"aligned_dir"`
	GeneratedDir string `toml:"generated_dir"`
	WavDir       string `toml:"wav_dir"`
}

// DefaultLayout returns the conventional layout under root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:         root,
		MonoLabelDir: DefaultMonoLabelDir,
		NoteLabelDir: DefaultNoteLabelDir,
		AlignedDir:   DefaultAlignedDir,
		GeneratedDir: DefaultGeneratedDir,
		WavDir:       DefaultWavDir,
	}
}

// WithDefaults fills any empty directory name with its default.
func (l Layout) WithDefaults() Layout {
	d := DefaultLayout(l.Root)
	if l.MonoLabelDir == "" {
		l.MonoLabelDir = d.MonoLabelDir
	}
	if l.NoteLabelDir == "" {
		l.NoteLabelDir = d.NoteLabelDir
	}
	if l.AlignedDir == "" {
		l.AlignedDir = d.AlignedDir
	}
	if l.GeneratedDir == "" {
		l.GeneratedDir = d.GeneratedDir
	}
	if l.WavDir == "" {
		l.WavDir = d.WavDir
	}
	return l
}

// FormatID zero-pads a recording id to two digits.
func FormatID(id int) string {
	return fmt.Sprintf("%02d", id)
}

// ParseID is the inverse of FormatID. It accepts unpadded ids too.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid recording id %q", s)
	}
	return id, nil
}

// IDRange returns first..last inclusive. An inverted range is empty.
func IDRange(first, last int) []int {
	if last < first {
		return nil
	}
	ids := make([]int, 0, last-first+1)
	for id := first; id <= last; id++ {
		ids = append(ids, id)
	}
	return ids
}

func (l Layout) path(dir string, id int, ext string) string {
	return filepath.Join(l.Root, dir, FormatID(id)+ext)
}

// MonoLabel is the precisely timed phoneme label (input).
func (l Layout) MonoLabel(id int) string { return l.path(l.MonoLabelDir, id, ".lab") }

// NoteLabel is the note-tagged label (input).
func (l Layout) NoteLabel(id int) string { return l.path(l.NoteLabelDir, id, ".txt") }

// Aligned is where the aligned label is written.
func (l Layout) Aligned(id int) string { return l.path(l.AlignedDir, id, ".txt") }

// Generated is the full-context label produced by the synthesis front end.
func (l Layout) Generated(id int) string { return l.path(l.GeneratedDir, id, ".lab") }

// Wav is the recording audio.
func (l Layout) Wav(id int) string { return l.path(l.WavDir, id, ".wav") }

// Discover lists the ids that have both input labels present.
func (l Layout) Discover() ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(l.Root, l.MonoLabelDir))
	if err != nil {
		return nil, fmt.Errorf("reading mono label dir: %w", err)
	}

	var ids []int
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lab" {
			continue
		}
		stem := e.Name()[:len(e.Name())-len(".lab")]
		id, err := ParseID(stem)
		if err != nil {
			continue
		}
		if _, err := os.Stat(l.NoteLabel(id)); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Lock takes an exclusive, non-blocking lock on the aligned directory. The
// returned function releases it.
func (l Layout) Lock() (func() error, error) {
	dir := filepath.Join(l.Root, l.AlignedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating aligned dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock.Unlock, nil
}
