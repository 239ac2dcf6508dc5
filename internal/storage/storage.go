// Package storage keeps uploaded datasets on disk, one directory per
// session, each holding the original upload and a bounded-row sample used
// for previews.
package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/prima/internal/dataset"
)

// File names inside a session directory.
const (
	OriginalFile = "original.csv"
	SampleFile   = "sample.csv"
)

// DefaultSampleRows is the number of data rows copied into a sample.
const DefaultSampleRows = 1000

// Errors returned by Store.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session id")
	ErrNotCSV          = errors.New("only .csv files are supported")
	ErrInvalidCSV      = errors.New("file is not a valid CSV")
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// Store manages session directories under a root directory.
type Store struct {
	root       string
	sampleRows int
	logger     *slog.Logger
}

// New creates the root directory if needed. A sampleRows of zero or less
// uses DefaultSampleRows.
func New(root string, sampleRows int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", root, err)
	}
	return &Store{root: root, sampleRows: sampleRows, logger: logger}, nil
}

// Root returns the upload directory.
func (s *Store) Root() string { return s.root }

// ValidSessionID reports whether id is safe to use as a directory name.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func (s *Store) sessionDir(id string) (string, error) {
	if !ValidSessionID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	return filepath.Join(s.root, id), nil
}

// UploadResult describes a stored upload.
type UploadResult struct {
	SessionID     string
	RowsProcessed int
	Bytes         int64
}

// Save stores r as the session's original file and writes its sample.
// Any previous upload for the session is replaced. On failure the session
// directory is removed.
func (s *Store) Save(ctx context.Context, id, filename string, r io.Reader) (*UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, ErrNotCSV
	}
	dir, err := s.sessionDir(id)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	res, err := s.save(ctx, dir, r)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.logger.Warn("failed to clean up session dir", "session", id, "error", rmErr)
		}
		return nil, err
	}
	res.SessionID = id
	s.logger.Info("stored upload", "session", id, "bytes", res.Bytes, "sample_rows", res.RowsProcessed)
	return res, nil
}

func (s *Store) save(ctx context.Context, dir string, r io.Reader) (*UploadResult, error) {
	originalPath := filepath.Join(dir, OriginalFile)
	f, err := os.Create(originalPath) //nolint:gosec // path is built from a validated session id
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	n, err := io.Copy(f, readerWithContext(ctx, r))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	rows, err := writeSample(originalPath, filepath.Join(dir, SampleFile), s.sampleRows)
	if err != nil {
		return nil, err
	}
	return &UploadResult{RowsProcessed: rows, Bytes: n}, nil
}

// writeSample copies the header and the first limit records of src to dst.
func writeSample(src, dst string, limit int) (int, error) {
	in, err := os.Open(src) //nolint:gosec // path is built from a validated session id
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: empty file", ErrInvalidCSV)
		}
		return 0, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}

	out, err := os.Create(dst) //nolint:gosec // path is built from a validated session id
	if err != nil {
		return 0, fmt.Errorf("failed to write sample: %w", err)
	}
	defer func() { _ = out.Close() }()

	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write sample: %w", err)
	}
	rows := 0
	for rows < limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}
		if err := cw.Write(rec); err != nil {
			return 0, fmt.Errorf("failed to write sample: %w", err)
		}
		rows++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to write sample: %w", err)
	}
	return rows, nil
}

// SamplePath returns the sample file of a session.
func (s *Store) SamplePath(id string) (string, error) {
	return s.existing(id, SampleFile)
}

// OriginalPath returns the original upload of a session.
func (s *Store) OriginalPath(id string) (string, error) {
	return s.existing(id, OriginalFile)
}

func (s *Store) existing(id, name string) (string, error) {
	dir, err := s.sessionDir(id)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return "", err
	}
	return path, nil
}

// LoadSample reads the session sample into a dataset.
func (s *Store) LoadSample(id string) (*dataset.Dataset, error) {
	path, err := s.SamplePath(id)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.ReadCSVFile(path, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample for %s: %w", id, err)
	}
	return ds, nil
}

// Session is a stored upload directory.
type Session struct {
	ID       string
	Modified time.Time
}

// List returns every session directory, oldest first.
func (s *Store) List() ([]Session, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var out []Session
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Session{ID: e.Name(), Modified: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Modified.Before(out[j].Modified) })
	return out, nil
}

// Sweep deletes sessions whose directory was last modified more than maxAge
// before now, and returns the deleted ids. Failures on one session are
// logged and do not stop the sweep.
func (s *Store) Sweep(maxAge time.Duration, now time.Time) ([]string, error) {
	sessions, err := s.List()
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, sess := range sessions {
		age := now.Sub(sess.Modified)
		if age <= maxAge {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, sess.ID)); err != nil {
			s.logger.Warn("failed to delete expired session", "session", sess.ID, "error", err)
			continue
		}
		s.logger.Info("deleted expired session", "session", sess.ID, "age", age.Round(time.Second))
		deleted = append(deleted, sess.ID)
	}
	return deleted, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
