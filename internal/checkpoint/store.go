package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"voicecast/internal/analysis"
	"voicecast/internal/fileutil"
	"voicecast/internal/logging"
)

// DefaultTTL is how long a checkpoint stays eligible for resume.
const DefaultTTL = 24 * time.Hour

const (
	lockDirName    = ".locks"
	lockRetryDelay = 25 * time.Millisecond
)

// Summary describes a stored checkpoint without its character payload.
type Summary struct {
	OwnerID           int64
	SubID             int64
	Timestamp         time.Time
	LastCompletedStep int
	Characters        int
	TotalDialogs      int
	Expired           bool
	Corrupt           bool
	Path              string
}

// Store reads and writes checkpoint files in one directory.
type Store struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the resume window. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects the time source used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "checkpoint")
	}
}

// NewStore prepares dir (and its lock directory) and returns a store rooted there.
func NewStore(dir string, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("checkpoint directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, lockDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	s := &Store{
		dir:    dir,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logging.NewComponentLogger(nil, "checkpoint"),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the checkpoint directory.
func (s *Store) Dir() string { return s.dir }

// TTL returns the resume window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Path returns the checkpoint file path for a key.
func (s *Store) Path(ownerID, subID int64) string {
	return filepath.Join(s.dir, key(ownerID, subID)+".json")
}

func key(ownerID, subID int64) string {
	return strconv.FormatInt(ownerID, 10) + "_" + strconv.FormatInt(subID, 10)
}

// Load returns the checkpoint for (ownerID, subID) when it exists, decodes,
// is younger than the TTL, and carries expectedFingerprint. Expired,
// mismatched, and corrupt files are deleted.
func (s *Store) Load(ctx context.Context, ownerID, subID int64, expectedFingerprint string) (*Checkpoint, bool) {
	var (
		cp *Checkpoint
		ok bool
	)
	err := s.withLock(ctx, key(ownerID, subID), func() error {
		cp, ok = s.loadLocked(ownerID, subID, expectedFingerprint)
		return nil
	})
	if err != nil {
		s.logger.Debug("checkpoint lock unavailable", logging.Error(err))
		return nil, false
	}
	return cp, ok
}

func (s *Store) loadLocked(ownerID, subID int64, expected string) (*Checkpoint, bool) {
	path := s.Path(ownerID, subID)
	logger := s.logger.With(logging.Int64(logging.FieldOwnerID, ownerID), logging.Int64(logging.FieldSubID, subID))

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.WarnWithContext(logger, "checkpoint unreadable; starting fresh", "checkpoint_unreadable",
				logging.String("checkpoint_path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on checkpoint_dir"),
				logging.String(logging.FieldImpact, "chapter analysis restarts from the first stage"),
			)
		}
		return nil, false
	}

	cp, err := Decode(data)
	if err == nil && (cp.OwnerID != ownerID || cp.SubID != subID) {
		err = fmt.Errorf("checkpoint ids %d/%d do not match file key", cp.OwnerID, cp.SubID)
	}
	if err != nil {
		s.discard(logger, path, "checkpoint corrupt; discarding", "checkpoint_corrupt", err)
		return nil, false
	}

	if age := s.now().Sub(cp.Timestamp); age > s.ttl {
		s.discard(logger, path, "checkpoint expired; discarding", "checkpoint_expired",
			fmt.Errorf("age %s exceeds %s", age.Round(time.Second), s.ttl))
		return nil, false
	}
	if cp.ContentHash != expected {
		s.discard(logger, path, "checkpoint content changed; discarding", "checkpoint_mismatch",
			fmt.Errorf("content hash %s does not match %s", cp.ContentHash, expected))
		return nil, false
	}

	logger.Info("checkpoint loaded",
		logging.String(logging.FieldEventType, "checkpoint_loaded"),
		logging.Int("last_completed_step", cp.LastCompletedStep),
		logging.Int("character_count", len(cp.Characters)),
	)
	return cp, true
}

func (s *Store) discard(logger *slog.Logger, path, msg, eventType string, cause error) {
	logging.WarnWithContext(logger, msg, eventType,
		logging.String("reason", cause.Error()),
		logging.String(logging.FieldErrorHint, "no action needed"),
		logging.String(logging.FieldImpact, "chapter analysis restarts from the first stage"),
	)
	if _, err := fileutil.RemoveIfExists(path); err != nil {
		logging.WarnWithContext(logger, "checkpoint removal failed", "checkpoint_delete_failed",
			logging.String("checkpoint_path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually or check permissions"),
			logging.String(logging.FieldImpact, "stale checkpoint is re-examined on the next run"),
		)
	}
}

// Save snapshots ac after stage completedStep and writes it atomically.
func (s *Store) Save(ctx context.Context, ac *analysis.Context, completedStep int) error {
	if ac == nil {
		return errors.New("analysis context is nil")
	}
	cp := FromContext(ac, completedStep, s.now())
	data, err := Encode(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	path := s.Path(ac.OwnerID, ac.SubID)
	err = s.withLock(ctx, key(ac.OwnerID, ac.SubID), func() error {
		return fileutil.WriteAtomic(path, data, 0o644)
	})
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", filepath.Base(path), err)
	}
	s.logger.Debug("checkpoint saved",
		logging.String(logging.FieldEventType, "checkpoint_saved"),
		logging.Int64(logging.FieldOwnerID, ac.OwnerID),
		logging.Int64(logging.FieldSubID, ac.SubID),
		logging.Int("last_completed_step", completedStep),
		logging.Int("character_count", len(cp.Characters)),
	)
	return nil
}

// Delete removes the checkpoint for a key. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, ownerID, subID int64) error {
	return s.withLock(ctx, key(ownerID, subID), func() error {
		return s.deleteLocked(ownerID, subID)
	})
}

func (s *Store) deleteLocked(ownerID, subID int64) error {
	path := s.Path(ownerID, subID)
	removed, err := fileutil.RemoveIfExists(path)
	if err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", filepath.Base(path), err)
	}
	if _, err := fileutil.RemoveIfExists(fileutil.TempPath(path)); err != nil {
		return fmt.Errorf("delete checkpoint temp file: %w", err)
	}
	if removed {
		s.logger.Debug("checkpoint deleted",
			logging.String(logging.FieldEventType, "checkpoint_deleted"),
			logging.Int64(logging.FieldOwnerID, ownerID),
			logging.Int64(logging.FieldSubID, subID),
		)
	}
	return nil
}

// DeleteAll removes every checkpoint belonging to ownerID and returns how
// many were deleted.
func (s *Store) DeleteAll(ctx context.Context, ownerID int64) (int, error) {
	subIDs, err := s.subIDs(ownerID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, subID := range subIDs {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if err := s.Delete(ctx, ownerID, subID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// List summarizes every checkpoint in the directory, ordered by key.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint directory: %w", err)
	}
	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ownerID, subID, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary := Summary{OwnerID: ownerID, SubID: subID, Path: filepath.Join(s.dir, entry.Name())}
		err := s.withLock(ctx, key(ownerID, subID), func() error {
			data, err := os.ReadFile(summary.Path)
			if err != nil {
				return err
			}
			cp, err := Decode(data)
			if err != nil {
				summary.Corrupt = true
				return nil
			}
			summary.Timestamp = cp.Timestamp
			summary.LastCompletedStep = cp.LastCompletedStep
			summary.Characters = len(cp.Characters)
			summary.TotalDialogs = cp.TotalDialogs
			summary.Expired = s.now().Sub(cp.Timestamp) > s.ttl
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		return out[i].SubID < out[j].SubID
	})
	return out, nil
}

func (s *Store) subIDs(ownerID int64) ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint directory: %w", err)
	}
	var ids []int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		owner, sub, ok := parseName(entry.Name())
		if ok && owner == ownerID {
			ids = append(ids, sub)
		}
	}
	return ids, nil
}

// parseName splits "<owner>_<sub>.json"; owner may be negative.
func parseName(name string) (int64, int64, bool) {
	base, found := strings.CutSuffix(name, ".json")
	if !found {
		return 0, 0, false
	}
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return 0, 0, false
	}
	owner, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	sub, err := strconv.ParseInt(base[idx+1:], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return owner, sub, true
}

// withLock runs fn holding the in-process mutex and the advisory file lock
// for k.
func (s *Store) withLock(ctx context.Context, k string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mu := s.keyMutex(k)
	mu.Lock()
	defer mu.Unlock()

	fl := flock.New(filepath.Join(s.dir, lockDirName, k+".lock"))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire checkpoint lock: %w", err)
	}
	if !locked {
		return errors.New("acquire checkpoint lock: not acquired")
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Debug("checkpoint lock release failed", logging.Error(err))
		}
	}()
	return fn()
}

func (s *Store) keyMutex(k string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.locks[k]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[k] = mu
	}
	return mu
}
