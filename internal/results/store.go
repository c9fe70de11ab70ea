package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"voicecast/internal/analysis"
)

// Chapter statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Chapter is the stored summary of one analyzed chapter.
type Chapter struct {
	BookID         int64
	ChapterID      int64
	Status         string
	LastStep       string
	CharacterCount int
	DialogCount    int
	Message        string
	UpdatedAt      time.Time
}

// Store manages analysis results backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the results database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure results directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// SaveStep replaces the stored character set of a chapter with an interim
// snapshot taken after step.
func (s *Store) SaveStep(ctx context.Context, bookID, chapterID int64, step string, characters []*analysis.Character) error {
	return s.write(ctx, bookID, chapterID, chapterRow{
		status:   StatusInProgress,
		lastStep: step,
		dialogs:  dialogTotal(characters),
	}, characters)
}

// SaveFinal records the outcome of a run. characters may be nil for runs
// that did not complete, in which case the interim set is kept.
func (s *Store) SaveFinal(ctx context.Context, bookID, chapterID int64, status, message string, totalDialogs int, characters []*analysis.Character) error {
	row := chapterRow{status: status, message: message, dialogs: totalDialogs, keepCharacters: characters == nil}
	return s.write(ctx, bookID, chapterID, row, characters)
}

type chapterRow struct {
	status         string
	lastStep       string
	message        string
	dialogs        int
	keepCharacters bool
}

func (s *Store) write(ctx context.Context, bookID, chapterID int64, row chapterRow, characters []*analysis.Character) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	count := len(characters)
	if row.keepCharacters {
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM characters WHERE book_id = ? AND chapter_id = ?`, bookID, chapterID,
		).Scan(&count); err != nil {
			return fmt.Errorf("count characters: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chapters (book_id, chapter_id, status, last_step, character_count, dialog_count, message, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (book_id, chapter_id) DO UPDATE SET
             status = excluded.status,
             last_step = COALESCE(excluded.last_step, chapters.last_step),
             character_count = excluded.character_count,
             dialog_count = excluded.dialog_count,
             message = excluded.message,
             updated_at = excluded.updated_at`,
		bookID, chapterID, row.status, nullableString(row.lastStep), count, row.dialogs,
		nullableString(row.message), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert chapter: %w", err)
	}

	if !row.keepCharacters {
		if _, err := tx.ExecContext(ctx, `DELETE FROM characters WHERE book_id = ? AND chapter_id = ?`, bookID, chapterID); err != nil {
			return fmt.Errorf("clear characters: %w", err)
		}
		for _, ch := range characters {
			if err := insertCharacter(ctx, tx, bookID, chapterID, ch); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

func insertCharacter(ctx context.Context, tx *sql.Tx, bookID, chapterID int64, ch *analysis.Character) error {
	rec := toRecord(ch)
	traits, err := json.Marshal(rec.Traits)
	if err != nil {
		return fmt.Errorf("marshal traits: %w", err)
	}
	pages, err := json.Marshal(rec.Pages)
	if err != nil {
		return fmt.Errorf("marshal pages: %w", err)
	}
	dialogs, err := json.Marshal(rec.Dialogs)
	if err != nil {
		return fmt.Errorf("marshal dialogs: %w", err)
	}
	var profile any
	if rec.VoiceProfile != nil {
		data, err := json.Marshal(rec.VoiceProfile)
		if err != nil {
			return fmt.Errorf("marshal voice profile: %w", err)
		}
		profile = string(data)
	}
	var speaker any
	if ch.SpeakerID != nil {
		speaker = *ch.SpeakerID
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO characters (book_id, chapter_id, canonical_name, name, traits_json, pages_json, dialogs_json, voice_profile_json, speaker_id)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bookID, chapterID, ch.CanonicalName, ch.Name, string(traits), string(pages), string(dialogs), profile, speaker,
	)
	if err != nil {
		return fmt.Errorf("insert character %q: %w", ch.Name, err)
	}
	return nil
}

// Chapter fetches one chapter summary; nil when absent.
func (s *Store) Chapter(ctx context.Context, bookID, chapterID int64) (*Chapter, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE book_id = ? AND chapter_id = ?`, bookID, chapterID)
	ch, err := scanChapter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}
	return ch, nil
}

// Chapters lists the chapters of a book in chapter order.
func (s *Store) Chapters(ctx context.Context, bookID int64) ([]Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE book_id = ? ORDER BY chapter_id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var out []Chapter
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, *ch)
	}
	return out, rows.Err()
}

// Characters returns the stored characters of one chapter ordered by key.
func (s *Store) Characters(ctx context.Context, bookID, chapterID int64) ([]*analysis.Character, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT canonical_name, name, traits_json, pages_json, dialogs_json, voice_profile_json, speaker_id
         FROM characters WHERE book_id = ? AND chapter_id = ? ORDER BY canonical_name`,
		bookID, chapterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []*analysis.Character
	for rows.Next() {
		var (
			rec                    record
			traits, pages, dialogs string
			profile                sql.NullString
			speaker                sql.NullInt64
		)
		if err := rows.Scan(&rec.CanonicalName, &rec.Name, &traits, &pages, &dialogs, &profile, &speaker); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		if err := json.Unmarshal([]byte(traits), &rec.Traits); err != nil {
			return nil, fmt.Errorf("decode traits of %q: %w", rec.Name, err)
		}
		if err := json.Unmarshal([]byte(pages), &rec.Pages); err != nil {
			return nil, fmt.Errorf("decode pages of %q: %w", rec.Name, err)
		}
		if err := json.Unmarshal([]byte(dialogs), &rec.Dialogs); err != nil {
			return nil, fmt.Errorf("decode dialogs of %q: %w", rec.Name, err)
		}
		if profile.Valid {
			rec.VoiceProfile = &voiceRecord{}
			if err := json.Unmarshal([]byte(profile.String), rec.VoiceProfile); err != nil {
				return nil, fmt.Errorf("decode voice profile of %q: %w", rec.Name, err)
			}
		}
		ch := rec.character()
		if speaker.Valid {
			id := int(speaker.Int64)
			ch.SpeakerID = &id
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// DeleteBook removes every chapter and character stored for bookID and
// returns the number of chapters removed.
func (s *Store) DeleteBook(ctx context.Context, bookID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chapters WHERE book_id = ?`, bookID)
	if err != nil {
		return 0, fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

const chapterColumns = `book_id, chapter_id, status, last_step, character_count, dialog_count, message, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanChapter(row scanner) (*Chapter, error) {
	var (
		ch       Chapter
		lastStep sql.NullString
		message  sql.NullString
		updated  string
	)
	if err := row.Scan(&ch.BookID, &ch.ChapterID, &ch.Status, &lastStep, &ch.CharacterCount, &ch.DialogCount, &message, &updated); err != nil {
		return nil, err
	}
	ch.LastStep = lastStep.String
	ch.Message = message.String
	if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		ch.UpdatedAt = ts
	}
	return &ch, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func dialogTotal(characters []*analysis.Character) int {
	n := 0
	for _, ch := range characters {
		n += len(ch.Dialogs)
	}
	return n
}
