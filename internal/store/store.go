package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mockmate/mockmate/internal/model"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		resume_text TEXT NOT NULL DEFAULT '',
		answers TEXT NOT NULL DEFAULT '{}',
		score INTEGER NOT NULL DEFAULT 0,
		summary TEXT NOT NULL DEFAULT '',
		judged_answers TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS session_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS question_cache (
		key TEXT PRIMARY KEY,
		categories TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores a completed interview record, stamping a fresh unique id
// and timestamp. The stored record is returned. Records are immutable once
// appended.
func (s *Store) Append(rec model.InterviewRecord) (model.InterviewRecord, error) {
	rec.ID = uuid.NewString()
	rec.Timestamp = time.Now().UTC()

	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return rec, fmt.Errorf("marshal answers: %w", err)
	}
	judged, err := json.Marshal(rec.JudgedAnswers)
	if err != nil {
		return rec, fmt.Errorf("marshal judged answers: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO interviews (id, created_at, name, email, phone, resume_text, answers, score, summary, judged_answers)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.Format(time.RFC3339Nano),
		rec.Details.Name, rec.Details.Email, rec.Details.Phone, rec.Details.ResumeText,
		string(answers), rec.Score, rec.Summary, string(judged),
	)
	if err != nil {
		return rec, fmt.Errorf("insert interview: %w", err)
	}
	return rec, nil
}

// List returns interview records matching the name filter (case-insensitive
// substring, empty matches all), ordered by the sort key. Name sorts
// ascending; timestamp and score sort descending, newest/best first.
func (s *Store) List(nameFilter string, sortBy model.SortKey) ([]model.InterviewRecord, error) {
	order := "created_at DESC"
	switch sortBy {
	case model.SortByName:
		order = "LOWER(name) ASC"
	case model.SortByScore:
		order = "score DESC"
	case model.SortByTimestamp, "":
		order = "created_at DESC"
	}

	query := `SELECT id, created_at, name, email, phone, resume_text, answers, score, summary, judged_answers
		 FROM interviews`
	var args []any
	if nameFilter != "" {
		query += ` WHERE LOWER(name) LIKE ?`
		args = append(args, "%"+strings.ToLower(nameFilter)+"%")
	}
	query += ` ORDER BY ` + order

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.InterviewRecord
	for rows.Next() {
		rec, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one record by id, or nil when it does not exist.
func (s *Store) Get(id string) (*model.InterviewRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, name, email, phone, resume_text, answers, score, summary, judged_answers
		 FROM interviews WHERE id = ?`, id,
	)
	rec, err := scanInterview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Clear deletes every interview record.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM interviews`)
	return err
}

// Retain deletes every interview record except the named one.
func (s *Store) Retain(id string) error {
	_, err := s.db.Exec(`DELETE FROM interviews WHERE id != ?`, id)
	return err
}

// Stats returns derived statistics over all stored interviews.
func (s *Store) Stats() (model.ReviewStats, error) {
	var stats model.ReviewStats
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(MAX(score), 0) FROM interviews`,
	).Scan(&stats.Total, &stats.AverageScore, &stats.HighestScore)
	return stats, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (model.InterviewRecord, error) {
	var rec model.InterviewRecord
	var createdAt, answers, judged string
	err := row.Scan(&rec.ID, &createdAt,
		&rec.Details.Name, &rec.Details.Email, &rec.Details.Phone, &rec.Details.ResumeText,
		&answers, &rec.Score, &rec.Summary, &judged)
	if err != nil {
		return rec, err
	}

	rec.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return rec, fmt.Errorf("parse timestamp: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
		return rec, fmt.Errorf("unmarshal answers: %w", err)
	}
	if err := json.Unmarshal([]byte(judged), &rec.JudgedAnswers); err != nil {
		return rec, fmt.Errorf("unmarshal judged answers: %w", err)
	}
	return rec, nil
}
