package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mockmate/mockmate/internal/model"
)

// SaveSession upserts the single active session snapshot. Called on every
// session mutation so a crashed or restarted process can rehydrate.
func (s *Store) SaveSession(state model.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO session_state (id, data) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET data = ?`,
		string(data), string(data),
	)
	return err
}

// LoadSession returns the last saved session snapshot, or nil when none
// was ever saved.
func (s *Store) LoadSession() (*model.SessionState, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM session_state WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state model.SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &state, nil
}

// GetCategories returns the cached question categories for a resume text
// prefix key.
func (s *Store) GetCategories(key string) (model.QuestionCategories, bool, error) {
	var cats model.QuestionCategories
	var data string
	err := s.db.QueryRow(`SELECT categories FROM question_cache WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return cats, false, nil
	}
	if err != nil {
		return cats, false, err
	}
	if err := json.Unmarshal([]byte(data), &cats); err != nil {
		return cats, false, fmt.Errorf("unmarshal cached categories: %w", err)
	}
	return cats, true, nil
}

// PutCategories caches question categories under a resume text prefix key.
func (s *Store) PutCategories(key string, cats model.QuestionCategories) error {
	data, err := json.Marshal(cats)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO question_cache (key, categories) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET categories = ?`,
		key, string(data), string(data),
	)
	return err
}
