package store

import (
	"fmt"
	"time"

	"github.com/mockmate/mockmate/internal/model"
)

// Export builds the full JSON export document over all stored interviews,
// newest first.
func (s *Store) Export() (model.InterviewExport, error) {
	records, err := s.List("", model.SortByTimestamp)
	if err != nil {
		return model.InterviewExport{}, fmt.Errorf("list interviews: %w", err)
	}
	stats, err := s.Stats()
	if err != nil {
		return model.InterviewExport{}, fmt.Errorf("compute stats: %w", err)
	}

	return model.InterviewExport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Total:       len(records),
		Stats:       stats,
		Interviews:  records,
	}, nil
}
