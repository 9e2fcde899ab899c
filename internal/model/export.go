package model

// InterviewExport is the top-level JSON structure for interview result
// export.
type InterviewExport struct {
	GeneratedAt string            `json:"generated_at"`
	Total       int               `json:"total"`
	Stats       ReviewStats       `json:"stats"`
	Interviews  []InterviewRecord `json:"interviews"`
}
