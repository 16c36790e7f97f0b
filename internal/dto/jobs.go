package dto

// HistoryBackfillResult summarises a notes history backfill.
type HistoryBackfillResult struct {
	NotesRows       int `json:"notesRows"`
	RetestNotesRows int `json:"retestNotesRows"`
	Skipped         int `json:"skipped"`
}

// DataMigrationResult summarises a per-row data migration job.
type DataMigrationResult struct {
	Examined int `json:"examined"`
	Updated  int `json:"updated"`
	Failures int `json:"failures"`
}
