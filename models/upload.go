package models

import (
	"time"
)

// CsvUpload is the provenance record for one ingested roster export.
// ParticipantCount is the size of the full participant set *after* the merge,
// not just this file's rows.
type CsvUpload struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	Filename         string    `gorm:"not null" json:"filename"`
	UploadDate       time.Time `gorm:"not null" json:"upload_date"`
	ReportDate       string    `gorm:"type:varchar(10);not null;index" json:"report_date"`
	ParticipantCount int       `json:"participant_count"`

	// Raw-file archive provenance. ArchivePath is the local copy written at
	// ingest time; ArchiveURL is set once the background worker pushes it to R2.
	ArchivePath string     `json:"-"`
	ArchiveURL  string     `gorm:"type:text" json:"archive_url,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
