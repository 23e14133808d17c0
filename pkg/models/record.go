package models

import (
	"time"

	"github.com/google/uuid"
)

// FileType classifies an uploaded file within a project.
type FileType string

const (
	FileTypeRIS         FileType = "ris"
	FileTypeProtocol    FileType = "protocol"
	FileTypeFulltextPDF FileType = "fulltext_pdf"
)

// File is an uploaded artifact belonging to a project. Records reach their
// project through their owning file.
type File struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Type      FileType  `json:"type"`
	Path      string    `json:"path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one bibliographic item. Its bibliographic fields are set at
// import time and are read-only input to the screening engine.
type Record struct {
	ID         uuid.UUID `json:"id"`
	FileID     uuid.UUID `json:"file_id"`
	OrderIndex *int      `json:"order_index,omitempty"`

	Title    string `json:"title,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	Year     *int   `json:"year,omitempty"`
	Language string `json:"language,omitempty"`

	SampleSize *int   `json:"sample_size,omitempty"`
	DOI        string `json:"doi,omitempty"`
	Journal    string `json:"journal,omitempty"`
	Authors    string `json:"authors,omitempty"`

	MetadataQuality *float64 `json:"metadata_quality,omitempty"`
}
