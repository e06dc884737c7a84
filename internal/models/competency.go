package models

import "time"

// CompetencyCategory splits the scoring criteria into the two certificate
// sections.
type CompetencyCategory string

const (
	CategoryPersonality CompetencyCategory = "personality"
	CategoryTechnical   CompetencyCategory = "technical"
)

// TrackAll is the sentinel track meaning the template applies to every track.
// Personality templates are seeded with it.
const TrackAll = "*"

// CompetencyTemplate is an immutable scoring criterion from the catalog.
type CompetencyTemplate struct {
	ID        string             `db:"id" json:"id"`
	Name      string             `db:"name" json:"name"`
	Category  CompetencyCategory `db:"category" json:"category"`
	Track     string             `db:"track" json:"track"`
	Position  int                `db:"position" json:"position"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// CompetencyCatalog groups the templates a report for a given track is
// scored against.
type CompetencyCatalog struct {
	Track       string               `json:"track"`
	Personality []CompetencyTemplate `json:"personality"`
	Technical   []CompetencyTemplate `json:"technical"`
}
