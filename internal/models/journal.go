package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCoverImage is used when an entry is created without a cover.
const DefaultCoverImage = "/placeholder.svg"

// Journal is a single trip entry stored in the journals table.
type Journal struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Locations  []string  `json:"locations"`
	StartDate  *Date     `json:"start_date"`
	EndDate    *Date     `json:"end_date"`
	Summary    string    `json:"summary"`
	AISummary  string    `json:"ai_summary"`
	CoverImage string    `json:"cover_image"`
	CoverKey   string    `json:"-"` // object key of an uploaded cover
	Rating     *int      `json:"rating"`
	Companions []string  `json:"companions"`
	Highlights []string  `json:"highlights"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Normalize replaces nil slices with empty ones so they encode as [].
func (j *Journal) Normalize() {
	j.Locations = nonNil(j.Locations)
	j.Companions = nonNil(j.Companions)
	j.Highlights = nonNil(j.Highlights)
	j.Tags = nonNil(j.Tags)
	j.StartDate = DatePtr(j.StartDate)
	j.EndDate = DatePtr(j.EndDate)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// JournalInput is the JSON body for POST /api/journals.
type JournalInput struct {
	Name       string   `json:"name"`
	Locations  []string `json:"locations"`
	StartDate  *Date    `json:"startDate"`
	EndDate    *Date    `json:"endDate"`
	Summary    string   `json:"summary"`
	CoverImage string   `json:"coverImage"`
	Rating     *int     `json:"rating"`
	Companions []string `json:"companions"`
	Highlights []string `json:"highlights"`
	Tags       []string `json:"tags"`
}

// JournalPatch carries the fields of a partial journal update. AISummary and
// the cover key are written by the server only and never decoded from a
// request.
type JournalPatch struct {
	Name       Optional[string]   `json:"name,omitzero"`
	Locations  Optional[[]string] `json:"locations,omitzero"`
	StartDate  Optional[*Date]    `json:"startDate,omitzero"`
	EndDate    Optional[*Date]    `json:"endDate,omitzero"`
	Summary    Optional[string]   `json:"summary,omitzero"`
	CoverImage Optional[string]   `json:"coverImage,omitzero"`
	Rating     Optional[*int]     `json:"rating,omitzero"`
	Companions Optional[[]string] `json:"companions,omitzero"`
	Highlights Optional[[]string] `json:"highlights,omitzero"`
	Tags       Optional[[]string] `json:"tags,omitzero"`

	AISummary Optional[string] `json:"-"`
	CoverKey  Optional[string] `json:"-"`
}

// UpdateJournalRequest is the JSON body for PUT /api/journals/{id}.
type UpdateJournalRequest struct {
	JournalPatch
	RegenerateAI bool `json:"regenerateAI,omitempty"`
}

// SummaryRecord is one summary generation attempt stored in MongoDB.
type SummaryRecord struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	JournalID string             `json:"journal_id" bson:"journal_id"`
	Provider  string             `json:"provider"   bson:"provider"`
	Model     string             `json:"model"      bson:"model"`
	Prompt    string             `json:"prompt"     bson:"prompt"`
	Summary   string             `json:"summary"    bson:"summary"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
