// Package journal implements the journal entry lifecycle: create, list,
// partial update, delete, summary generation and cover images.
package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ayush/travel-journal/backend/internal/common"
	"github.com/ayush/travel-journal/backend/internal/models"
	"github.com/ayush/travel-journal/backend/internal/summary"
)

// Store defines the interface for journal persistence.
type Store interface {
	CreateJournal(ctx context.Context, j *models.Journal) (*models.Journal, error)
	ListJournals(ctx context.Context) ([]models.Journal, error)
	GetJournal(ctx context.Context, id string) (*models.Journal, error)
	UpdateJournal(ctx context.Context, id string, p models.JournalPatch) (*models.Journal, error)
	DeleteJournal(ctx context.Context, id string) (*models.Journal, error)
}

// History records summary generation attempts.
type History interface {
	Record(ctx context.Context, rec *models.SummaryRecord) error
	ListByJournal(ctx context.Context, journalID string) ([]models.SummaryRecord, error)
}

// CoverStore defines the interface for cover image storage.
type CoverStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, int64, error)
	Remove(ctx context.Context, key string) error
}

// Service orchestrates the journal store, the summary generator and the
// auxiliary stores. History is optional.
type Service struct {
	store   Store
	gen     summary.Generator
	history History
	covers  CoverStore
	log     *zap.Logger
}

func NewService(store Store, gen summary.Generator, history History, covers CoverStore, log *zap.Logger) *Service {
	if gen == nil {
		gen = summary.Disabled{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, gen: gen, history: history, covers: covers, log: log}
}

func coverKey(journalID string) string { return "covers/" + journalID }

// CoverURL is the public path a stored cover is served from.
func CoverURL(journalID string) string { return "/api/journals/" + journalID + "/cover" }

func dateString(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func inputFromEntry(in models.JournalInput) summary.Input {
	return summary.Input{
		Name:        in.Name,
		Locations:   in.Locations,
		StartDate:   dateString(in.StartDate),
		EndDate:     dateString(in.EndDate),
		UserSummary: in.Summary,
		Highlights:  in.Highlights,
		Companions:  in.Companions,
	}
}

// inputFromPatch uses only the fields present in the patch. Stored values of
// the other fields do not contribute to the prompt.
func inputFromPatch(p models.JournalPatch) summary.Input {
	start, _ := p.StartDate.Get()
	end, _ := p.EndDate.Get()
	return summary.Input{
		Name:        p.Name.OrElse(""),
		Locations:   p.Locations.OrElse(nil),
		StartDate:   dateString(start),
		EndDate:     dateString(end),
		UserSummary: p.Summary.OrElse(""),
		Highlights:  p.Highlights.OrElse(nil),
		Companions:  p.Companions.OrElse(nil),
	}
}

// generate runs the generator. A failure is logged and yields "", so the
// caller's write always goes ahead.
func (s *Service) generate(ctx context.Context, in summary.Input) (string, *models.SummaryRecord) {
	rec := &models.SummaryRecord{Prompt: summary.BuildPrompt(in)}
	if d, ok := s.gen.(summary.Describer); ok {
		rec.Provider, rec.Model = d.Provider(), d.Model()
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, in)
	if err != nil {
		rec.Error = summary.Reason(err)
		s.log.Warn("summary generation failed, storing empty summary",
			zap.String("reason", rec.Error), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", rec
	}
	rec.Summary = text
	return text, rec
}

func (s *Service) record(ctx context.Context, journalID string, rec *models.SummaryRecord) {
	if s.history == nil || rec == nil {
		return
	}
	rec.JournalID = journalID
	rec.CreatedAt = time.Now().UTC()
	if err := s.history.Record(ctx, rec); err != nil {
		s.log.Warn("summary history write failed", zap.String("journal_id", journalID), zap.Error(err))
	}
}

// Create generates a summary from the full input and stores the entry.
func (s *Service) Create(ctx context.Context, in models.JournalInput) (*models.Journal, error) {
	aiSummary, rec := s.generate(ctx, inputFromEntry(in))

	cover := in.CoverImage
	if cover == "" {
		cover = models.DefaultCoverImage
	}
	j, err := s.store.CreateJournal(ctx, &models.Journal{
		Name:       in.Name,
		Locations:  in.Locations,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Summary:    in.Summary,
		AISummary:  aiSummary,
		CoverImage: cover,
		Rating:     in.Rating,
		Companions: in.Companions,
		Highlights: in.Highlights,
		Tags:       in.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	s.record(ctx, j.ID, rec)
	s.log.Info("journal created", zap.String("journal_id", j.ID), zap.Bool("ai_summary", aiSummary != ""))
	return j, nil
}

func (s *Service) List(ctx context.Context) ([]models.Journal, error) {
	journals, err := s.store.ListJournals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	return journals, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Journal, error) {
	j, err := s.store.GetJournal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get journal %s: %w", id, err)
	}
	return j, nil
}

// Update writes the set fields of p. With regenerate, the summary is rebuilt
// from the fields in p alone and replaces the stored one.
func (s *Service) Update(ctx context.Context, id string, p models.JournalPatch, regenerate bool) (*models.Journal, error) {
	// Server-owned columns are never taken from the caller.
	p.AISummary = models.Optional[string]{}
	p.CoverKey = models.Optional[string]{}

	var rec *models.SummaryRecord
	if regenerate {
		var text string
		text, rec = s.generate(ctx, inputFromPatch(p))
		p.AISummary = models.Some(text)
	}

	j, err := s.store.UpdateJournal(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("update journal %s: %w", id, err)
	}
	s.record(ctx, j.ID, rec)
	return j, nil
}

// Delete removes the entry and returns the deleted snapshot. An uploaded
// cover is removed afterwards; failing to remove it does not fail the call.
func (s *Service) Delete(ctx context.Context, id string) (*models.Journal, error) {
	j, err := s.store.DeleteJournal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete journal %s: %w", id, err)
	}
	if j.CoverKey != "" && s.covers != nil {
		if err := s.covers.Remove(ctx, j.CoverKey); err != nil {
			s.log.Warn("cover remove failed", zap.String("key", j.CoverKey), zap.Error(err))
		}
	}
	return j, nil
}

// Summarize runs the generator without storing anything. Unlike Create and
// Update, errors are returned to the caller.
func (s *Service) Summarize(ctx context.Context, in summary.Input) (string, error) {
	text, err := s.gen.Generate(ctx, in)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return text, nil
}

// Summaries lists the recorded generation attempts for an entry.
func (s *Service) Summaries(ctx context.Context, id string) ([]models.SummaryRecord, error) {
	if s.history == nil {
		return []models.SummaryRecord{}, nil
	}
	recs, err := s.history.ListByJournal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list summaries %s: %w", id, err)
	}
	return recs, nil
}

// ErrCoversDisabled is returned when no cover store is configured.
var ErrCoversDisabled = errors.New("cover storage is not configured")

// SetCover uploads an image and points the entry's cover at it.
func (s *Service) SetCover(ctx context.Context, id string, r io.Reader, size int64, contentType string) (*models.Journal, error) {
	if s.covers == nil {
		return nil, ErrCoversDisabled
	}
	if _, err := s.store.GetJournal(ctx, id); err != nil {
		return nil, fmt.Errorf("set cover %s: %w", id, err)
	}

	key := coverKey(id)
	if err := s.covers.Put(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("set cover %s: %w", id, err)
	}
	j, err := s.store.UpdateJournal(ctx, id, models.JournalPatch{
		CoverImage: models.Some(CoverURL(id)),
		CoverKey:   models.Some(key),
	})
	if err != nil {
		return nil, fmt.Errorf("set cover %s: %w", id, err)
	}
	return j, nil
}

// Cover opens the uploaded cover of an entry. The caller closes the reader.
func (s *Service) Cover(ctx context.Context, id string) (io.ReadCloser, string, int64, error) {
	if s.covers == nil {
		return nil, "", 0, ErrCoversDisabled
	}
	j, err := s.store.GetJournal(ctx, id)
	if err != nil {
		return nil, "", 0, fmt.Errorf("get cover %s: %w", id, err)
	}
	if j.CoverKey == "" {
		return nil, "", 0, fmt.Errorf("get cover %s: %w", id, common.ErrNotFound)
	}
	return s.covers.Get(ctx, j.CoverKey)
}
