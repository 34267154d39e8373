package journal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/ayush/travel-journal/backend/internal/common"
	"github.com/ayush/travel-journal/backend/internal/models"
	"github.com/ayush/travel-journal/backend/internal/summary"
)

// echoGen returns a summary naming the title and locations it was given.
type echoGen struct {
	mu    sync.Mutex
	err   error
	calls []summary.Input
}

func (g *echoGen) Provider() string { return "fake" }
func (g *echoGen) Model() string    { return "echo-1" }

func (g *echoGen) Generate(_ context.Context, in summary.Input) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, in)
	if g.err != nil {
		return "", g.err
	}
	return "A trip called " + in.Name + " to [" + strings.Join(in.Locations, ", ") + "]", nil
}

func (g *echoGen) last() summary.Input {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

type memHistory struct {
	mu   sync.Mutex
	recs []models.SummaryRecord
	err  error
}

func (h *memHistory) Record(_ context.Context, rec *models.SummaryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.recs = append(h.recs, *rec)
	return nil
}

func (h *memHistory) ListByJournal(_ context.Context, id string) ([]models.SummaryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []models.SummaryRecord{}
	for i := len(h.recs) - 1; i >= 0; i-- {
		if h.recs[i].JournalID == id {
			out = append(out, h.recs[i])
		}
	}
	return out, nil
}

type memObject struct {
	data        []byte
	contentType string
}

type memCovers struct {
	mu      sync.Mutex
	objects map[string]memObject
	removed []string
}

func newMemCovers() *memCovers { return &memCovers{objects: map[string]memObject{}} }

func (c *memCovers) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (c *memCovers) Get(_ context.Context, key string) (io.ReadCloser, string, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[key]
	if !ok {
		return nil, "", 0, common.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, int64(len(obj.data)), nil
}

func (c *memCovers) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[key]; !ok {
		return errors.New("no such object")
	}
	delete(c.objects, key)
	c.removed = append(c.removed, key)
	return nil
}
