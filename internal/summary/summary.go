// Package summary turns a journal entry into a short narrative using an
// external text-generation service.
package summary

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// SystemInstruction is sent with every generation request.
const SystemInstruction = "You are a travel writer. Write a short, positive travel summary " +
	"of the trip described by the user, in two to four sentences."

const (
	Temperature     = 0.7
	MaxOutputTokens = 200
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("summary generator: no API key configured")

// UpstreamError is a non-success response from the text-generation service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("summary generator: upstream returned %d: %s", e.Status, e.Body)
}

// Reason classifies a generation failure for storage and display. It never
// includes the upstream response body.
func Reason(err error) string {
	var upstream *UpstreamError
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &upstream):
		return "upstream_" + strconv.Itoa(upstream.Status)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "transport"
}

// Input is the subset of journal fields a summary is generated from.
type Input struct {
	Name        string
	Locations   []string
	StartDate   string
	EndDate     string
	UserSummary string
	Highlights  []string
	Companions  []string
}

// Generator produces a summary for an entry.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// Describer is implemented by generators that can name their backend. It is
// used when recording summary history.
type Describer interface {
	Provider() string
	Model() string
}

// BuildPrompt lists the non-empty fields of in, one per line, in a fixed
// order: title, locations, dates, companions, highlights, notes.
func BuildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("Summarize this trip:\n")

	if name := strings.TrimSpace(in.Name); name != "" {
		fmt.Fprintf(&b, "Title: %s\n", name)
	}
	if locs := compact(in.Locations); len(locs) > 0 {
		fmt.Fprintf(&b, "Locations: %s\n", strings.Join(locs, ", "))
	}
	if dates := dateRange(in.StartDate, in.EndDate); dates != "" {
		fmt.Fprintf(&b, "Dates: %s\n", dates)
	}
	if comps := compact(in.Companions); len(comps) > 0 {
		fmt.Fprintf(&b, "Companions: %s\n", strings.Join(comps, ", "))
	}
	if hl := compact(in.Highlights); len(hl) > 0 {
		fmt.Fprintf(&b, "Highlights: %s\n", strings.Join(hl, "; "))
	}
	if notes := strings.TrimSpace(in.UserSummary); notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", notes)
	}
	return strings.TrimRight(b.String(), "\n")
}

func dateRange(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start != "" && end != "":
		return start + " to " + end
	case start != "":
		return "from " + start
	case end != "":
		return "until " + end
	}
	return ""
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Disabled is the generator used when no provider is configured. Every call
// fails with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Generate(context.Context, Input) (string, error) { return "", ErrNotConfigured }
