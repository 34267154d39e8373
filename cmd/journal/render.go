package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ayush/travel-journal/backend/internal/models"
)

var (
	primary = lipgloss.Color("#2E86AB")
	muted   = lipgloss.Color("#888888")
	accent  = lipgloss.Color("#F6AE2D")

	titleStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Width(68)

	keyStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(12)

	summaryStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(accent)

	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3BB273"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F18F01"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84855"))
)

func row(key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(key), value)
}

func dates(j models.Journal) string {
	start, end := "", ""
	if j.StartDate != nil {
		start = j.StartDate.String()
	}
	if j.EndDate != nil {
		end = j.EndDate.String()
	}
	switch {
	case start != "" && end != "":
		return start + " → " + end
	case start != "":
		return "from " + start
	case end != "":
		return "until " + end
	}
	return ""
}

func stars(rating *int) string {
	if rating == nil || *rating <= 0 {
		return ""
	}
	n := min(*rating, 5)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func renderCard(j models.Journal) string {
	name := j.Name
	if name == "" {
		name = "(untitled)"
	}
	lines := []string{titleStyle.Render(name), mutedStyle.Render(j.ID)}

	add := func(key, value string) {
		if value != "" {
			lines = append(lines, row(key, value))
		}
	}
	add("where", strings.Join(j.Locations, ", "))
	add("when", dates(j))
	add("rating", stars(j.Rating))
	add("with", strings.Join(j.Companions, ", "))
	add("highlights", strings.Join(j.Highlights, "; "))
	add("tags", strings.Join(j.Tags, " "))
	add("notes", j.Summary)
	if j.AISummary != "" {
		lines = append(lines, "", summaryStyle.Render(j.AISummary))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func renderList(entries []models.Journal) string {
	if len(entries) == 0 {
		return mutedStyle.Render("no entries yet")
	}
	cards := make([]string, len(entries))
	for i, j := range entries {
		cards[i] = renderCard(j)
	}
	return strings.Join(cards, "\n")
}

func renderUser(u models.User) string {
	lines := []string{titleStyle.Render(u.Username), mutedStyle.Render(u.ID)}
	if u.FullName != "" {
		lines = append(lines, row("name", u.FullName))
	}
	if u.Email != nil {
		lines = append(lines, row("email", *u.Email))
	}
	if u.Status.IsPlaceholder() {
		lines = append(lines, warnStyle.Render("registration pending"))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func renderHistory(recs []models.SummaryRecord) string {
	if len(recs) == 0 {
		return mutedStyle.Render("no summaries recorded")
	}
	var b strings.Builder
	for _, r := range recs {
		head := fmt.Sprintf("%s  %s/%s", r.CreatedAt.Format("2006-01-02 15:04"), r.Provider, r.Model)
		b.WriteString(mutedStyle.Render(head))
		b.WriteString("\n")
		if r.Error != "" {
			b.WriteString(errorStyle.Render("  failed: " + r.Error))
		} else {
			b.WriteString(summaryStyle.Render("  " + r.Summary))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
