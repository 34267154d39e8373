package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/travel-journal/backend/internal/auth"
	"github.com/ayush/travel-journal/backend/internal/journal"
	"github.com/ayush/travel-journal/backend/internal/models"
	"github.com/ayush/travel-journal/backend/internal/server"
	"github.com/ayush/travel-journal/backend/internal/store"
	"github.com/ayush/travel-journal/backend/internal/summary"
)

type staticGen struct{ text string }

func (g staticGen) Generate(context.Context, summary.Input) (string, error) { return g.text, nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemoryStore()
	srv := httptest.NewServer(server.NewRouter(server.Deps{
		Auth:     auth.NewHandler(auth.NewService(mem, nil), nil, nil),
		Journals: journal.NewHandler(journal.NewService(mem, staticGen{text: "Sunny days."}, nil, nil, nil), nil),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAPI_JournalRoundTrip(t *testing.T) {
	api := New(newTestServer(t).URL, nil)
	ctx := context.Background()

	start, err := models.ParseDate("2025-05-01")
	require.NoError(t, err)
	j, err := api.CreateJournal(ctx, models.JournalInput{
		Name:      "Lisbon Week",
		Locations: []string{"Lisbon"},
		StartDate: &start,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sunny days.", j.AISummary)
	require.NotNil(t, j.StartDate)
	assert.Equal(t, "2025-05-01", j.StartDate.String())
	assert.Nil(t, j.EndDate)

	got, err := api.UpdateJournal(ctx, j.ID, models.UpdateJournalRequest{
		JournalPatch: models.JournalPatch{StartDate: models.Some[*models.Date](nil)},
	})
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Equal(t, "Lisbon Week", got.Name)

	list, err := api.ListJournals(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = api.GetJournal(ctx, "missing")
	assert.True(t, IsNotFound(err))

	deleted, err := api.DeleteJournal(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, deleted.ID)

	text, err := api.Summarize(ctx, models.JournalInput{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Sunny days.", text)

	recs, err := api.Summaries(ctx, j.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAPI_LoginFlow(t *testing.T) {
	api := New(newTestServer(t).URL, nil)
	ctx := context.Background()

	res, err := api.Login(ctx, models.LoginRequest{Username: "newbie", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, res.NeedsRegistration)
	assert.Equal(t, "/register", res.Redirect)
	require.NotNil(t, res.User)
	assert.True(t, res.User.Status.IsPlaceholder())

	_, err = api.Login(ctx, models.LoginRequest{Username: "newbie", Password: "pw"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)

	u, err := api.Register(ctx, models.RegisterRequest{
		Username: "newbie", Password: "pw2", Email: "n@example.com", FullName: "New Bie",
	})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, u.ID)
	assert.Equal(t, models.StatusRegistered, u.Status)

	res, err = api.Login(ctx, models.LoginRequest{Username: "newbie", Password: "pw2"})
	require.NoError(t, err)
	assert.False(t, res.NeedsRegistration)

	u, err = api.UpdateUser(ctx, u.ID, models.UserPatch{Bio: models.Some("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hi", u.Bio)

	u, err = api.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Bie", u.FullName)

	require.NoError(t, api.Logout(ctx))
}

func TestCheckResp_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).ListJournals(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "gateway exploded", apiErr.Message)
}
