// Package client is a Go client for the journal API together with the
// local mirror that keeps a copy of the server's journal collection.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/ayush/travel-journal/backend/internal/models"
)

// DefaultTimeout covers a create that waits on summary generation.
const DefaultTimeout = 90 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// LoginResult is the outcome of Login. NeedsRegistration is set when the
// server answered 409 for an unknown username.
type LoginResult struct {
	User              *models.User
	NeedsRegistration bool
	Redirect          string
}

// API calls the journal backend over HTTP.
type API struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient gets a default one
// with a cookie jar so the session cookie is kept between calls.
func New(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Timeout: DefaultTimeout, Jar: jar}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (a *API) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends the request and decodes a 2xx body into out.
func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	req, err := a.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func checkResp(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// ─── Auth ────────────────────────────────────────────────────

func (a *API) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var u models.User
	if err := a.do(ctx, http.MethodPost, "/api/auth/register", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login signs in. A 409 is returned as a LoginResult with
// NeedsRegistration set, not as an error.
func (a *API) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	httpReq, err := a.newRequest(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return nil, err
	}
	resp, err := a.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		var body struct {
			Redirect string       `json:"redirect"`
			User     *models.User `json:"user"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode login: %w", err)
		}
		return &LoginResult{User: body.User, NeedsRegistration: true, Redirect: body.Redirect}, nil
	}
	if err := checkResp(resp); err != nil {
		return nil, err
	}
	var u models.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	return &LoginResult{User: &u}, nil
}

func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (a *API) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := a.do(ctx, http.MethodGet, "/api/auth/user/"+id, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) UpdateUser(ctx context.Context, id string, p models.UserPatch) (*models.User, error) {
	var u models.User
	if err := a.do(ctx, http.MethodPut, "/api/auth/user/"+id, p, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ─── Journals ────────────────────────────────────────────────

// ErrEmptyResponse is returned when a successful response carries no row.
var ErrEmptyResponse = errors.New("client: response has no journal")

type journalEnvelope struct {
	Journal *models.Journal `json:"journal"`
}

func (e journalEnvelope) journal() (*models.Journal, error) {
	if e.Journal == nil {
		return nil, ErrEmptyResponse
	}
	return e.Journal, nil
}

func (a *API) ListJournals(ctx context.Context) ([]models.Journal, error) {
	var body struct {
		Journals []models.Journal `json:"journals"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/journals", nil, &body); err != nil {
		return nil, err
	}
	return body.Journals, nil
}

func (a *API) GetJournal(ctx context.Context, id string) (*models.Journal, error) {
	var body journalEnvelope
	if err := a.do(ctx, http.MethodGet, "/api/journals/"+id, nil, &body); err != nil {
		return nil, err
	}
	return body.journal()
}

func (a *API) CreateJournal(ctx context.Context, in models.JournalInput) (*models.Journal, error) {
	var body journalEnvelope
	if err := a.do(ctx, http.MethodPost, "/api/journals", in, &body); err != nil {
		return nil, err
	}
	return body.journal()
}

func (a *API) UpdateJournal(ctx context.Context, id string, req models.UpdateJournalRequest) (*models.Journal, error) {
	var body journalEnvelope
	if err := a.do(ctx, http.MethodPut, "/api/journals/"+id, req, &body); err != nil {
		return nil, err
	}
	return body.journal()
}

func (a *API) DeleteJournal(ctx context.Context, id string) (*models.Journal, error) {
	var body journalEnvelope
	if err := a.do(ctx, http.MethodDelete, "/api/journals/"+id, nil, &body); err != nil {
		return nil, err
	}
	return body.journal()
}

func (a *API) Summaries(ctx context.Context, id string) ([]models.SummaryRecord, error) {
	var body struct {
		Summaries []models.SummaryRecord `json:"summaries"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/journals/"+id+"/summaries", nil, &body); err != nil {
		return nil, err
	}
	return body.Summaries, nil
}

// Summarize asks the server for a summary of an unsaved entry.
func (a *API) Summarize(ctx context.Context, in models.JournalInput) (string, error) {
	var body struct {
		AISummary string `json:"aiSummary"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/summarize", in, &body); err != nil {
		return "", err
	}
	return body.AISummary, nil
}
