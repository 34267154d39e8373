package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ayush/travel-journal/backend/internal/common"
	"github.com/ayush/travel-journal/backend/internal/models"
	"github.com/ayush/travel-journal/backend/internal/respond"
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc      *Service
	sessions Sessions
	log      *zap.Logger
}

func NewHandler(svc *Service, sessions Sessions, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, sessions: sessions, log: log}
}

// needsRegistrationBody is the 409 payload for a login with an unknown
// username.
type needsRegistrationBody struct {
	Error    string       `json:"error"`
	Redirect string       `json:"redirect"`
	User     *models.User `json:"user"`
}

// writeError maps service errors onto status codes. Anything unexpected is
// logged and answered with an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrConflict):
		respond.Error(w, http.StatusBadRequest, "user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		respond.Error(w, http.StatusBadRequest, "invalid credentials")
	case errors.Is(err, common.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	default:
		h.log.Error("auth request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		respond.Internal(w)
	}
}

// Register creates a user or completes a placeholder's registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.startSession(w, r, user.ID)
	respond.JSON(w, http.StatusOK, user)
}

// Login authenticates a user and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.Outcome == OutcomeNeedsRegistration {
		respond.JSON(w, http.StatusConflict, needsRegistrationBody{
			Error:    "registration required",
			Redirect: res.Redirect,
			User:     res.User,
		})
		return
	}
	h.startSession(w, r, res.User.ID)
	respond.JSON(w, http.StatusOK, res.User)
}

// startSession sets the session cookie. The account operation has already
// succeeded, so a session failure is logged and the response goes out
// without a cookie.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID string) {
	if h.sessions == nil {
		return
	}
	sid, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		h.log.Warn("session create failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && h.sessions != nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.log.Warn("session delete failed", zap.Error(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	respond.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	if err := respond.Decode(r, &patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.svc.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}
