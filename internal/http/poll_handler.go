package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pollguard/internal/platform/apperr"
)

type pollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type tokenResponse struct {
	Token string `json:"csrf_token"`
}

// @Summary     Issue anti-forgery token
// @Description Returns the token the next state-changing request must send in X-CSRF-Token.
// @Tags        csrf
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  tokenResponse
// @Router      /csrf [get]
func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.polls.IssueToken(r.Context())
	if err != nil {
		errorResponse(w, err)
		return
	}
	setNextToken(w, token)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// @Summary     Create poll
// @Tags        polls
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       X-CSRF-Token  header    string       true  "Anti-forgery token"
// @Param       request       body      pollRequest  true  "Poll"
// @Success     201           {object}  poll.Poll
// @Failure     400           {object}  apperr.AppError  "invalid poll"
// @Failure     401           {object}  apperr.AppError  "unauthorized"
// @Failure     403           {object}  apperr.AppError  "anti-forgery token rejected"
// @Router      /polls [post]
func (h *Handler) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	p, next, err := h.polls.CreatePoll(r.Context(), req.Question, req.Options, r.Header.Get(csrfHeader))
	setNextToken(w, next)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// @Summary     List own polls
// @Tags        polls
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}   poll.Poll
// @Failure     401  {object}  apperr.AppError  "unauthorized"
// @Router      /polls/mine [get]
func (h *Handler) handleListMyPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls.ListMyPolls(r.Context())
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, polls)
}

// @Summary     Get poll
// @Tags        polls
// @Produce     json
// @Param       id   path      string  true  "Poll ID"
// @Success     200  {object}  poll.Poll
// @Failure     400  {object}  apperr.AppError  "malformed id"
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /polls/{id} [get]
func (h *Handler) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	p, err := h.polls.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary     Update poll
// @Description Replaces question and option texts. The number of options cannot change.
// @Tags        polls
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id            path      string       true  "Poll ID"
// @Param       X-CSRF-Token  header    string       true  "Anti-forgery token"
// @Param       request       body      pollRequest  true  "Poll"
// @Success     200           {object}  poll.Poll
// @Failure     400           {object}  apperr.AppError  "invalid poll"
// @Failure     403           {object}  apperr.AppError  "anti-forgery token rejected"
// @Failure     404           {object}  apperr.AppError  "not found"
// @Router      /polls/{id} [put]
func (h *Handler) handleUpdatePoll(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	p, next, err := h.polls.UpdatePoll(r.Context(), chi.URLParam(r, "id"), req.Question, req.Options, r.Header.Get(csrfHeader))
	setNextToken(w, next)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary     Delete poll
// @Tags        polls
// @Security    BearerAuth
// @Param       id            path    string  true  "Poll ID"
// @Param       X-CSRF-Token  header  string  true  "Anti-forgery token"
// @Success     204
// @Failure     403  {object}  apperr.AppError  "anti-forgery token rejected"
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /polls/{id} [delete]
func (h *Handler) handleDeletePoll(w http.ResponseWriter, r *http.Request) {
	next, err := h.polls.DeletePoll(r.Context(), chi.URLParam(r, "id"), r.Header.Get(csrfHeader))
	setNextToken(w, next)
	if err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
