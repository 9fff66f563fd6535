package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pollguard/internal/platform/apperr"
	"pollguard/internal/validation"
	"pollguard/internal/worker"
)

type voteRequest struct {
	OptionIndex json.Number `json:"option_index"`
}

// @Summary     Vote for an option
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id            path      string       true  "Poll ID"
// @Param       X-CSRF-Token  header    string       true  "Anti-forgery token"
// @Param       request       body      voteRequest  true  "Vote payload"
// @Success     201           {object}  vote.Vote
// @Failure     400           {object}  apperr.AppError  "invalid option"
// @Failure     401           {object}  apperr.AppError  "unauthorized"
// @Failure     403           {object}  apperr.AppError  "anti-forgery token rejected"
// @Failure     404           {object}  apperr.AppError  "not found"
// @Failure     409           {object}  apperr.AppError  "already voted"
// @Failure     429           {object}  apperr.AppError  "rate limited"
// @Router      /polls/{id}/votes [post]
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	idx, err := validation.OptionIndex(req.OptionIndex.String())
	if err != nil {
		errorResponse(w, err)
		return
	}

	v, next, err := h.polls.CastVote(r.Context(), chi.URLParam(r, "id"), idx, r.Header.Get(csrfHeader))
	setNextToken(w, next)
	if err != nil {
		errorResponse(w, err)
		return
	}

	select {
	case h.voteCh <- worker.VoteEvent{PollID: v.PollID, OptionIndex: v.OptionIndex, Anonymous: v.VoterID == nil}:
	default:
	}

	writeJSON(w, http.StatusCreated, v)
}

// @Summary     Poll results
// @Description Counts are recomputed from recorded votes on every request.
// @Tags        votes
// @Produce     json
// @Param       id   path      string  true  "Poll ID"
// @Success     200  {object}  vote.Tally
// @Failure     400  {object}  apperr.AppError  "malformed id"
// @Failure     404  {object}  apperr.AppError  "not found"
// @Router      /polls/{id}/results [get]
func (h *Handler) handlePollResults(w http.ResponseWriter, r *http.Request) {
	t, err := h.polls.GetResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
