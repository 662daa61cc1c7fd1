// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/forum"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
)

type ForumHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	svc *forum.Service
}

func NewForumHandler(db *sql.DB, cfg cliparse.Config) *ForumHandler {
	return &ForumHandler{db: db, cfg: cfg, svc: forum.NewService(db)}
}

// UpvoteQuestion handles POST /forum/upvote-question
func (h *ForumHandler) UpvoteQuestion(w http.ResponseWriter, r *http.Request) {
	h.setVote(w, r, forum.KindQuestion, forum.Up)
}

// DownvoteQuestion handles POST /forum/downvote-question
func (h *ForumHandler) DownvoteQuestion(w http.ResponseWriter, r *http.Request) {
	h.setVote(w, r, forum.KindQuestion, forum.Down)
}

// UpvoteAnswer handles POST /forum/upvote-answer
func (h *ForumHandler) UpvoteAnswer(w http.ResponseWriter, r *http.Request) {
	h.setVote(w, r, forum.KindAnswer, forum.Up)
}

// DownvoteAnswer handles POST /forum/downvote-answer
func (h *ForumHandler) DownvoteAnswer(w http.ResponseWriter, r *http.Request) {
	h.setVote(w, r, forum.KindAnswer, forum.Down)
}

func (h *ForumHandler) setVote(w http.ResponseWriter, r *http.Request, kind forum.Kind, d forum.Direction) {
	var req models.ForumVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	id := req.QuestionID
	if kind == forum.KindAnswer {
		id = req.AnswerID
	}
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, string(kind)+"Id is required")
		return
	}

	// Anonymous callers reach the service and are refused there with 403
	caller := middleware.IdentityFrom(r.Context())

	v, err := h.svc.SetVote(r.Context(), caller, forum.ItemRef{Kind: kind, ID: id}, d)
	if err != nil {
		writeError(w, err, "set forum vote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ForumVoteResponse{
		Votes:    v.Votes,
		UserVote: string(v.UserVote),
	})
}

// CreateQuestion handles POST /forum/questions
func (h *ForumHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	q, err := h.svc.Ask(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		writeError(w, err, "create question")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.QuestionResponse{Question: q})
}

// CreateAnswer handles POST /forum/questions/{id}/answers
func (h *ForumHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	a, err := h.svc.Answer(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeError(w, err, "create answer")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.AnswerResponse{Answer: a})
}

// GetThread handles GET /forum/questions/{id}
func (h *ForumHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	q, answers, err := h.svc.Thread(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "get thread")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ThreadResponse{Question: q, Answers: answers})
}
