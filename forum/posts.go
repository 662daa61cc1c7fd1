// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package forum

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ask posts a question to the caller's institute.
func (s *Service) Ask(ctx context.Context, caller auth.Identity, req models.CreateQuestionRequest) (models.Question, error) {
	if !eligible(caller) {
		return models.Question{}, ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.Question{}, fmt.Errorf("%w: title is required", ErrInvalidPost)
	}

	q := models.Question{
		ID:        auth.GenerateID(),
		Institute: caller.Institute,
		AuthorID:  caller.UserID,
		Title:     title,
		Body:      strings.TrimSpace(req.Body),
		CreatedAt: s.clock(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question (id, institute, author_id, title, body, votes, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`, q.ID, q.Institute, q.AuthorID, q.Title, q.Body, q.CreatedAt)
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to insert question: %w", err)
	}

	slog.Info("question posted", "question_id", q.ID)
	return q, nil
}

// Answer posts an answer under a question of the caller's institute.
func (s *Service) Answer(ctx context.Context, caller auth.Identity, questionID string, req models.CreateAnswerRequest) (models.Answer, error) {
	if !eligible(caller) {
		return models.Answer{}, ErrForbidden
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return models.Answer{}, fmt.Errorf("%w: body is required", ErrInvalidPost)
	}

	if _, err := itemVotes(ctx, s.db, ItemRef{Kind: KindQuestion, ID: questionID}, caller.Institute); err != nil {
		return models.Answer{}, err
	}

	a := models.Answer{
		ID:         auth.GenerateID(),
		QuestionID: questionID,
		AuthorID:   caller.UserID,
		Body:       body,
		CreatedAt:  s.clock(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answer (id, question_id, author_id, body, votes, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, a.ID, a.QuestionID, a.AuthorID, a.Body, a.CreatedAt)
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed to insert answer: %w", err)
	}

	slog.Info("answer posted", "question_id", questionID, "answer_id", a.ID)
	return a, nil
}

// Thread returns a question and its answers, best first, each carrying the
// caller's own vote.
func (s *Service) Thread(ctx context.Context, caller auth.Identity, questionID string) (models.Question, []models.Answer, error) {
	var q models.Question
	err := s.db.QueryRowContext(ctx, `
		SELECT id, institute, author_id, title, body, votes, created_at
		FROM question
		WHERE id = $1 AND institute = $2
	`, questionID, caller.Institute).Scan(&q.ID, &q.Institute, &q.AuthorID, &q.Title, &q.Body, &q.Votes, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Question{}, nil, ErrItemNotFound
	}
	if err != nil {
		return models.Question{}, nil, fmt.Errorf("failed to query question: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, author_id, body, votes, created_at
		FROM answer
		WHERE question_id = $1
		ORDER BY votes DESC, created_at, id
	`, q.ID)
	if err != nil {
		return models.Question{}, nil, fmt.Errorf("failed to query answers: %w", err)
	}

	answers := []models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.AuthorID, &a.Body, &a.Votes, &a.CreatedAt); err != nil {
			rows.Close()
			return models.Question{}, nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return models.Question{}, nil, fmt.Errorf("failed to iterate answers: %w", err)
	}

	mine, err := s.userVotes(ctx, caller.UserID, q.ID)
	if err != nil {
		return models.Question{}, nil, err
	}
	q.UserVote = mine[ItemRef{Kind: KindQuestion, ID: q.ID}]
	for i := range answers {
		answers[i].UserVote = mine[ItemRef{Kind: KindAnswer, ID: answers[i].ID}]
	}

	return q, answers, nil
}

// userVotes returns the voter's directions on a question and its answers
func (s *Service) userVotes(ctx context.Context, voterID, questionID string) (map[ItemRef]string, error) {
	mine := make(map[ItemRef]string)
	if voterID == "" {
		return mine, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_kind, item_id, direction FROM item_vote
		WHERE voter_id = $1 AND (
			(item_kind = 'question' AND item_id = $2)
			OR (item_kind = 'answer' AND item_id IN (SELECT id FROM answer WHERE question_id = $2))
		)
	`, voterID, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, id, dir string
		if err := rows.Scan(&kind, &id, &dir); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		mine[ItemRef{Kind: Kind(kind), ID: id}] = dir
	}
	return mine, rows.Err()
}
