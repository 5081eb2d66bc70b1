// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielhkuo/riot-network/auth"
	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
)

type TriviaHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewTriviaHandler(db *sql.DB, cfg cliparse.Config) *TriviaHandler {
	return &TriviaHandler{db: db, cfg: cfg}
}

// GetQuestion handles GET /trivia/question. The correct option never leaves
// the server. The answer window starts the first time a fan is shown the
// question; questions whose window already ran out are skipped.
func (h *TriviaHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var q models.TriviaQuestion
	err := h.db.QueryRowContext(r.Context(), `
		SELECT q.id, q.question, q.option_a, q.option_b, q.option_c, q.option_d, q.coin_reward
		FROM trivia_questions q
		WHERE q.is_active = true
		  AND NOT EXISTS (
			SELECT 1 FROM trivia_responses tr
			WHERE tr.question_id = q.id AND tr.user_id::text = $1
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM trivia_attempts ta
			WHERE ta.question_id = q.id AND ta.user_id::text = $1 AND ta.issued_at < $2
		  )
		ORDER BY q.created_at ASC
		LIMIT 1
	`, user.ID, time.Now().Add(-h.cfg.TriviaAnswerWindow)).Scan(&q.ID, &q.Question, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CoinReward)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No trivia question available")
		return
	}
	if err != nil {
		slog.Error("failed to query trivia question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// The no-op update makes RETURNING yield the stored row on conflict
	var issued time.Time
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO trivia_attempts (question_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (question_id, user_id) DO UPDATE SET question_id = EXCLUDED.question_id
		RETURNING issued_at
	`, q.ID, user.ID).Scan(&issued)
	if err != nil {
		slog.Error("failed to record trivia attempt", "error", err, "question_id", q.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TriviaQuestionResponse{
		ID:           q.ID,
		Question:     q.Question,
		Options:      []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD},
		CoinReward:   q.CoinReward,
		AttemptToken: auth.GenerateAttemptToken(q.ID, user.ID, h.cfg.TriviaSecret, issued),
		Deadline:     issued.Add(h.cfg.TriviaAnswerWindow).UTC().Truncate(time.Second),
	})
}

// SubmitAnswer handles POST /trivia/questions/{id}/answer
func (h *TriviaHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.AnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	option := strings.ToUpper(strings.TrimSpace(req.Option))
	if !slices.Contains(models.TriviaOptions, option) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option must be one of A, B, C, D")
		return
	}

	_, err := auth.ValidateAttemptToken(req.AttemptToken, questionID, user.ID,
		h.cfg.TriviaSecret, h.cfg.TriviaAnswerWindow, time.Now())
	if errors.Is(err, auth.ErrTokenExpired) {
		middleware.ErrorResponse(w, http.StatusGone, "Time is up for this question")
		return
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid attempt token")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var correctOption string
	var reward int
	var active bool
	err = tx.QueryRowContext(r.Context(),
		"SELECT correct_option, coin_reward, is_active FROM trivia_questions WHERE id = $1",
		questionID).Scan(&correctOption, &reward, &active)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to query trivia question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !active {
		middleware.ErrorResponse(w, http.StatusGone, "Question is closed")
		return
	}

	correct := option == correctOption
	res, err := tx.ExecContext(r.Context(), `
		INSERT INTO trivia_responses (question_id, user_id, user_email, selected_option, correct)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (question_id, user_id) DO NOTHING
	`, questionID, user.ID, user.Email, option, correct)
	if err != nil {
		slog.Error("failed to insert trivia response", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record answer")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "You already answered this question")
		return
	}

	awarded := 0
	if correct && reward > 0 {
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO coin_ledger (user_id, user_email, coins, note)
			VALUES ($1, $2, $3, 'Trivia reward')
		`, user.ID, user.Email, reward)
		if err != nil {
			slog.Error("failed to insert coin ledger entry", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record answer")
			return
		}
		awarded = reward
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit trivia answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record answer")
		return
	}

	metrics.TriviaAnswered(correct)
	slog.Info("trivia answered", "question_id", questionID, "user_id", user.ID, "correct", correct)

	message := "Not quite!"
	if correct {
		message = "Correct!"
	}
	middleware.JSONResponse(w, http.StatusOK, models.AnswerResponse{
		Correct:       correct,
		CorrectOption: correctOption,
		CoinsAwarded:  awarded,
		Message:       message,
	})
}

// CreateQuestion handles POST /admin/trivia/questions
func (h *TriviaHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.TriviaQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.CorrectOption = strings.ToUpper(strings.TrimSpace(req.CorrectOption))
	switch {
	case strings.TrimSpace(req.Question) == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	case req.OptionA == "" || req.OptionB == "" || req.OptionC == "" || req.OptionD == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "all four options are required")
		return
	case !slices.Contains(models.TriviaOptions, req.CorrectOption):
		middleware.ErrorResponse(w, http.StatusBadRequest, "correct_option must be one of A, B, C, D")
		return
	case req.CoinReward < 0:
		middleware.ErrorResponse(w, http.StatusBadRequest, "coin_reward must not be negative")
		return
	}

	q := models.TriviaQuestion{
		Question:      strings.TrimSpace(req.Question),
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		CoinReward:    req.CoinReward,
		IsActive:      true,
	}
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO trivia_questions (question, option_a, option_b, option_c, option_d, correct_option, coin_reward)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.CoinReward).Scan(&q.ID)
	if err != nil {
		slog.Error("failed to insert trivia question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	slog.Info("trivia question created", "question_id", q.ID)
	middleware.JSONResponse(w, http.StatusCreated, q)
}

// DeleteQuestion handles DELETE /admin/trivia/questions/{id}
func (h *TriviaHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), "DELETE FROM trivia_questions WHERE id = $1", questionID)
	if err != nil {
		slog.Error("failed to delete trivia question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete question")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
