// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/riot-network/auth"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/testutil"
)

const testQuestionID = "66666666-6666-6666-6666-666666666666"

func answerRequest(option, token string) *http.Request {
	req := testutil.MakeRequest("POST", "/trivia/questions/"+testQuestionID+"/answer",
		models.AnswerRequest{Option: option, AttemptToken: token}, nil)
	req.SetPathValue("id", testQuestionID)
	return testutil.AsUser(req, testutil.Fan)
}

func freshToken() string {
	cfg := testutil.GetTestConfig()
	return auth.GenerateAttemptToken(testQuestionID, testutil.Fan.ID, cfg.TriviaSecret, time.Now())
}

func expectQuestion(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM trivia_questions q").
		WithArgs(testutil.Fan.ID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "question", "option_a", "option_b", "option_c", "option_d", "coin_reward"}).
			AddRow(testQuestionID, "Year of the first show?", "2019", "2020", "2021", "2022", 10))
}

func expectAttempt(mock sqlmock.Sqlmock, issued time.Time) {
	mock.ExpectQuery("INSERT INTO trivia_attempts").
		WithArgs(testQuestionID, testutil.Fan.ID).
		WillReturnRows(sqlmock.NewRows([]string{"issued_at"}).AddRow(issued))
}

func TestGetQuestion(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	expectQuestion(mock)
	expectAttempt(mock, time.Now())

	cfg := testutil.GetTestConfig()
	handler := NewTriviaHandler(db, cfg)
	w := httptest.NewRecorder()
	handler.GetQuestion(w, testutil.AsUser(testutil.MakeRequest("GET", "/trivia/question", nil, nil), testutil.Fan))

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.TriviaQuestionResponse
	testutil.AssertJSON(t, w, &resp)

	if len(resp.Options) != 4 || resp.Options[3] != "2022" {
		t.Errorf("unexpected options: %v", resp.Options)
	}
	if _, err := auth.ValidateAttemptToken(resp.AttemptToken, testQuestionID, testutil.Fan.ID,
		cfg.TriviaSecret, cfg.TriviaAnswerWindow, time.Now()); err != nil {
		t.Errorf("expected a valid attempt token, got %v", err)
	}
	if time.Until(resp.Deadline) > cfg.TriviaAnswerWindow || time.Until(resp.Deadline) <= -time.Second {
		t.Errorf("deadline %v not within the answer window", resp.Deadline)
	}
}

func TestGetQuestion_RefetchKeepsDeadline(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	cfg := testutil.GetTestConfig()
	firstShown := time.Now().Add(-20 * time.Second).Truncate(time.Second)

	// Both fetches find the attempt already stored
	for range 2 {
		expectQuestion(mock)
		expectAttempt(mock, firstShown)
	}

	handler := NewTriviaHandler(db, cfg)
	var deadlines []time.Time
	var tokens []string
	for range 2 {
		w := httptest.NewRecorder()
		handler.GetQuestion(w, testutil.AsUser(testutil.MakeRequest("GET", "/trivia/question", nil, nil), testutil.Fan))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.TriviaQuestionResponse
		testutil.AssertJSON(t, w, &resp)
		deadlines = append(deadlines, resp.Deadline)
		tokens = append(tokens, resp.AttemptToken)
	}

	want := firstShown.Add(cfg.TriviaAnswerWindow)
	for i, d := range deadlines {
		if !d.Equal(want) {
			t.Errorf("fetch %d: deadline %v, want %v from the first showing", i, d, want)
		}
	}
	if tokens[0] != tokens[1] {
		t.Error("re-fetching must return the same attempt token")
	}

	issued, err := auth.ValidateAttemptToken(tokens[1], testQuestionID, testutil.Fan.ID,
		cfg.TriviaSecret, cfg.TriviaAnswerWindow, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !issued.Equal(firstShown) {
		t.Errorf("token issued at %v, want %v", issued, firstShown)
	}
}

func TestGetQuestion_AttemptError(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	expectQuestion(mock)
	mock.ExpectQuery("INSERT INTO trivia_attempts").WillReturnError(errTest)

	handler := NewTriviaHandler(db, testutil.GetTestConfig())
	w := httptest.NewRecorder()
	handler.GetQuestion(w, testutil.AsUser(testutil.MakeRequest("GET", "/trivia/question", nil, nil), testutil.Fan))

	testutil.AssertStatus(t, w, http.StatusInternalServerError)
}

func TestGetQuestion_NoneLeft(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectQuery("FROM trivia_questions q").
		WillReturnRows(sqlmock.NewRows([]string{"id", "question", "option_a", "option_b", "option_c", "option_d", "coin_reward"}))

	handler := NewTriviaHandler(db, testutil.GetTestConfig())
	w := httptest.NewRecorder()
	handler.GetQuestion(w, testutil.AsUser(testutil.MakeRequest("GET", "/trivia/question", nil, nil), testutil.Fan))

	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestSubmitAnswer_TokenChecks(t *testing.T) {
	cfg := testutil.GetTestConfig()
	expired := auth.GenerateAttemptToken(testQuestionID, testutil.Fan.ID, cfg.TriviaSecret, time.Now().Add(-time.Minute))
	otherUser := auth.GenerateAttemptToken(testQuestionID, testutil.Admin.ID, cfg.TriviaSecret, time.Now())

	tests := []struct {
		name   string
		option string
		token  string
		status int
	}{
		{"bad option", "E", freshToken(), http.StatusBadRequest},
		{"expired token", "A", expired, http.StatusGone},
		{"token for another user", "A", otherUser, http.StatusBadRequest},
		{"garbage token", "A", "garbage", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := testutil.NewMockDB(t)
			handler := NewTriviaHandler(db, cfg)
			w := httptest.NewRecorder()
			handler.SubmitAnswer(w, answerRequest(tt.option, tt.token))
			testutil.AssertStatus(t, w, tt.status)
		})
	}
}

func TestSubmitAnswer_Correct(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT correct_option, coin_reward, is_active FROM trivia_questions").
		WithArgs(testQuestionID).
		WillReturnRows(sqlmock.NewRows([]string{"correct_option", "coin_reward", "is_active"}).AddRow("B", 10, true))
	mock.ExpectExec("INSERT INTO trivia_responses").
		WithArgs(testQuestionID, testutil.Fan.ID, testutil.Fan.Email, "B", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO coin_ledger").
		WithArgs(testutil.Fan.ID, testutil.Fan.Email, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	handler := NewTriviaHandler(db, testutil.GetTestConfig())
	w := httptest.NewRecorder()
	handler.SubmitAnswer(w, answerRequest("b", freshToken()))

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.AnswerResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Correct || resp.CoinsAwarded != 10 {
		t.Errorf("expected 10 coins for a correct answer, got %+v", resp)
	}
}

func TestSubmitAnswer_Wrong(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT correct_option, coin_reward, is_active FROM trivia_questions").
		WillReturnRows(sqlmock.NewRows([]string{"correct_option", "coin_reward", "is_active"}).AddRow("B", 10, true))
	mock.ExpectExec("INSERT INTO trivia_responses").
		WithArgs(testQuestionID, testutil.Fan.ID, testutil.Fan.Email, "C", false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	handler := NewTriviaHandler(db, testutil.GetTestConfig())
	w := httptest.NewRecorder()
	handler.SubmitAnswer(w, answerRequest("C", freshToken()))

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.AnswerResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Correct || resp.CoinsAwarded != 0 || resp.CorrectOption != "B" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSubmitAnswer_AlreadyAnswered(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT correct_option, coin_reward, is_active FROM trivia_questions").
		WillReturnRows(sqlmock.NewRows([]string{"correct_option", "coin_reward", "is_active"}).AddRow("B", 10, true))
	mock.ExpectExec("INSERT INTO trivia_responses").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	handler := NewTriviaHandler(db, testutil.GetTestConfig())
	w := httptest.NewRecorder()
	handler.SubmitAnswer(w, answerRequest("B", freshToken()))

	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestSubmitAnswer_Closed(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT correct_option, coin_reward, is_active FROM trivia_questions").
		WillReturnRows(sqlmock.NewRows([]string{"correct_option", "coin_reward", "is_active"}).AddRow("B", 10, false))
	mock.ExpectRollback()

	handler := NewTriviaHandler(db, testutil.GetTestConfig())
	w := httptest.NewRecorder()
	handler.SubmitAnswer(w, answerRequest("B", freshToken()))

	testutil.AssertStatus(t, w, http.StatusGone)
}

func TestCreateQuestion(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectQuery("INSERT INTO trivia_questions").
		WithArgs("Best song?", "One", "Two", "Three", "Four", "D", 25).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testQuestionID))

	handler := NewTriviaHandler(db, testutil.GetTestConfig())
	w := httptest.NewRecorder()
	handler.CreateQuestion(w, testutil.MakeRequest("POST", "/admin/trivia/questions", models.TriviaQuestionRequest{
		Question: "Best song?", OptionA: "One", OptionB: "Two", OptionC: "Three", OptionD: "Four",
		CorrectOption: "d", CoinReward: 25,
	}, nil))

	testutil.AssertStatus(t, w, http.StatusCreated)
}

func TestCreateQuestion_Invalid(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	handler := NewTriviaHandler(db, testutil.GetTestConfig())
	w := httptest.NewRecorder()
	handler.CreateQuestion(w, testutil.MakeRequest("POST", "/admin/trivia/questions", models.TriviaQuestionRequest{
		Question: "Best song?", OptionA: "One", OptionB: "Two", OptionC: "Three", OptionD: "Four",
		CorrectOption: "Z",
	}, nil))

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}
