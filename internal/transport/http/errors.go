package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/obslog"
	"github.com/kasupel/server/internal/ports"
	"github.com/kasupel/server/internal/usecase"
)

const errBase = "https://errors.kasupel.local"

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad_request")

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// GameProblem adds the machine-readable reason code and, when the operation
// changed the game anyway, the game itself.
type GameProblem struct {
	Problem
	Code string    `json:"code"`
	Game *gameJSON `json:"game,omitempty"`
}

type problemMapping struct {
	target error
	status int
	slug   string
	code   string
	detail string
}

// problems is checked in order; the first match wins.
var problems = []problemMapping{
	{ports.ErrNotFound, http.StatusNotFound, "not-found", "not_found", "Resource not found."},
	{ports.ErrVersionConflict, http.StatusConflict, "conflict", "conflict", "Game state changed; refresh and retry with the new expected_version."},
	{ports.ErrLockBusy, http.StatusConflict, "conflict", "game_busy", "Another operation on this game is in progress."},
	{usecase.ErrRateLimited, http.StatusTooManyRequests, "rate-limited", "rate_limited", "Rate limit exceeded. Try again later."},
	{usecase.ErrClockRunning, http.StatusConflict, "clock-running", "clock_running", "The clock has not run out."},
	{game.ErrTimedOut, http.StatusConflict, "timed-out", "timed_out", "The side to move ran out of time; the game is over."},
	{game.ErrGameOver, http.StatusConflict, "game-over", "game_not_in_progress", "Game is not in progress."},
	{game.ErrBadSetup, http.StatusBadRequest, "invalid-setup", "invalid_setup", "The game cannot be started with these settings."},
	{chess.ErrBadMove, http.StatusUnprocessableEntity, "illegal-move", "invalid_uci", "Move string is not valid UCI notation."},
	{game.ErrIllegalMove, http.StatusUnprocessableEntity, "illegal-move", "illegal_move", "Move is not legal in the current position."},
	{game.ErrInvalidClaim, http.StatusUnprocessableEntity, "invalid-claim", "invalid_claim", "The draw cannot be claimed now."},
	{game.ErrInvariantViolation, http.StatusInternalServerError, "invariant-violation", "invariant_violation", "The stored game is corrupted and cannot be continued."},
	{errBadRequest, http.StatusBadRequest, "bad-request", "bad_request", "The request is malformed."},
}

// writeErr maps a domain/usecase error to the correct HTTP response.
func writeErr(c echo.Context, err error) error {
	return writeGameErr(c, err, nil)
}

// writeGameErr is writeErr with the resulting game attached.
func writeGameErr(c echo.Context, err error, g *gameJSON) error {
	for _, p := range problems {
		if !errors.Is(err, p.target) {
			continue
		}
		switch p.status {
		case http.StatusTooManyRequests:
			c.Response().Header().Set("Retry-After", "2")
		case http.StatusInternalServerError:
			logFailure(c, err)
		}
		return c.JSON(p.status, GameProblem{
			Problem: Problem{
				Type:   errBase + "/" + p.slug,
				Title:  http.StatusText(p.status),
				Status: p.status,
				Detail: p.detail,
			},
			Code: p.code,
			Game: g,
		})
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return c.JSON(he.Code, Problem{
			Type:   errBase + "/bad-request",
			Title:  http.StatusText(he.Code),
			Status: he.Code,
			Detail: "The request is malformed.",
		})
	}
	logFailure(c, err)
	return c.JSON(http.StatusInternalServerError, Problem{
		Type:   errBase + "/internal",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: "Unexpected error.",
	})
}

func logFailure(c echo.Context, err error) {
	obslog.L().Error("request_failed",
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.String("game_id", c.Param("game_id")),
		zap.Error(err),
	)
}
