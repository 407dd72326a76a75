package http

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kasupel/server/internal/config"
	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/clock"
	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/ports"
	"github.com/kasupel/server/internal/usecase"
)

type pieceJSON struct {
	Type string `json:"type"`
	Side string `json:"side"`
}

// gameJSON is the wire representation of domain/game.Game.
type gameJSON struct {
	GameID         string               `json:"game_id"`
	Mode           string               `json:"mode"`
	Board          map[string]pieceJSON `json:"board"`
	FEN            string               `json:"fen"`
	SideToMove     string               `json:"side_to_move"`
	Ply            int                  `json:"ply"`
	HostTime       float64              `json:"host_time"`
	AwayTime       float64              `json:"away_time"`
	BoundaryAt     *time.Time           `json:"boundary_at"`
	HostOffersDraw bool                 `json:"host_offers_draw"`
	AwayOffersDraw bool                 `json:"away_offers_draw"`
	ClaimableDraws []string             `json:"claimable_draws"`
	Conclusion     string               `json:"conclusion"`
	Winner         string               `json:"winner"`
	StateVersion   int                  `json:"state_version"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	EndedAt        *time.Time           `json:"ended_at"`
	MoveHistory    []string             `json:"move_history"`
}

func toGameJSON(g *game.Game, now time.Time) *gameJSON {
	if g == nil {
		return nil
	}
	board := make(map[string]pieceJSON)
	for sq, p := range g.Board.Export() {
		board[sq.String()] = pieceJSON{Type: p.Type.String(), Side: p.Side.String()}
	}
	remaining := g.RemainingAt(now)
	out := &gameJSON{
		GameID:         g.ID.String(),
		Mode:           g.Mode.Name(),
		Board:          board,
		FEN:            g.FEN(),
		SideToMove:     g.SideToMove.String(),
		Ply:            g.Ply,
		HostTime:       remaining[chess.Host].Seconds(),
		AwayTime:       remaining[chess.Away].Seconds(),
		HostOffersDraw: g.DrawOffers[chess.Host],
		AwayOffersDraw: g.DrawOffers[chess.Away],
		ClaimableDraws: []string{},
		Conclusion:     string(g.Conclusion),
		Winner:         string(g.Winner),
		StateVersion:   g.StateVersion,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
		EndedAt:        g.EndedAt,
		MoveHistory:    make([]string, len(g.Moves)),
	}
	if g.InProgress() {
		b := g.Boundary()
		out.BoundaryAt = &b
	}
	for _, c := range g.ClaimableDraws() {
		out.ClaimableDraws = append(out.ClaimableDraws, string(c))
	}
	for i, m := range g.Moves {
		out.MoveHistory[i] = m.String()
	}
	return out
}

type timeControlJSON struct {
	Name       string  `json:"name"`
	Main       float64 `json:"main"`
	FixedExtra float64 `json:"fixed_extra"`
	Increment  float64 `json:"increment"`
}

// PresetLister lists the configured time-control presets.
type PresetLister interface {
	All() []config.TimeControl
}

// Handlers holds all usecase dependencies. now must be the clock the use
// cases run on so remaining times and boundaries agree.
type Handlers struct {
	creator   *usecase.GameCreator
	getter    *usecase.GameGetter
	submitter *usecase.MoveSubmitter
	draws     *usecase.DrawHandler
	resigner  *usecase.Resigner
	presets   PresetLister
	now       func() time.Time
}

func NewHandlers(
	creator *usecase.GameCreator,
	getter *usecase.GameGetter,
	submitter *usecase.MoveSubmitter,
	draws *usecase.DrawHandler,
	resigner *usecase.Resigner,
	presets PresetLister,
	now func() time.Time,
) *Handlers {
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		creator:   creator,
		getter:    getter,
		submitter: submitter,
		draws:     draws,
		resigner:  resigner,
		presets:   presets,
		now:       now,
	}
}

// client returns the rate-limit identity of the request.
func client(c echo.Context) (ip, token string) {
	return c.RealIP(), c.Request().Header.Get("X-Client-Token")
}

func gameID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("game_id"))
	if err != nil {
		return uuid.Nil, ports.ErrNotFound
	}
	return id, nil
}

func parseSide(raw string) (chess.Side, error) {
	side, err := chess.ParseSide(raw)
	if err != nil {
		return side, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return side, nil
}

// bindSide reads a {"side": ...} body.
func bindSide(c echo.Context) (chess.Side, error) {
	var body struct {
		Side string `json:"side"`
	}
	if err := c.Bind(&body); err != nil {
		return chess.Host, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return parseSide(body.Side)
}

func (h *Handlers) respond(c echo.Context, status int, g *game.Game) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(status, map[string]any{"game": toGameJSON(g, h.now())})
}

// respondMutation writes the outcome of a mutating use case. A timed-out
// attempt still changed the game, so the concluded game rides along with
// the problem document.
func (h *Handlers) respondMutation(c echo.Context, g *game.Game, err error) error {
	if err != nil {
		return writeGameErr(c, err, toGameJSON(g, h.now()))
	}
	return h.respond(c, http.StatusOK, g)
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleTimeControls(c echo.Context) error {
	all := h.presets.All()
	out := make([]timeControlJSON, len(all))
	for i, p := range all {
		out[i] = timeControlJSON{
			Name:       p.Name,
			Main:       p.Control.Main.Seconds(),
			FixedExtra: p.Control.FixedExtra.Seconds(),
			Increment:  p.Control.Increment.Seconds(),
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"time_controls": out})
}

func (h *Handlers) handleCreateGame(c echo.Context) error {
	var body struct {
		Mode        string `json:"mode"`
		FirstSide   string `json:"first_side"`
		TimeControl string `json:"time_control"`
		// Explicit control in seconds; any field set overrides time_control.
		Main       *float64 `json:"main"`
		FixedExtra *float64 `json:"fixed_extra"`
		Increment  *float64 `json:"increment"`
		FEN        string   `json:"fen"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, fmt.Errorf("%w: %v", errBadRequest, err))
	}

	req := usecase.CreateRequest{
		Mode:        body.Mode,
		First:       chess.Host,
		TimeControl: body.TimeControl,
		FEN:         body.FEN,
	}
	if strings.TrimSpace(body.FirstSide) != "" {
		side, err := parseSide(body.FirstSide)
		if err != nil {
			return writeErr(c, err)
		}
		req.First = side
	}
	if body.Main != nil || body.FixedExtra != nil || body.Increment != nil {
		req.Control = &clock.Control{
			Main:       seconds(body.Main),
			FixedExtra: seconds(body.FixedExtra),
			Increment:  seconds(body.Increment),
		}
	}

	ip, token := client(c)
	g, err := h.creator.Create(c.Request().Context(), ip, token, req)
	if err != nil {
		return writeErr(c, err)
	}
	return h.respond(c, http.StatusCreated, g)
}

func seconds(v *float64) time.Duration {
	if v == nil {
		return 0
	}
	return time.Duration(*v * float64(time.Second))
}

func (h *Handlers) handleGetGame(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}
	ip, token := client(c)
	g, err := h.getter.GetGame(c.Request().Context(), ip, token, id)
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, toGameJSON(g, h.now()))
}

func (h *Handlers) handleLegalMoves(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}
	side, err := parseSide(c.QueryParam("side"))
	if err != nil {
		return writeErr(c, err)
	}
	ip, token := client(c)
	moves, err := h.getter.LegalMoves(c.Request().Context(), ip, token, id, side)
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	sort.Strings(out)
	return c.JSON(http.StatusOK, map[string]any{"side": side.String(), "moves": out})
}

func (h *Handlers) handleSubmitMove(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}

	var body struct {
		Side string `json:"side"`
		// Either a UCI string or from/to/promotion.
		UCI       string  `json:"uci"`
		From      string  `json:"from"`
		To        string  `json:"to"`
		Promotion *string `json:"promotion"`
		// Optimistic concurrency.
		ExpectedVersion *int `json:"expected_version"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, fmt.Errorf("%w: %v", errBadRequest, err))
	}
	side, err := parseSide(body.Side)
	if err != nil {
		return writeErr(c, err)
	}

	uci := body.UCI
	if body.From != "" && body.To != "" {
		uci = body.From + body.To
		if body.Promotion != nil && *body.Promotion != "" {
			pt, err := chess.ParsePieceType(*body.Promotion)
			if err != nil {
				return writeErr(c, fmt.Errorf("%w: %v", chess.ErrBadMove, err))
			}
			uci += string(pt.Letter())
		}
	}
	m, err := chess.ParseMove(uci)
	if err != nil {
		return writeErr(c, err)
	}

	ip, token := client(c)
	g, err := h.submitter.SubmitMove(c.Request().Context(), ip, token, id, usecase.SubmitMoveRequest{
		Side:            side,
		Move:            m,
		ExpectedVersion: body.ExpectedVersion,
	})
	if err != nil {
		return writeGameErr(c, err, toGameJSON(g, h.now()))
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"accepted": true,
		"move":     m.String(),
		"game":     toGameJSON(g, h.now()),
	})
}

func (h *Handlers) handleOfferDraw(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}
	side, err := bindSide(c)
	if err != nil {
		return writeErr(c, err)
	}
	ip, token := client(c)
	g, err := h.draws.OfferDraw(c.Request().Context(), ip, token, id, side)
	return h.respondMutation(c, g, err)
}

func (h *Handlers) handleClaimDraw(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}
	var body struct {
		Side   string `json:"side"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, fmt.Errorf("%w: %v", errBadRequest, err))
	}
	side, err := parseSide(body.Side)
	if err != nil {
		return writeErr(c, err)
	}
	reason, err := game.ParseConclusion(body.Reason)
	if err != nil {
		return writeErr(c, fmt.Errorf("%w: %v", game.ErrInvalidClaim, err))
	}
	ip, token := client(c)
	g, err := h.draws.ClaimDraw(c.Request().Context(), ip, token, id, side, reason)
	return h.respondMutation(c, g, err)
}

func (h *Handlers) handleResign(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}
	side, err := bindSide(c)
	if err != nil {
		return writeErr(c, err)
	}
	ip, token := client(c)
	g, err := h.resigner.Resign(c.Request().Context(), ip, token, id, side)
	return h.respondMutation(c, g, err)
}

func (h *Handlers) handleReportTimeout(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}
	side, err := bindSide(c)
	if err != nil {
		return writeErr(c, err)
	}
	ip, token := client(c)
	g, err := h.resigner.ReportTimeout(c.Request().Context(), ip, token, id, side)
	return h.respondMutation(c, g, err)
}
