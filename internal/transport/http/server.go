package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// New constructs and returns a configured Echo instance.
func New(h *Handlers, allowOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Client-Token"},
	}))
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	api := e.Group("/api/v1")
	api.GET("/healthz", h.handleHealthz)
	api.GET("/time-controls", h.handleTimeControls)
	api.POST("/games", h.handleCreateGame)
	api.GET("/games/:game_id", h.handleGetGame)
	api.GET("/games/:game_id/legal-moves", h.handleLegalMoves)
	api.POST("/games/:game_id/moves", h.handleSubmitMove)
	api.POST("/games/:game_id/draw-offer", h.handleOfferDraw)
	api.POST("/games/:game_id/draw-claim", h.handleClaimDraw)
	api.POST("/games/:game_id/resign", h.handleResign)
	api.POST("/games/:game_id/timeout", h.handleReportTimeout)

	return e
}
