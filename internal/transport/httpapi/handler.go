// Package httpapi exposes the simulator over JSON/HTTP using echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/profile"
	"github.com/xtding233/gacha-simulator/internal/simulator"
)

// Simulator is the part of simulator.Service the handler needs.
type Simulator interface {
	Profile(name string) (profile.Profile, error)
	RunDraws(ctx context.Context, req simulator.Request) (simulator.DrawReport, error)
	RunSynthesis(ctx context.Context, req simulator.Request) (simulator.SynthesisReport, error)
	RunDrawBatch(ctx context.Context, req simulator.BatchRequest) (simulator.BatchReport, error)
	RunSynthesisBatch(ctx context.Context, req simulator.BatchRequest) (simulator.BatchReport, error)
}

var _ Simulator = (*simulator.Service)(nil)

type Handler struct {
	svc Simulator
	log *logrus.Entry
}

func NewHandler(svc Simulator, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.WithField("module", "httpapi")
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/v1/profiles/:name", h.GetProfile)

	v1 := e.Group("/v1")
	v1.POST("/draws", h.Draws)
	v1.POST("/synthesis", h.Synthesis)
	v1.POST("/batch/draws", h.DrawBatch)
	v1.POST("/batch/synthesis", h.SynthesisBatch)
}

// NewServer builds an echo instance with the middleware chain and routes installed.
func NewServer(svc Simulator, log *logrus.Entry) *echo.Echo {
	h := NewHandler(svc, log)
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(RequestIDMiddleware())
	e.Use(LoggingMiddleware(h.log))
	h.Register(e)
	return e
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.svc.Profile(c.Param("name"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Draws(c echo.Context) error {
	var req SimulationRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	rep, err := h.svc.RunDraws(c.Request().Context(), req.toRequest())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, DrawResponse{DrawReport: rep, Meta: meta(c)})
}

func (h *Handler) Synthesis(c echo.Context) error {
	var req SimulationRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	rep, err := h.svc.RunSynthesis(c.Request().Context(), req.toRequest())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, SynthesisResponse{SynthesisReport: rep, Meta: meta(c)})
}

func (h *Handler) DrawBatch(c echo.Context) error {
	var req SimulationRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	rep, err := h.svc.RunDrawBatch(c.Request().Context(), req.toBatchRequest())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, BatchResponse{BatchReport: rep, Meta: meta(c)})
}

func (h *Handler) SynthesisBatch(c echo.Context) error {
	var req SimulationRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	rep, err := h.svc.RunSynthesisBatch(c.Request().Context(), req.toBatchRequest())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, BatchResponse{BatchReport: rep, Meta: meta(c)})
}

// badBody rejects a body that does not decode. An empty body is valid and selects the default profile.
func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", RequestID: requestID(c)})
}

func meta(c echo.Context) MetaResp {
	return MetaResp{RequestID: requestID(c)}
}

func (h *Handler) mapError(c echo.Context, err error) error {
	id := requestID(c)
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), RequestID: id})
	case errors.Is(err, profile.ErrInvalidName),
		errors.Is(err, gacha.ErrInvalidConfiguration),
		errors.Is(err, gacha.ErrMalformedTable):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), RequestID: id})
	default:
		h.log.WithError(err).WithField("request_id", id).Error("internal error")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", RequestID: id})
	}
}
