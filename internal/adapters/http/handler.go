package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/teamsync/internal/app"
	"github.com/randomtoy/teamsync/internal/domain"
	"github.com/randomtoy/teamsync/internal/ports"
)

const csvFilename = "group_results.csv"

type Handler struct {
	svc     *app.TeamService
	logger  *slog.Logger
	metrics http.Handler
}

// NewHandler wires routes to svc. metrics may be nil to skip /metrics.
func NewHandler(svc *app.TeamService, logger *slog.Logger, metrics http.Handler) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: metrics}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics))
	}

	g := e.Group("/v1/sessions")
	g.POST("", h.CreateSession)
	g.GET("/:id", h.GetSession)
	g.DELETE("/:id", h.DeleteSession)

	g.PUT("/:id/names", h.SetNames)
	g.DELETE("/:id/names", h.ClearNames)
	g.POST("/:id/names/import", h.ImportNames)
	g.POST("/:id/names/demo", h.DemoNames)
	g.POST("/:id/names/dedupe", h.DedupeNames)

	g.PUT("/:id/draw/settings", h.DrawSettings)
	g.POST("/:id/draw", h.StartDraw)
	g.DELETE("/:id/winners", h.ResetWinners)

	g.POST("/:id/groups", h.GenerateGroups)
	g.GET("/:id/groups.csv", h.ExportGroups)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateSession(c echo.Context) error {
	sess, err := h.svc.NewSession(c.Request().Context())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionResponse(sess.Snapshot()))
}

func (h *Handler) GetSession(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess.Snapshot()))
}

func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.svc.EndSession(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetNames accepts either a JSON {"text": ...} body or the raw text itself.
func (h *Handler) SetNames(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}

	var text string
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var req NamesRequest
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "body must be {\"text\": string}"})
		}
		text = req.Text
	} else {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read body"})
		}
		text = string(raw)
	}

	return c.JSON(http.StatusOK, toNamesResponse(sess.SetText(text)))
}

func (h *Handler) ClearNames(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}
	sess.Clear()
	return c.JSON(http.StatusOK, toNamesResponse(nil))
}

// ImportNames reads an uploaded text or CSV file from the "file" form field.
func (h *Handler) ImportNames(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "multipart field \"file\" is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return mapError(c, fmt.Errorf("%w: %v", domain.ErrImportFailed, err))
	}
	defer f.Close()

	names, err := sess.Import(f)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toNamesResponse(names))
}

func (h *Handler) DemoNames(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}
	names, err := h.svc.LoadDemo(c.Request().Context(), sess)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toNamesResponse(names))
}

func (h *Handler) DedupeNames(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toNamesResponse(sess.Deduplicate()))
}

func (h *Handler) DrawSettings(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}
	var req DrawSettingsRequest
	if err := c.Bind(&req); err != nil || req.AllowRepeat == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "body must be {\"allow_repeat\": bool}"})
	}
	sess.SetAllowRepeat(*req.AllowRepeat)
	return c.JSON(http.StatusOK, toSessionResponse(sess.Snapshot()))
}

// StartDraw begins a round. By default the response is a server-sent event
// stream of spin events ending in a winner or cancelled event; with
// wait=false it returns 202 immediately and the round runs on its own.
func (h *Handler) StartDraw(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}

	// The round belongs to the session, not to this request.
	start, err := sess.BeginDraw(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		return mapError(c, err)
	}

	if wait, err := strconv.ParseBool(c.QueryParam("wait")); err == nil && !wait {
		return c.JSON(http.StatusAccepted, DrawAcceptedResponse{
			State:    string(domain.DrawDrawing),
			Round:    start.Round,
			Eligible: start.Eligible,
		})
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for ev := range start.Events {
		data, err := json.Marshal(toEventPayload(ev))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
			// Client went away; the round still settles into the session.
			requestLogger(c, h.logger).Debug("draw stream closed", "round", start.Round, "error", err)
			return nil
		}
		w.Flush()
	}
	return nil
}

// ResetWinners clears the winner history. The caller confirms with
// confirm=true; without it nothing changes and 428 is returned.
func (h *Handler) ResetWinners(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}

	confirmed, _ := strconv.ParseBool(c.QueryParam("confirm"))
	ok, err := sess.ResetWinners(c.Request().Context(), ports.ConfirmFunc(
		func(context.Context, string) (bool, error) { return confirmed, nil },
	))
	if err != nil {
		return mapError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusPreconditionRequired, ErrorResponse{Error: "confirm=true is required to clear winners"})
	}
	return c.JSON(http.StatusOK, ResetResponse{Reset: true})
}

// GenerateGroups shuffles and chunks the names. size is optional and
// coerced to at least 1; without it the session's current size is used.
func (h *Handler) GenerateGroups(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}

	size := sess.GroupSize()
	if raw := c.QueryParam("size"); raw != "" {
		size = domain.CoerceGroupSize(raw)
	}

	groups, err := sess.GenerateGroups(size)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, GroupsResponse{
		GroupSize: domain.ClampGroupSize(size),
		Groups:    toGroupResponses(groups),
	})
}

func (h *Handler) ExportGroups(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return mapError(c, err)
	}
	var buf bytes.Buffer
	if err := sess.ExportGroupsCSV(&buf); err != nil {
		return mapError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", csvFilename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) session(c echo.Context) (*app.Session, error) {
	return h.svc.Session(c.Request().Context(), c.Param("id"))
}

func mapError(c echo.Context, err error) error {
	logger := requestLogger(c, nil)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: domain.ErrSessionNotFound.Error()})
	case errors.Is(err, domain.ErrSessionClosed):
		return c.JSON(http.StatusGone, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrEmptyList),
		errors.Is(err, domain.ErrPoolExhausted),
		errors.Is(err, domain.ErrDrawInProgress),
		errors.Is(err, domain.ErrNoGroups):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrImportFailed):
		logger.Warn("import failed", "error", err)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger.Error("internal error", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
