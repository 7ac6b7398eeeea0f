package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/five82/scribe/internal/notes"
	"github.com/five82/scribe/internal/remote"
)

const (
	maxBodySize       = 64 * 1024
	heartbeatInterval = 15 * time.Second
)

// Server exposes a remote.Store over HTTP.
type Server struct {
	echo  *echo.Echo
	store remote.Store
	log   log.FieldLogger

	heartbeat time.Duration
}

// New builds the echo app with recovery and request logging installed.
func New(store remote.Store, logger log.FieldLogger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, store: store, log: logger, heartbeat: heartbeatInterval}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request served")
			return nil
		},
	}))

	s.register()
	return s
}

func (s *Server) register() {
	s.echo.GET("/healthz", s.healthz)
	s.echo.GET("/api/notes", s.listNotes)
	s.echo.POST("/api/notes", s.createNote)
	s.echo.GET("/api/notes/events", s.streamEvents)
	s.echo.PATCH("/api/notes/:id", s.updateNote)
	s.echo.DELETE("/api/notes/:id", s.deleteNote)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("notes api listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for handlers to return.
// Open event streams keep Shutdown waiting until ctx ends; follow up with
// Close to drop them.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Close drops every connection immediately.
func (s *Server) Close() error {
	return s.echo.Close()
}

func (s *Server) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) listNotes(c echo.Context) error {
	items, err := s.store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list notes").SetInternal(err)
	}
	if items == nil {
		items = []notes.Note{}
	}
	return c.JSON(http.StatusOK, remote.ListResponse{Items: items})
}

func (s *Server) createNote(c echo.Context) error {
	var note notes.Note
	if err := decodeBody(c, &note); err != nil {
		return err
	}
	if err := validateNote(note); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.store.Create(c.Request().Context(), note); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, note)
}

func (s *Server) updateNote(c echo.Context) error {
	var patch notes.Patch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return echo.NewHTTPError(http.StatusBadRequest, "patch changes nothing")
	}
	if err := s.store.Update(c.Request().Context(), c.Param("id"), patch); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteNote(c echo.Context) error {
	if err := s.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// streamEvents holds one store subscription per connected client for as long
// as the request lives.
func (s *Server) streamEvents(c echo.Context) error {
	ctx := c.Request().Context()
	sub, err := s.store.SubscribeOnCreate(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event stream unavailable").SetInternal(err)
	}
	defer sub.Close()

	res := c.Response()
	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "stream unsupported")
	}
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := io.WriteString(res, ": ping\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		case note, ok := <-sub.Notes():
			if !ok {
				s.log.Warn("store subscription ended; closing event stream")
				return nil
			}
			data, err := sonic.Marshal(note)
			if err != nil {
				s.log.WithError(err).WithField("note", note.ID).Error("encode event")
				continue
			}
			if _, err := res.Write(append(append([]byte("data: "), data...), '\n', '\n')); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func decodeBody(c echo.Context, dest any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

func validateNote(n notes.Note) error {
	if strings.TrimSpace(n.ID) == "" {
		return errors.New("id is required")
	}
	return notes.Draft{Name: n.Name, Description: n.Description}.Validate()
}

func storeError(err error) error {
	switch {
	case errors.Is(err, remote.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	case errors.Is(err, remote.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "note already exists")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "store error").SetInternal(err)
	}
}
