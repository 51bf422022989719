// Package server exposes seam carving over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gogpu/seamcarve"
	"github.com/gogpu/seamcarve/internal/config"
	"github.com/gogpu/seamcarve/internal/imageio"
)

// Response headers describing a carve result.
const (
	HeaderRequestID = "X-Seamcarve-Request-Id"
	HeaderWidth     = "X-Seamcarve-Width"
	HeaderHeight    = "X-Seamcarve-Height"
	HeaderAlgorithm = "X-Seamcarve-Algorithm"
	HeaderBackend   = "X-Seamcarve-Backend"
	HeaderElapsed   = "X-Seamcarve-Elapsed"
)

const requestIDKey = "request_id"

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server serves carve requests against one energy backend.
type Server struct {
	backend seamcarve.Backend
	cfg     *config.Config
	logger  *slog.Logger

	// mu serializes reductions; backends hold per-size GPU state.
	mu     sync.Mutex
	engine *gin.Engine
}

// New builds the HTTP handler. logger may be nil.
func New(backend seamcarve.Backend, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = seamcarve.Logger()
	}
	s := &Server{backend: backend, cfg: cfg, logger: logger}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestID(),
		accessLog(logger),
		requestSizeLimiter(cfg.Server.MaxUploadBytes),
	)
	r.GET("/healthz", s.health)
	r.GET("/v1/backends", s.backends)
	r.POST("/v1/carve", s.carve)
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": s.backend.Name(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) backends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active":    s.backend.Name(),
		"available": seamcarve.Backends(),
	})
}

func (s *Server) carve(c *gin.Context) {
	id := c.GetString(requestIDKey)
	log := s.logger.With("request_id", id)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, log, http.StatusRequestEntityTooLarge, "upload too large", err)
			return
		}
		respondError(c, log, http.StatusBadRequest, "missing image field", err)
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, log, http.StatusBadRequest, "read upload", err)
		return
	}
	src, format, err := imageio.Decode(f)
	_ = f.Close()
	if err != nil {
		respondError(c, log, http.StatusUnsupportedMediaType, "decode image", err)
		return
	}

	alg := s.cfg.AlgorithmValue()
	if name := c.PostForm("algorithm"); name != "" {
		if alg, err = seamcarve.ParseAlgorithm(name); err != nil {
			respondError(c, log, http.StatusBadRequest, "invalid algorithm", err)
			return
		}
	}
	target, err := targetWidth(src.Width(), c.PostForm("width"), c.PostForm("scale"))
	if err != nil {
		respondError(c, log, http.StatusBadRequest, "invalid target", err)
		return
	}

	log.Info("carve request",
		"format", format,
		"width", src.Width(), "height", src.Height(),
		"target", target, "algorithm", alg.String())

	start := time.Now()
	out, err := s.reduce(src, target, alg, id, log)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, seamcarve.ErrInvalidTargetWidth) {
			status = http.StatusBadRequest
		}
		respondError(c, log, status, "carve failed", err)
		return
	}
	elapsed := time.Since(start)

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, out, "png"); err != nil {
		respondError(c, log, http.StatusInternalServerError, "encode result", err)
		return
	}

	c.Header(HeaderWidth, strconv.Itoa(out.Width()))
	c.Header(HeaderHeight, strconv.Itoa(out.Height()))
	c.Header(HeaderAlgorithm, alg.String())
	c.Header(HeaderBackend, s.backend.Name())
	c.Header(HeaderElapsed, elapsed.String())
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) reduce(src *seamcarve.Pixels, target int, alg seamcarve.Algorithm, id string, log *slog.Logger) (*seamcarve.Pixels, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := seamcarve.NewReducer(
		seamcarve.WithEnergy(s.backend),
		seamcarve.WithProgress(seamcarve.LogSink{Logger: log}),
		seamcarve.WithRunID(id),
		seamcarve.WithSlowIteration(s.cfg.SlowIteration),
	)
	return r.Reduce(src, target, alg)
}

// targetWidth resolves the requested width. An explicit width wins over a
// scale percentage; with neither the image is returned unchanged.
func targetWidth(width int, explicit, scale string) (int, error) {
	switch {
	case explicit != "":
		w, err := strconv.Atoi(explicit)
		if err != nil {
			return 0, fmt.Errorf("width %q: %w", explicit, err)
		}
		if w <= 0 {
			return 0, fmt.Errorf("%w: %d", seamcarve.ErrInvalidTargetWidth, w)
		}
		return w, nil
	case scale != "":
		p, err := strconv.Atoi(scale)
		if err != nil {
			return 0, fmt.Errorf("scale %q: %w", scale, err)
		}
		return seamcarve.ScaleTarget(width, p), nil
	default:
		return width, nil
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"elapsed", time.Since(start))
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondError(c *gin.Context, log *slog.Logger, code int, message string, err error) {
	log.Warn("request failed",
		"status", code,
		"message", message,
		"path", c.Request.URL.Path,
		"err", err)
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
