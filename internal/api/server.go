package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/samcharles93/glb/internal/logger"
	"github.com/samcharles93/glb/pkg/glb"
	"github.com/samcharles93/glb/pkg/gltf"
	"github.com/samcharles93/glb/pkg/techniques"
)

// DefaultMaxUploadBytes caps POST /v1/containers bodies when Options leaves it unset.
const DefaultMaxUploadBytes = 64 << 20

type Options struct {
	MaxUploadBytes int64
	// RateLimit is uploads per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	Logger    logger.Logger
}

type Server struct {
	store     *ContainerStore
	log       logger.Logger
	maxUpload int64
	limiter   *rate.Limiter
	clock     func() time.Time
}

func NewServer(store *ContainerStore, opts Options) *Server {
	if store == nil {
		store = NewContainerStore()
	}
	s := &Server{
		store:     store,
		log:       opts.Logger,
		maxUpload: opts.MaxUploadBytes,
		clock:     time.Now,
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if opts.RateLimit > 0 {
		burst := max(opts.RateBurst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/containers", s.handleCreateContainer, rateLimit(s.limiter))
	e.GET("/v1/containers/:id", s.handleGetContainer)
	e.GET("/v1/containers/:id/binary", s.handleGetBinary)
	e.DELETE("/v1/containers/:id", s.handleDeleteContainer)
}

func (s *Server) handleCreateContainer(c *echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, s.maxUpload+1))
	if err != nil {
		return writeBadRequest(c, "read body: "+err.Error())
	}
	if int64(len(body)) > s.maxUpload {
		return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", "container exceeds upload limit", "")
	}

	container, err := glb.Parse(body)
	if err != nil {
		code := glb.ErrorCode(err)
		if code == "" {
			return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
		}
		s.log.Info("rejected container", "code", code, "bytes", len(body))
		return writeError(c, http.StatusUnprocessableEntity, "decode_error", err.Error(), code)
	}

	rec := s.store.Put(container, s.clock())
	log := s.log.With("id", rec.ID)
	for _, d := range rec.Diagnostics {
		log.Warn("migration diagnostic", "kind", string(d.Kind), "path", d.Path, "message", d.Message)
	}
	log.Info("decoded container", "version", rec.Header.Version, "chunks", len(rec.Chunks), "binary_bytes", len(rec.Binary))

	resp, err := s.containerResponse(rec, true)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleGetContainer(c *echo.Context) error {
	rec, ok := s.lookup(c)
	if !ok {
		return writeNotFound(c, "container not found")
	}
	resp, err := s.containerResponse(rec, documentParam(c))
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetBinary(c *echo.Context) error {
	rec, ok := s.lookup(c)
	if !ok {
		return writeNotFound(c, "container not found")
	}
	if rec.Binary == nil {
		return writeNotFound(c, "container has no binary chunk")
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
	res.WriteHeader(http.StatusOK)
	_, err := res.Write(rec.Binary)
	return err
}

func (s *Server) handleDeleteContainer(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "container not found")
	}
	return c.JSON(http.StatusOK, DeleteContainerResp{
		ID:      id,
		Object:  "container",
		Deleted: true,
	})
}

func (s *Server) lookup(c *echo.Context) (*containerRecord, bool) {
	id := c.Param("id")
	if id == "" {
		return nil, false
	}
	return s.store.Get(id)
}

func (s *Server) containerResponse(rec *containerRecord, withDocument bool) (ContainerResponse, error) {
	resp := ContainerResponse{
		ID:           rec.ID,
		Object:       "container",
		CreatedAt:    rec.CreatedAt.Unix(),
		Version:      rec.Header.Version,
		Length:       rec.Header.Length,
		Chunks:       chunkInfos(rec.Chunks),
		BinaryLength: len(rec.Binary),
		Diagnostics:  rec.Diagnostics,
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []techniques.Diagnostic{}
	}
	if withDocument {
		doc, err := gltf.Marshal(rec.Document, false)
		if err != nil {
			return ContainerResponse{}, fmt.Errorf("encode document: %w", err)
		}
		resp.Document = doc
	}
	return resp, nil
}

func documentParam(c *echo.Context) bool {
	q := c.QueryParam("document")
	return !(q == "0" || strings.EqualFold(q, "false"))
}
