// Package rest exposes the filter lab session over HTTP with gin.
//
// Routes live under /api/v1. Photos are posted either as a multipart upload
// (field "image") or as JSON naming a local path. Errors are returned as
// {"error": "..."} with 400 for malformed requests, 404 for missing files,
// 409 when the session lacks a prerequisite and 422 for photos that cannot
// be measured.
package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/filterlab/internal/config"
	"github.com/ironsheep/filterlab/internal/imaging"
	"github.com/ironsheep/filterlab/internal/params"
	"github.com/ironsheep/filterlab/internal/report"
	"github.com/ironsheep/filterlab/internal/session"
	"github.com/ironsheep/filterlab/internal/stats"
)

// Server is the HTTP front end of one session.
type Server struct {
	cfg     config.Config
	cache   *imaging.ImageCache
	session *session.Session
	engine  *gin.Engine

	// paths records the cached file behind each loaded role; uploads
	// have none.
	mu    sync.Mutex
	paths map[session.Role]string
}

// New builds the router. gin runs in release mode unless cfg asks for debug
// logging.
func New(cfg config.Config) *Server {
	if cfg.Debug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:   cfg,
		cache: imaging.NewImageCache(),
		session: session.New(session.Options{
			Strength:       cfg.Strength,
			MaxWorkingSize: cfg.MaxWorkingSize,
		}),
		paths: make(map[session.Role]string),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Debug() {
		r.Use(gin.Logger())
	}

	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", s.getPing)
			v1.POST("/reference", s.postPhoto(session.Reference))
			v1.POST("/mine", s.postPhoto(session.Mine))
			v1.GET("/statistics/:role", s.getStatistics)
			v1.POST("/analyze", s.postAnalyze)
			v1.GET("/adjustments", s.getAdjustments)
			v1.PUT("/adjustments", s.putAdjustments)
			v1.POST("/adjustments/reset", s.postReset)
			v1.GET("/report", s.getReport)
			v1.GET("/preview", s.getPreview)
			v1.POST("/export", s.postExport)
		}
	}
	s.engine = r
	return s
}

// Handler returns the router, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Session exposes the state behind the routes.
func (s *Server) Session() *session.Session {
	return s.session
}

// Run listens on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// pin records path as the source of role and releases cached photos no
// loaded role still comes from. An empty role only releases.
func (s *Server) pin(role session.Role, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role != "" {
		s.paths[role] = path
	}
	s.cache.Retain(s.paths[session.Reference], s.paths[session.Mine])
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, stats.ErrNoContent), errors.Is(err, imaging.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func (s *Server) getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"status":  s.session.Status(),
	})
}

type postPhotoArgs struct {
	Path string `json:"path" binding:"required"`
}

type photoResponse struct {
	Role       session.Role      `json:"role"`
	Info       imaging.ImageInfo `json:"info"`
	Statistics stats.Statistics  `json:"statistics"`
}

func (s *Server) postPhoto(role session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		photo, path, code, err := s.readPhoto(c)
		if err != nil {
			fail(c, code, err)
			return
		}

		load := s.session.LoadMine
		if role == session.Reference {
			load = s.session.LoadReference
		}
		st, err := load(photo)
		if err != nil {
			s.pin("", "")
			fail(c, statusFor(err), err)
			return
		}
		s.pin(role, path)

		c.JSON(http.StatusOK, photoResponse{Role: role, Info: photo.Info, Statistics: st})
	}
}

// readPhoto decodes an uploaded file or loads the JSON-named path. The path
// is empty for uploads.
func (s *Server) readPhoto(c *gin.Context) (*imaging.Photo, string, int, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			return nil, "", http.StatusBadRequest, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", http.StatusBadRequest, err
		}
		defer f.Close()

		photo, err := imaging.Decode(f, fh.Filename)
		if err != nil {
			return nil, "", statusFor(err), err
		}
		photo.Info.FileSizeBytes = fh.Size
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			photo.Info.Camera = imaging.ReadCamera(f)
		}
		return photo, "", http.StatusOK, nil
	}

	var args postPhotoArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		return nil, "", http.StatusBadRequest, err
	}
	photo, err := s.cache.Load(args.Path)
	if err != nil {
		return nil, "", statusFor(err), err
	}
	return photo, args.Path, http.StatusOK, nil
}

func (s *Server) getStatistics(c *gin.Context) {
	role, err := session.ParseRole(c.Param("role"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	st, err := s.session.Statistics(role)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) postAnalyze(c *gin.Context) {
	sg, err := s.session.Analyze()
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, sg)
}

type adjustmentsResponse struct {
	Adjustments params.Params       `json:"adjustments"`
	Suggested   *session.Suggestion `json:"suggested,omitempty"`
}

func (s *Server) getAdjustments(c *gin.Context) {
	res := adjustmentsResponse{Adjustments: s.session.Adjustments()}
	if sg, ok := s.session.Suggested(); ok {
		res.Suggested = &sg
	}
	c.JSON(http.StatusOK, res)
}

// putAdjustments replaces every slider; omitted sliders become zero and
// unknown slider names are rejected.
func (s *Server) putAdjustments(c *gin.Context) {
	var p params.Params
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, adjustmentsResponse{Adjustments: s.session.SetAdjustments(p)})
}

func (s *Server) postReset(c *gin.Context) {
	switch c.DefaultQuery("to", "neutral") {
	case "neutral":
		s.session.ResetAdjustments()
		c.JSON(http.StatusOK, adjustmentsResponse{})
	case "suggested":
		p, err := s.session.ResetToSuggested()
		if err != nil {
			fail(c, statusFor(err), err)
			return
		}
		c.JSON(http.StatusOK, adjustmentsResponse{Adjustments: p})
	default:
		fail(c, http.StatusBadRequest, fmt.Errorf("unknown reset target %q", c.Query("to")))
	}
}

// getReport answers JSON by default and plain text for ?format=text.
func (s *Server) getReport(c *gin.Context) {
	p := s.session.Adjustments()
	if c.Query("format") == "text" {
		c.String(http.StatusOK, report.Format(p))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"text":  report.Format(p),
		"lines": report.Lines(p),
	})
}

func (s *Server) getPreview(c *gin.Context) {
	format := c.DefaultQuery("format", "jpeg")
	if _, _, err := imaging.ParseFormat(format); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	img, err := s.session.Preview()
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}

	var buf bytes.Buffer
	mime, err := imaging.Encode(&buf, img, format, s.cfg.ExportQuality)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, mime, buf.Bytes())
}

type postExportArgs struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
}

// postExport renders the full-resolution photo. With a path it writes the
// file server-side, taking the encoder from the extension; an explicit
// format must agree with it. Otherwise the encoded bytes are the response
// body, in the requested or configured format.
func (s *Server) postExport(c *gin.Context) {
	args := postExportArgs{Quality: s.cfg.ExportQuality}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}
	if args.Quality == 0 {
		args.Quality = s.cfg.ExportQuality
	}

	if args.Path != "" {
		if _, err := imaging.SaveFormat(args.Path, args.Format); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	} else {
		if args.Format == "" {
			args.Format = s.cfg.ExportFormat
		}
		if _, _, err := imaging.ParseFormat(args.Format); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}

	img, err := s.session.Export()
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}

	if args.Path != "" {
		if err := imaging.Save(img, args.Path, args.Format, args.Quality); err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"path":   args.Path,
			"width":  img.Rect.Dx(),
			"height": img.Rect.Dy(),
		})
		return
	}

	var buf bytes.Buffer
	mime, err := imaging.Encode(&buf, img, args.Format, args.Quality)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ext := "jpg"
	if mime == "image/png" {
		ext = "png"
	}
	c.Header("Content-Disposition", "attachment; filename=export."+ext)
	c.Data(http.StatusOK, mime, buf.Bytes())
}
