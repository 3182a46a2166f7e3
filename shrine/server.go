// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"crypto/subtle"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qingshui/landgods/spatial"
)

// maxPhotoBytes bounds one submission's photo. Cloudinary's free tier
// rejects larger files anyway.
const maxPhotoBytes = 10 << 20

// Server exposes the admission pipeline and the read APIs over HTTP.
type Server struct {
	cfg        *Config
	pipeline   *Pipeline
	aggregator *Aggregator
	reconciler *Reconciler
	records    RecordStore
}

// NewServer wires the HTTP layer around the core components.
func NewServer(cfg *Config, pipeline *Pipeline, aggregator *Aggregator, reconciler *Reconciler, records RecordStore) *Server {
	return &Server{
		cfg:        cfg,
		pipeline:   pipeline,
		aggregator: aggregator,
		reconciler: reconciler,
		records:    records,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	r.POST("/api/submissions", s.submit)
	r.GET("/api/data", s.listData)
	r.GET("/api/rank", s.rank)

	admin := r.Group("/api", s.requireAdmin)
	admin.POST("/rescue", s.rescue)
	admin.DELETE("/records/:id", s.deleteRecord)

	return r
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	return s.Router().Run(s.cfg.ListenAddr)
}

func (s *Server) requireAdmin(ctx *gin.Context) {
	secret := s.cfg.AdminSecret
	given := ctx.GetHeader("X-Admin-Secret")

	// An unset secret locks the admin surface instead of opening it.
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(given)) != 1 {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "permission denied"})

		return
	}

	ctx.Next()
}

func outcomeHTTPStatus(o *Outcome) int {
	switch o.Status {
	case StatusAccepted:
		return http.StatusOK
	case StatusPending:
		return http.StatusAccepted
	case StatusRejected:
		if o.Reason == ReasonOutOfRegion {
			return http.StatusUnprocessableEntity
		}

		return http.StatusBadRequest
	default:
		if o.Reason == ReasonPersistFailed {
			return http.StatusInternalServerError
		}

		return http.StatusBadGateway
	}
}

func (s *Server) submit(ctx *gin.Context) {
	lat, latErr := strconv.ParseFloat(ctx.PostForm("lat"), 64)
	lng, lngErr := strconv.ParseFloat(ctx.PostForm("lng"), 64)

	fileHeader, fileErr := ctx.FormFile("photo")
	if latErr != nil || lngErr != nil || fileErr != nil {
		ctx.JSON(http.StatusBadRequest, Outcome{
			Status:  StatusRejected,
			Reason:  ReasonMissingField,
			Message: "缺少照片或座標",
		})

		return
	}

	if fileHeader.Size > maxPhotoBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, Outcome{
			Status:  StatusRejected,
			Reason:  ReasonMissingField,
			Message: "照片太大",
		})

		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, Outcome{
			Status:  StatusRejected,
			Reason:  ReasonMissingField,
			Message: "照片無法讀取",
		})

		return
	}
	defer file.Close()

	photo, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, Outcome{
			Status:  StatusRejected,
			Reason:  ReasonMissingField,
			Message: "照片無法讀取",
		})

		return
	}

	outcome := s.pipeline.Submit(ctx.Request.Context(), &Submission{
		Photo:    photo,
		Point:    spatial.Point{Lat: lat, Lng: lng},
		Note:     ctx.PostForm("note"),
		Nickname: ctx.PostForm("nickname"),
	})

	ctx.JSON(outcomeHTTPStatus(outcome), outcome)
}

// DataItem is one record as rendered on the map page. Field order is
// stable: the frontend indexes into the JSON by position.
type DataItem struct {
	ID        int64     `json:"id"`
	ImageURL  string    `json:"image_url"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Note      string    `json:"note"`
	Nickname  string    `json:"nickname"`
	Area      string    `json:"area"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) listData(ctx *gin.Context) {
	records, err := s.records.ListAll()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	items := make([]DataItem, 0, len(records))

	for _, rec := range records {
		items = append(items, DataItem{
			ID:        rec.ID,
			ImageURL:  rec.ImageURL,
			Lat:       rec.Point.Lat,
			Lng:       rec.Point.Lng,
			Note:      rec.Note,
			Nickname:  rec.DisplayName(),
			Area:      rec.Area,
			CreatedAt: rec.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, items)
}

func (s *Server) rank(ctx *gin.Context) {
	boards, err := s.aggregator.Leaderboards()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, boards)
}

func (s *Server) rescue(ctx *gin.Context) {
	report, err := s.reconciler.Reconcile(ctx.Request.Context(), nil)
	if err != nil {
		log.Printf("rescue failed: %v", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, report)
}

func (s *Server) deleteRecord(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})

		return
	}

	deleted, err := s.records.DeleteByID(id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if !deleted {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "record not found"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
