package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/buildreviewer/reviewer-services/internal/reviewer"
	"github.com/buildreviewer/reviewer-services/internal/reviewer/service"
	"github.com/buildreviewer/reviewer-services/pkg/logger"
	"github.com/buildreviewer/reviewer-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// VideoLinker turns an object storage key into a playback URL.
type VideoLinker interface {
	PresignVideo(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Handler exposes the data service over HTTP.
type Handler struct {
	svc     service.DataService
	videos  VideoLinker
	linkTTL time.Duration
}

// New returns a Handler. videos may be nil, in which case video listings
// carry no playback links.
func New(svc service.DataService, videos VideoLinker, linkTTL time.Duration) *Handler {
	if linkTTL <= 0 {
		linkTTL = time.Hour
	}
	return &Handler{svc: svc, videos: videos, linkTTL: linkTTL}
}

// Register mounts the API under /api. When auth is non-nil it guards every
// write route and enables /api/v1/me/reviews. limit, when non-nil, runs on
// every route after auth, so authenticated callers are limited by subject.
func (h *Handler) Register(r gin.IRouter, auth, limit gin.HandlerFunc) {
	api := r.Group("/api")
	read := api.Group("", chain(limit)...)
	write := api.Group("", chain(auth, limit)...)

	read.GET("/businesses", h.listBusinesses)
	read.GET("/businesses/:id", h.getBusiness)
	read.GET("/businesses/:id/reviews", h.reviewsForBusiness)
	write.POST("/businesses", h.createBusiness)
	write.PUT("/businesses/:id", h.updateBusiness)

	read.GET("/authors/:id/reviews", h.reviewsByAuthor)
	read.GET("/reviews/:id", h.getReview)
	write.POST("/reviews", h.createReview)
	write.PUT("/reviews/:id", h.updateReview)

	read.GET("/reviews/:id/videos", h.listVideos)
	write.POST("/reviews/:id/videos", h.attachVideo)

	if auth != nil {
		write.GET("/v1/me/reviews", h.myReviews)
	} else {
		read.GET("/v1/me/reviews", func(c *gin.Context) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "authentication not configured"})
		})
	}
}

// chain drops nil handlers.
func chain(hs ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reviewer.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, reviewer.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) listBusinesses(c *gin.Context) {
	list, err := h.svc.GetBusinesses(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getBusiness(c *gin.Context) {
	b, err := h.svc.GetBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) createBusiness(c *gin.Context) {
	var b reviewer.Business
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.InsertBusiness(c.Request.Context(), &b); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) updateBusiness(c *gin.Context) {
	var b reviewer.Business
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.ID = c.Param("id")
	if err := h.svc.UpdateBusiness(c.Request.Context(), &b); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) reviewsForBusiness(c *gin.Context) {
	list, err := h.svc.GetReviewsForBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) reviewsByAuthor(c *gin.Context) {
	list, err := h.svc.GetReviewsByAuthor(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) myReviews(c *gin.Context) {
	sub := middleware.Subject(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
		return
	}
	list, err := h.svc.GetReviewsByAuthor(c.Request.Context(), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getReview(c *gin.Context) {
	r, err := h.svc.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) createReview(c *gin.Context) {
	var r reviewer.Review
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if r.AuthorID == "" {
		r.AuthorID = middleware.Subject(c)
	}
	if err := h.svc.InsertReview(c.Request.Context(), &r); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// updateReview responds with the stored review, whose videos may differ from
// the request body.
func (h *Handler) updateReview(c *gin.Context) {
	var r reviewer.Review
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.ID = c.Param("id")
	if err := h.svc.UpdateReview(c.Request.Context(), &r); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type videoLink struct {
	reviewer.Video
	PlaybackURL string `json:"playbackUrl,omitempty"`
}

func (h *Handler) listVideos(c *gin.Context) {
	r, err := h.svc.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]videoLink, 0, len(r.Videos))
	for _, v := range r.Videos {
		link := videoLink{Video: v}
		if h.videos != nil && v.ObjectKey != "" {
			u, err := h.videos.PresignVideo(c.Request.Context(), v.ObjectKey, h.linkTTL)
			if err != nil {
				logger.Warnf("presign video %s for review %s: %v", v.ObjectKey, r.ID, err)
			} else {
				link.PlaybackURL = u
			}
		}
		out = append(out, link)
	}
	c.JSON(http.StatusOK, out)
}

// attachVideo is called by the media pipeline once a video is processed.
func (h *Handler) attachVideo(c *gin.Context) {
	var v reviewer.Video
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if v.HLSURL == "" && v.ObjectKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hlsUrl or objectKey required"})
		return
	}
	if err := h.svc.AttachVideo(c.Request.Context(), c.Param("id"), v); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
