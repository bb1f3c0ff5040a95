package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thejavamonster/ohswebsite/internal/reviews"
	"github.com/thejavamonster/ohswebsite/internal/store"
)

// --- Structs for request binding ---

type CreateReviewInput struct {
	Text   string  `json:"text" binding:"required"`
	Rating *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Author *string `json:"author"`
}

type CreateReplyInput struct {
	Text   string  `json:"text" binding:"required"`
	Author *string `json:"author"`
}

// VoteInput carries the client's new vote and its self-reported previous
// vote. prev may be null, meaning no previous vote.
type VoteInput struct {
	Vote string  `json:"vote" binding:"required,oneof=up down"`
	Prev *string `json:"prev" binding:"omitempty,oneof=up down none"`
}

// --- Handlers ---

type Env struct {
	Svc *reviews.Service
	Log *zap.Logger
}

func (e *Env) ListReviews(c *gin.Context) {
	list, err := e.Svc.List(c.Param("course"))
	if err != nil {
		e.fail(c, "fetch reviews", err)
		return
	}
	c.JSON(http.StatusOK, reviews.Render(list, identityFrom(c)))
}

func (e *Env) CreateReview(c *gin.Context) {
	var input CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	ident := identityFrom(c)
	draft := reviews.ReviewDraft{
		Text:        input.Text,
		Rating:      input.Rating,
		Author:      input.Author,
		PosterEmail: optional(ident.Email),
		PosterSid:   optional(c.GetString(ctxSessionID)),
	}
	review, err := e.Svc.Create(c.Param("course"), draft)
	if err != nil {
		e.fail(c, "create review", err)
		return
	}
	c.JSON(http.StatusCreated, reviews.RenderReview(review, ident))
}

func (e *Env) AddReply(c *gin.Context) {
	var input CreateReplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	ident := identityFrom(c)
	draft := reviews.ReplyDraft{
		Text:        input.Text,
		Author:      input.Author,
		PosterEmail: optional(ident.Email),
		PosterSid:   optional(c.GetString(ctxSessionID)),
	}
	reply, err := e.Svc.AddReply(c.Param("course"), c.Param("id"), draft)
	if err != nil {
		e.fail(c, "add reply", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": reply.ID, "created_at": reply.CreatedAt})
}

func (e *Env) VoteOnReview(c *gin.Context) {
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	prev := reviews.VoteNone
	if input.Prev != nil {
		prev = reviews.Vote(*input.Prev)
	}
	counts, err := e.Svc.Vote(c.Param("course"), c.Param("id"), reviews.Vote(input.Vote), prev)
	if err != nil {
		e.fail(c, "vote", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (e *Env) DeleteReview(c *gin.Context) {
	ident := identityFrom(c)
	err := e.Svc.Delete(c.Param("course"), c.Param("id"), ident.Email, ident.IsAdmin)
	if err != nil {
		e.fail(c, "delete review", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// fail maps the service/store error taxonomy onto HTTP statuses. Storage
// failures are logged server-side and surfaced without detail.
func (e *Env) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, reviews.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, reviews.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Duplicate id"})
	case errors.Is(err, store.ErrUnavailable):
		e.Log.Error("storage unavailable", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
	default:
		e.Log.Error("request failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
