package store

import (
	"errors"

	"github.com/thejavamonster/ohswebsite/internal/models"
)

// Errors shared by both backends. Providers surface these directly so the
// service layer can translate conditions identically regardless of which
// backend is active.
var (
	// ErrNotFound means the referenced review does not exist.
	ErrNotFound = errors.New("review not found")
	// ErrConflict means an entity with the same id already exists.
	ErrConflict = errors.New("id already exists")
	// ErrUnavailable means the backend could not be reached or read. The
	// request fails outright; retrying is the caller's decision.
	ErrUnavailable = errors.New("storage unavailable")
)

// VoteCounts is the aggregate counter pair carried by every review.
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// Store is the capability set both backends implement. It is deliberately
// dumb: no ordering guarantees, no validation, no authorization. Those are
// the service layer's job and must behave the same over either backend.
type Store interface {
	// ListByCourse returns all reviews for a course with replies attached,
	// in whatever order the backend keeps them.
	ListByCourse(courseID string) ([]models.Review, error)

	// GetOne returns a single review with replies, or ErrNotFound.
	GetOne(courseID, reviewID string) (*models.Review, error)

	// CreateReview persists a fully populated review. ErrConflict if the
	// id is already taken.
	CreateReview(courseID string, review *models.Review) error

	// AddReply persists a reply under an existing review. ErrNotFound if
	// the review does not exist; nothing is written in that case.
	AddReply(reviewID string, reply *models.Reply) error

	// UpdateVoteCounts applies fn to the review's current counters and
	// persists the result, serialized per review id. ErrNotFound if the
	// review is absent.
	UpdateVoteCounts(courseID, reviewID string, fn func(VoteCounts) VoteCounts) (VoteCounts, error)

	// DeleteReview removes a review and all of its replies. Returns false
	// (and no error) when the review was already gone.
	DeleteReview(courseID, reviewID string) (bool, error)
}
