package reviews

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/thejavamonster/ohswebsite/internal/models"
	"github.com/thejavamonster/ohswebsite/internal/store"
)

var (
	// ErrValidation means the input was rejected before any mutation.
	ErrValidation = errors.New("invalid input")
	// ErrForbidden means the requester may not perform the operation.
	ErrForbidden = errors.New("forbidden")
)

const minReviewLength = 6

// Service is the repository layer over whichever backend is active. It owns
// everything the backends deliberately don't: deterministic ordering, input
// validation, id and timestamp assignment, and delete authorization.
type Service struct {
	store store.Store

	now   func() time.Time
	newID func() string
}

func NewService(st store.Store) *Service {
	return &Service{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// ReviewDraft is the caller-supplied part of a new review. Poster identity
// comes from the request's session, never from the body.
type ReviewDraft struct {
	Text        string
	Rating      *int
	Author      *string
	PosterEmail *string
	PosterSid   *string
}

// ReplyDraft is the caller-supplied part of a new reply.
type ReplyDraft struct {
	Text        string
	Author      *string
	PosterEmail *string
	PosterSid   *string
}

// List returns a course's reviews sorted by score (upvotes minus downvotes)
// descending, ties broken by newest first. Replies within each review are
// sorted newest first. Rows written before vote counters existed come back
// with zeroed counters and an empty reply list.
func (s *Service) List(courseID string) ([]models.Review, error) {
	reviews, err := s.store.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		if reviews[i].Status == "" {
			reviews[i].Status = "published"
		}
		if reviews[i].Replies == nil {
			reviews[i].Replies = []models.Reply{}
		}
		sort.SliceStable(reviews[i].Replies, func(a, b int) bool {
			return reviews[i].Replies[a].CreatedAt.After(reviews[i].Replies[b].CreatedAt)
		})
	}
	sort.SliceStable(reviews, func(a, b int) bool {
		sa := reviews[a].Upvotes - reviews[a].Downvotes
		sb := reviews[b].Upvotes - reviews[b].Downvotes
		if sa != sb {
			return sa > sb
		}
		return reviews[a].CreatedAt.After(reviews[b].CreatedAt)
	})
	return reviews, nil
}

// Create validates a draft, fills in the server-assigned fields and persists
// the review.
func (s *Service) Create(courseID string, draft ReviewDraft) (*models.Review, error) {
	if utf8.RuneCountInString(strings.TrimSpace(draft.Text)) < minReviewLength {
		return nil, fmt.Errorf("%w: review text must be at least %d characters", ErrValidation, minReviewLength)
	}
	if draft.Rating != nil && (*draft.Rating < 1 || *draft.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	review := &models.Review{
		ID:          s.newID(),
		CourseID:    courseID,
		Rating:      draft.Rating,
		Author:      draft.Author,
		Text:        draft.Text,
		CreatedAt:   s.now(),
		Status:      "published",
		PosterEmail: draft.PosterEmail,
		PosterSid:   draft.PosterSid,
		Replies:     []models.Reply{},
	}
	if err := s.store.CreateReview(courseID, review); err != nil {
		return nil, err
	}
	return review, nil
}

// AddReply validates a draft and attaches it to an existing review. The
// parent is checked explicitly so both backends fail the same way.
func (s *Service) AddReply(courseID, reviewID string, draft ReplyDraft) (*models.Reply, error) {
	if strings.TrimSpace(draft.Text) == "" {
		return nil, fmt.Errorf("%w: reply text must not be empty", ErrValidation)
	}
	if _, err := s.store.GetOne(courseID, reviewID); err != nil {
		return nil, err
	}

	reply := &models.Reply{
		ID:          s.newID(),
		ReviewID:    reviewID,
		Author:      draft.Author,
		Text:        draft.Text,
		CreatedAt:   s.now(),
		PosterEmail: draft.PosterEmail,
		PosterSid:   draft.PosterSid,
	}
	if err := s.store.AddReply(reviewID, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// Vote applies a tri-state vote transition to a review's counters. The
// transition is validated up front; the store serializes the counter update
// per review id.
func (s *Service) Vote(courseID, reviewID string, vote, prev Vote) (store.VoteCounts, error) {
	if err := CheckTransition(prev, vote); err != nil {
		return store.VoteCounts{}, err
	}
	return s.store.UpdateVoteCounts(courseID, reviewID, func(c store.VoteCounts) store.VoteCounts {
		return ApplyVote(prev, vote, c)
	})
}

// Delete removes a review and its replies, if the requester is the poster or
// an admin. Poster comparison is by email, case-insensitive.
func (s *Service) Delete(courseID, reviewID, requesterEmail string, isAdmin bool) error {
	review, err := s.store.GetOne(courseID, reviewID)
	if err != nil {
		return err
	}
	owner := requesterEmail != "" &&
		review.PosterEmail != nil &&
		strings.EqualFold(*review.PosterEmail, requesterEmail)
	if !isAdmin && !owner {
		return fmt.Errorf("%w: only the poster or an admin can delete a review", ErrForbidden)
	}
	deleted, err := s.store.DeleteReview(courseID, reviewID)
	if err != nil {
		return err
	}
	if !deleted {
		return store.ErrNotFound
	}
	return nil
}
