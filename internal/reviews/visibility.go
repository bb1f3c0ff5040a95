package reviews

import (
	"strings"
	"time"

	"github.com/thejavamonster/ohswebsite/internal/models"
)

// Identity is the opaque requester context handed in by the outer auth
// layer. Email is empty for anonymous requesters.
type Identity struct {
	Email   string
	IsAdmin bool
}

// ReviewView is the outward shape of a review. Poster fields are pointers
// with omitempty so their keys disappear entirely from non-admin responses.
type ReviewView struct {
	ID          string      `json:"id"`
	CourseID    string      `json:"course_id"`
	Rating      *int        `json:"rating,omitempty"`
	Author      *string     `json:"author"`
	Text        string      `json:"text"`
	CreatedAt   time.Time   `json:"created_at"`
	Status      string      `json:"status"`
	Upvotes     int         `json:"upvotes"`
	Downvotes   int         `json:"downvotes"`
	CanDelete   bool        `json:"can_delete"`
	PosterEmail *string     `json:"poster_email,omitempty"`
	PosterSid   *string     `json:"poster_sid,omitempty"`
	Replies     []ReplyView `json:"replies"`
}

// ReplyView is the outward shape of a reply.
type ReplyView struct {
	ID          string    `json:"id"`
	ReviewID    string    `json:"review_id"`
	Author      *string   `json:"author"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	PosterEmail *string   `json:"poster_email,omitempty"`
	PosterSid   *string   `json:"poster_sid,omitempty"`
}

// Render shapes a review list for one requester. Admins see the poster
// fields and the poster's email local-part in place of the display author;
// everyone else gets the stored author and no poster fields at all. This
// runs on every outward-facing read: raw service output is never returned
// to a caller directly.
func Render(reviews []models.Review, ident Identity) []ReviewView {
	views := make([]ReviewView, 0, len(reviews))
	for i := range reviews {
		views = append(views, RenderReview(&reviews[i], ident))
	}
	return views
}

// RenderReview shapes a single review for one requester.
func RenderReview(r *models.Review, ident Identity) ReviewView {
	v := ReviewView{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Rating:    r.Rating,
		Author:    r.Author,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
		Status:    r.Status,
		Upvotes:   r.Upvotes,
		Downvotes: r.Downvotes,
		CanDelete: canDelete(r.PosterEmail, ident),
		Replies:   make([]ReplyView, 0, len(r.Replies)),
	}
	if ident.IsAdmin {
		v.PosterEmail = r.PosterEmail
		v.PosterSid = r.PosterSid
		if r.PosterEmail != nil {
			lp := localPart(*r.PosterEmail)
			v.Author = &lp
		}
	}
	for j := range r.Replies {
		v.Replies = append(v.Replies, renderReply(&r.Replies[j], ident))
	}
	return v
}

func renderReply(r *models.Reply, ident Identity) ReplyView {
	v := ReplyView{
		ID:        r.ID,
		ReviewID:  r.ReviewID,
		Author:    r.Author,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
	if ident.IsAdmin {
		v.PosterEmail = r.PosterEmail
		v.PosterSid = r.PosterSid
		if r.PosterEmail != nil {
			lp := localPart(*r.PosterEmail)
			v.Author = &lp
		}
	}
	return v
}

func canDelete(posterEmail *string, ident Identity) bool {
	if ident.IsAdmin {
		return true
	}
	return ident.Email != "" && posterEmail != nil && strings.EqualFold(*posterEmail, ident.Email)
}

func localPart(email string) string {
	if at, _, ok := strings.Cut(email, "@"); ok {
		return at
	}
	return email
}
