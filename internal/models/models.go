package models

import (
	"time"
)

// Review is a single course review. The same struct is persisted by both
// backends: the gorm tags drive the relational tables, the json tags drive
// the flat document file.
//
// PosterEmail and PosterSid are the true identity recorded at creation.
// They are authorization/audit data, not display data, and must never reach
// a non-admin caller (see the reviews package view types).
type Review struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	CourseID    string    `gorm:"index;not null" json:"course_id"`
	Rating      *int      `json:"rating,omitempty"`
	Author      *string   `json:"author"` // nil means anonymous
	Text        string    `gorm:"not null" json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	Status      string    `gorm:"not null;default:published" json:"status"`
	Upvotes     int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes   int       `gorm:"not null;default:0" json:"downvotes"`
	PosterEmail *string   `json:"poster_email,omitempty"`
	PosterSid   *string   `json:"poster_sid,omitempty"`
	Replies     []Reply   `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"replies"`
}

// Reply is a threaded answer under a review. Replies are never edited after
// creation and are only removed when their review is deleted.
type Reply struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	ReviewID    string    `gorm:"index;not null" json:"review_id"`
	Author      *string   `json:"author"`
	Text        string    `gorm:"not null" json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	PosterEmail *string   `json:"poster_email,omitempty"`
	PosterSid   *string   `json:"poster_sid,omitempty"`
}
