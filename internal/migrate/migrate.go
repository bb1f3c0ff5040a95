package migrate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thejavamonster/ohswebsite/internal/models"
	"github.com/thejavamonster/ohswebsite/internal/store"
)

// Stats counts what a run actually inserted. Re-running against an already
// migrated database reports zeros.
type Stats struct {
	Courses int
	Reviews int
	Replies int
	Skipped int
}

// Run copies the document store's full mapping into the relational tables.
//
// The document file keeps reviews (and replies) newest-first, so each list
// is walked in reverse to insert oldest-first: consumers that fall back to
// insertion order instead of created_at keep the same ordering. Every row
// is inserted with on-conflict-do-nothing keyed by id, which makes the whole
// job safe to abort and re-run from the start.
func Run(doc *store.DocumentStore, db *gorm.DB, log *zap.Logger) (Stats, error) {
	mapping, err := doc.Snapshot()
	if err != nil {
		return Stats{}, fmt.Errorf("read document store: %w", err)
	}

	courseIDs := make([]string, 0, len(mapping))
	for id := range mapping {
		courseIDs = append(courseIDs, id)
	}
	sort.Strings(courseIDs)

	var stats Stats
	for _, courseID := range courseIDs {
		reviews := mapping[courseID]
		stats.Courses++
		for i := len(reviews) - 1; i >= 0; i-- {
			review := reviews[i]
			replies := review.Replies

			fillReviewDefaults(&review, courseID)
			review.Replies = nil // replies are inserted as their own rows

			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&review)
			if res.Error != nil {
				return stats, fmt.Errorf("upsert review %s: %w", review.ID, res.Error)
			}
			if res.RowsAffected > 0 {
				stats.Reviews++
			} else {
				stats.Skipped++
			}

			for j := len(replies) - 1; j >= 0; j-- {
				reply := replies[j]
				fillReplyDefaults(&reply, review.ID, j)
				res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&reply)
				if res.Error != nil {
					return stats, fmt.Errorf("upsert reply %s: %w", reply.ID, res.Error)
				}
				if res.RowsAffected > 0 {
					stats.Replies++
				} else {
					stats.Skipped++
				}
			}
		}
		log.Info("course migrated",
			zap.String("course_id", courseID),
			zap.Int("reviews", len(reviews)))
	}
	return stats, nil
}

func fillReviewDefaults(r *models.Review, courseID string) {
	r.CourseID = courseID
	if r.ID == "" {
		// Derived from the row's own content, before any other defaulting,
		// so a re-run maps the same document row to the same id and the
		// on-conflict skip keeps the job idempotent.
		r.ID = legacyID(courseID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Text)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = "published"
	}
	if r.Upvotes < 0 {
		r.Upvotes = 0
	}
	if r.Downvotes < 0 {
		r.Downvotes = 0
	}
}

func fillReplyDefaults(r *models.Reply, reviewID string, position int) {
	r.ReviewID = reviewID
	if r.ID == "" {
		r.ID = legacyID(reviewID, strconv.Itoa(position))
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

// legacyID builds a stable name-based id for rows the document file stored
// without one.
func legacyID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "|"))).String()
}
