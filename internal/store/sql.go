package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thejavamonster/ohswebsite/internal/models"
)

// OpenDB opens a GORM connection from a DATABASE_URL. The prefix picks the
// driver: postgres:// for PostgreSQL, sqlite:// for a local file (or
// :memory:). Anything else is a configuration error.
func OpenDB(dbURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch {
	case strings.HasPrefix(dbURL, "postgres://"):
		dialector = postgres.Open(dbURL)
	case strings.HasPrefix(dbURL, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(dbURL, "sqlite://"))
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL %q: must start with postgres:// or sqlite://", dbURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// SQLStore is the relational backend: one reviews table, one replies table,
// joined by review_id. Vote updates take a per-review-id lock for the whole
// read-apply-write, so two racing votes on the same review serialize instead
// of clobbering each other.
type SQLStore struct {
	db     *gorm.DB
	lockMu sync.Mutex
	locks  map[string]*idLock
}

// idLock is reference-counted so the map entry can be dropped as soon as the
// last holder releases it; the locks map stays empty between votes.
type idLock struct {
	mu   sync.Mutex
	refs int
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, locks: make(map[string]*idLock)}
}

// AutoMigrate creates or updates the two tables.
func (s *SQLStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.Review{}, &models.Reply{})
}

func (s *SQLStore) acquire(reviewID string) *idLock {
	s.lockMu.Lock()
	l, ok := s.locks[reviewID]
	if !ok {
		l = &idLock{}
		s.locks[reviewID] = l
	}
	l.refs++
	s.lockMu.Unlock()

	l.mu.Lock()
	return l
}

func (s *SQLStore) release(reviewID string, l *idLock) {
	l.mu.Unlock()

	s.lockMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, reviewID)
	}
	s.lockMu.Unlock()
}

func (s *SQLStore) ListByCourse(courseID string) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Preload("Replies").Where("course_id = ?", courseID).Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return reviews, nil
}

func (s *SQLStore) GetOne(courseID, reviewID string) (*models.Review, error) {
	var review models.Review
	err := s.db.Preload("Replies").
		Where("course_id = ? AND id = ?", courseID, reviewID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &review, nil
}

func (s *SQLStore) CreateReview(courseID string, review *models.Review) error {
	review.CourseID = courseID
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Review{}).Where("id = ?", review.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if count > 0 {
			return ErrConflict
		}
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	})
}

func (s *SQLStore) AddReply(reviewID string, reply *models.Reply) error {
	reply.ReviewID = reviewID
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Review{}).Where("id = ?", reviewID).Count(&count).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Create(reply).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	})
}

func (s *SQLStore) UpdateVoteCounts(courseID, reviewID string, fn func(VoteCounts) VoteCounts) (VoteCounts, error) {
	l := s.acquire(reviewID)
	defer s.release(reviewID, l)

	var counts VoteCounts
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		err := tx.Where("course_id = ? AND id = ?", courseID, reviewID).First(&review).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		counts = fn(VoteCounts{Upvotes: review.Upvotes, Downvotes: review.Downvotes})
		err = tx.Model(&review).Updates(map[string]any{
			"upvotes":   counts.Upvotes,
			"downvotes": counts.Downvotes,
		}).Error
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return VoteCounts{}, err
	}
	return counts, nil
}

func (s *SQLStore) DeleteReview(courseID, reviewID string) (bool, error) {
	deleted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		err := tx.Where("course_id = ? AND id = ?", courseID, reviewID).First(&review).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		// Delete replies explicitly so the cascade behaves the same on
		// backends that ship with foreign keys disabled.
		if err := tx.Where("review_id = ?", reviewID).Delete(&models.Reply{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := tx.Delete(&review).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}
