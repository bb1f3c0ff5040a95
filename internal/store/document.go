package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/thejavamonster/ohswebsite/internal/models"
)

// DocumentStore keeps every course's reviews inside one JSON file: a mapping
// from course id to a newest-first list of reviews with replies embedded.
// Every mutation loads the whole mapping, edits it in memory and writes it
// all back under a single mutex, so mutations are serialized process-wide.
// A second process writing the same file can still lose updates; that is the
// accepted limitation of this backend.
type DocumentStore struct {
	mu   sync.Mutex
	path string
}

func NewDocumentStore(path string) *DocumentStore {
	return &DocumentStore{path: path}
}

type courseMap map[string][]models.Review

func (s *DocumentStore) load() (courseMap, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return courseMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}
	m := courseMap{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, s.path, err)
	}
	return m, nil
}

func (s *DocumentStore) save(m courseMap) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrUnavailable, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, s.path, err)
	}
	return nil
}

func (s *DocumentStore) ListByCourse(courseID string) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil, err
	}
	reviews := make([]models.Review, len(m[courseID]))
	copy(reviews, m[courseID])
	return reviews, nil
}

func (s *DocumentStore) GetOne(courseID, reviewID string) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, r := range m[courseID] {
		if r.ID == reviewID {
			review := r
			return &review, nil
		}
	}
	return nil, ErrNotFound
}

func (s *DocumentStore) CreateReview(courseID string, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	// Ids are globally unique, so the scan covers every course.
	for _, reviews := range m {
		for _, r := range reviews {
			if r.ID == review.ID {
				return ErrConflict
			}
		}
	}
	// Newest first within a course.
	m[courseID] = append([]models.Review{*review}, m[courseID]...)
	return s.save(m)
}

func (s *DocumentStore) AddReply(reviewID string, reply *models.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	for courseID, reviews := range m {
		for i, r := range reviews {
			if r.ID == reviewID {
				reply.ReviewID = reviewID
				reviews[i].Replies = append([]models.Reply{*reply}, r.Replies...)
				m[courseID] = reviews
				return s.save(m)
			}
		}
	}
	return ErrNotFound
}

func (s *DocumentStore) UpdateVoteCounts(courseID, reviewID string, fn func(VoteCounts) VoteCounts) (VoteCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return VoteCounts{}, err
	}
	for i, r := range m[courseID] {
		if r.ID == reviewID {
			counts := fn(VoteCounts{Upvotes: r.Upvotes, Downvotes: r.Downvotes})
			m[courseID][i].Upvotes = counts.Upvotes
			m[courseID][i].Downvotes = counts.Downvotes
			if err := s.save(m); err != nil {
				return VoteCounts{}, err
			}
			return counts, nil
		}
	}
	return VoteCounts{}, ErrNotFound
}

func (s *DocumentStore) DeleteReview(courseID, reviewID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return false, err
	}
	reviews := m[courseID]
	for i, r := range reviews {
		if r.ID == reviewID {
			// Replies are embedded, so dropping the review drops them too.
			m[courseID] = append(reviews[:i:i], reviews[i+1:]...)
			if err := s.save(m); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// Snapshot returns the full course mapping as stored on disk. Used by the
// migration job, which needs the raw newest-first document shape.
func (s *DocumentStore) Snapshot() (map[string][]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}
