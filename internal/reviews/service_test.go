package reviews

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thejavamonster/ohswebsite/internal/models"
	"github.com/thejavamonster/ohswebsite/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	doc := store.NewDocumentStore(filepath.Join(t.TempDir(), "reviews.json"))
	svc := NewService(doc)

	// Deterministic ids and a ticking clock so ordering is testable.
	seq := 0
	base := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%04d", seq)
	}
	svc.now = func() time.Time {
		seq++
		return base.Add(time.Duration(seq) * time.Minute)
	}
	return svc
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func TestCreateAssignsServerFields(t *testing.T) {
	svc := newTestService(t)

	review, err := svc.Create("cs101", ReviewDraft{
		Text:   "Great course overall",
		Rating: intptr(5),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, review.ID)
	assert.Equal(t, "cs101", review.CourseID)
	assert.Equal(t, "published", review.Status)
	assert.Equal(t, 0, review.Upvotes)
	assert.Equal(t, 0, review.Downvotes)
	assert.False(t, review.CreatedAt.IsZero())
}

func TestCreateRejectsShortText(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create("cs101", ReviewDraft{Text: "meh"})
	assert.ErrorIs(t, err, ErrValidation)

	list, err := svc.List("cs101")
	require.NoError(t, err)
	assert.Empty(t, list, "rejected create must not write")
}

func TestCreateCountsCharactersNotBytes(t *testing.T) {
	svc := newTestService(t)

	// Five characters, fifteen bytes: still too short.
	_, err := svc.Create("cs101", ReviewDraft{Text: "很好的课程"})
	assert.ErrorIs(t, err, ErrValidation)

	// Six characters pass.
	_, err = svc.Create("cs101", ReviewDraft{Text: "很好的课程啊"})
	require.NoError(t, err)
}

func TestCreateRejectsOutOfRangeRating(t *testing.T) {
	svc := newTestService(t)

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Create("cs101", ReviewDraft{Text: "long enough text", Rating: intptr(rating)})
		assert.ErrorIs(t, err, ErrValidation, "rating %d", rating)
	}
}

func TestListOrdering(t *testing.T) {
	svc := newTestService(t)

	// Created in this order: a (oldest) then b then c (newest).
	a, err := svc.Create("cs101", ReviewDraft{Text: "first review"})
	require.NoError(t, err)
	b, err := svc.Create("cs101", ReviewDraft{Text: "second review"})
	require.NoError(t, err)
	c, err := svc.Create("cs101", ReviewDraft{Text: "third review"})
	require.NoError(t, err)

	// b gets two upvotes, a gets one; c stays at score 0.
	_, err = svc.Vote("cs101", b.ID, VoteUp, VoteNone)
	require.NoError(t, err)
	_, err = svc.Vote("cs101", b.ID, VoteUp, VoteNone)
	require.NoError(t, err)
	_, err = svc.Vote("cs101", a.ID, VoteUp, VoteNone)
	require.NoError(t, err)

	list, err := svc.List("cs101")
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Score descending: b (2), a (1), c (0).
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
	assert.Equal(t, c.ID, list[2].ID)
}

func TestListBreaksTiesByNewest(t *testing.T) {
	svc := newTestService(t)

	older, err := svc.Create("cs101", ReviewDraft{Text: "older review"})
	require.NoError(t, err)
	newer, err := svc.Create("cs101", ReviewDraft{Text: "newer review"})
	require.NoError(t, err)

	list, err := svc.List("cs101")
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Both score 0: most recent wins the tie.
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestListSortsRepliesNewestFirst(t *testing.T) {
	svc := newTestService(t)

	review, err := svc.Create("cs101", ReviewDraft{Text: "review with replies"})
	require.NoError(t, err)

	first, err := svc.AddReply("cs101", review.ID, ReplyDraft{Text: "first reply"})
	require.NoError(t, err)
	second, err := svc.AddReply("cs101", review.ID, ReplyDraft{Text: "second reply"})
	require.NoError(t, err)

	list, err := svc.List("cs101")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Replies, 2)
	assert.Equal(t, second.ID, list[0].Replies[0].ID)
	assert.Equal(t, first.ID, list[0].Replies[1].ID)
}

func TestAddReplyToMissingReview(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AddReply("cs101", "no-such-review", ReplyDraft{Text: "hello"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := svc.List("cs101")
	require.NoError(t, err)
	assert.Empty(t, list, "failed reply must write nothing")
}

func TestAddReplyRejectsEmptyText(t *testing.T) {
	svc := newTestService(t)

	review, err := svc.Create("cs101", ReviewDraft{Text: "review for reply"})
	require.NoError(t, err)

	_, err = svc.AddReply("cs101", review.ID, ReplyDraft{Text: "   "})
	assert.ErrorIs(t, err, ErrValidation)
}

// The full vote scenario: new upvote, switch to downvote, retract.
func TestVoteScenario(t *testing.T) {
	svc := newTestService(t)

	review, err := svc.Create("cs101", ReviewDraft{Text: "Great course overall", Rating: intptr(5)})
	require.NoError(t, err)

	counts, err := svc.Vote("cs101", review.ID, VoteUp, VoteNone)
	require.NoError(t, err)
	assert.Equal(t, store.VoteCounts{Upvotes: 1, Downvotes: 0}, counts)

	counts, err = svc.Vote("cs101", review.ID, VoteDown, VoteUp)
	require.NoError(t, err)
	assert.Equal(t, store.VoteCounts{Upvotes: 0, Downvotes: 1}, counts)

	counts, err = svc.Vote("cs101", review.ID, VoteDown, VoteDown)
	require.NoError(t, err)
	assert.Equal(t, store.VoteCounts{Upvotes: 0, Downvotes: 0}, counts)
}

func TestVoteValidatesBeforeTouchingStore(t *testing.T) {
	svc := newTestService(t)

	review, err := svc.Create("cs101", ReviewDraft{Text: "validated review"})
	require.NoError(t, err)

	_, err = svc.Vote("cs101", review.ID, Vote("bogus"), VoteNone)
	assert.ErrorIs(t, err, ErrValidation)

	got, err := svc.List("cs101")
	require.NoError(t, err)
	assert.Equal(t, 0, got[0].Upvotes)
	assert.Equal(t, 0, got[0].Downvotes)
}

func TestVoteOnMissingReview(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Vote("cs101", "ghost", VoteUp, VoteNone)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteAuthorization(t *testing.T) {
	svc := newTestService(t)

	review, err := svc.Create("cs101", ReviewDraft{
		Text:        "owned review text",
		PosterEmail: strptr("Owner@Example.com"),
	})
	require.NoError(t, err)

	// A stranger may not delete.
	err = svc.Delete("cs101", review.ID, "stranger@example.com", false)
	assert.ErrorIs(t, err, ErrForbidden)

	// Anonymous may not delete.
	err = svc.Delete("cs101", review.ID, "", false)
	assert.ErrorIs(t, err, ErrForbidden)

	// The owner may, case-insensitively.
	err = svc.Delete("cs101", review.ID, "owner@example.COM", false)
	require.NoError(t, err)

	_, err = svc.Vote("cs101", review.ID, VoteUp, VoteNone)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteByAdminCascades(t *testing.T) {
	svc := newTestService(t)

	review, err := svc.Create("cs101", ReviewDraft{
		Text:        "review to be moderated",
		PosterEmail: strptr("someone@example.com"),
	})
	require.NoError(t, err)
	_, err = svc.AddReply("cs101", review.ID, ReplyDraft{Text: "a reply"})
	require.NoError(t, err)

	err = svc.Delete("cs101", review.ID, "admin@example.com", true)
	require.NoError(t, err)

	list, err := svc.List("cs101")
	require.NoError(t, err)
	assert.Empty(t, list, "review and its replies are gone")
}

func TestDeleteMissingReview(t *testing.T) {
	svc := newTestService(t)

	err := svc.Delete("cs101", "ghost", "anyone@example.com", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListDefaultsLegacyRows(t *testing.T) {
	svc := newTestService(t)

	review, err := svc.Create("cs101", ReviewDraft{Text: "legacy-ish review"})
	require.NoError(t, err)

	list, err := svc.List("cs101")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, review.ID, list[0].ID)
	assert.NotNil(t, list[0].Replies)
	assert.IsType(t, []models.Reply{}, list[0].Replies)
}
