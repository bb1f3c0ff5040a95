package reviews

import (
	"fmt"

	"github.com/thejavamonster/ohswebsite/internal/store"
)

// Vote is the tri-state client vote marker. There is no per-user vote
// history server-side: the client reports its own previous vote and the
// server turns the transition into a counter delta.
type Vote string

const (
	VoteNone Vote = "none"
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// CheckTransition validates a (prev, vote) pair before anything is touched.
// vote must be up or down; prev may additionally be none.
func CheckTransition(prev, vote Vote) error {
	if vote != VoteUp && vote != VoteDown {
		return fmt.Errorf("%w: vote must be %q or %q", ErrValidation, VoteUp, VoteDown)
	}
	if prev != VoteNone && prev != VoteUp && prev != VoteDown {
		return fmt.Errorf("%w: prev must be %q, %q or %q", ErrValidation, VoteNone, VoteUp, VoteDown)
	}
	return nil
}

// ApplyVote maps a validated transition onto the current counters:
//
//	prev == vote  retraction, the matching counter goes down
//	prev == none  new vote, the matching counter goes up
//	otherwise     switch, prev's counter down and vote's counter up
//
// Counters never go below zero.
func ApplyVote(prev, vote Vote, c store.VoteCounts) store.VoteCounts {
	switch {
	case prev == vote:
		c = bump(c, vote, -1)
	case prev == VoteNone:
		c = bump(c, vote, +1)
	default:
		c = bump(c, prev, -1)
		c = bump(c, vote, +1)
	}
	return c
}

// ReconcileVote is CheckTransition + ApplyVote in one call, for callers that
// already hold the current counters.
func ReconcileVote(prev, vote Vote, c store.VoteCounts) (store.VoteCounts, error) {
	if err := CheckTransition(prev, vote); err != nil {
		return store.VoteCounts{}, err
	}
	return ApplyVote(prev, vote, c), nil
}

func bump(c store.VoteCounts, v Vote, delta int) store.VoteCounts {
	if v == VoteUp {
		c.Upvotes = floor(c.Upvotes + delta)
	} else {
		c.Downvotes = floor(c.Downvotes + delta)
	}
	return c
}

func floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
