package engine

import (
	"errors"
	"testing"

	"github.com/Spark-Project-Pulse/backend/models"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		current   VoteState
		requested VoteKind
		delta     int64
		next      VoteState
	}{
		{StateNone, KindUpvote, +1, StateUpvote},
		{StateNone, KindDownvote, -1, StateDownvote},
		{StateUpvote, KindUpvote, -1, StateNone},
		{StateDownvote, KindDownvote, +1, StateNone},
		{StateUpvote, KindDownvote, -2, StateDownvote},
		{StateDownvote, KindUpvote, +2, StateUpvote},
	}
	for _, tc := range cases {
		delta, next, err := Transition(tc.current, tc.requested)
		if err != nil {
			t.Fatalf("transition(%s, %s): %v", tc.current, tc.requested, err)
		}
		if delta != tc.delta || next != tc.next {
			t.Fatalf("transition(%s, %s) = (%d, %s), want (%d, %s)",
				tc.current, tc.requested, delta, next, tc.delta, tc.next)
		}
	}
}

func TestTransitionRejectsUnknownKind(t *testing.T) {
	if _, _, err := Transition(StateNone, VoteKind("sideways")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCastVoteUpThenDown(t *testing.T) {
	e, db := testEngine(t)
	voter := createUser(t, db, "voter", 0)
	expert := createUser(t, db, "expert", 0)
	q := createQuestion(t, db, nil, nil)
	a := createAnswer(t, db, q.ID, &expert.ID)

	score, err := e.CastVote(voter.ID, a.ID, KindUpvote)
	if err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if score != 1 {
		t.Fatalf("score after upvote = %d, want 1", score)
	}
	var vote models.Vote
	if err := db.Where("user_id = ? AND answer_id = ?", voter.ID, a.ID).First(&vote).Error; err != nil {
		t.Fatalf("vote row missing: %v", err)
	}
	if vote.Kind != models.VoteUpvote {
		t.Fatalf("vote kind = %s, want upvote", vote.Kind)
	}

	// Switching direction moves the score by 2 and keeps a single row.
	score, err = e.CastVote(voter.ID, a.ID, KindDownvote)
	if err != nil {
		t.Fatalf("downvote: %v", err)
	}
	if score != -1 {
		t.Fatalf("score after switch = %d, want -1", score)
	}
	if n := voteRowCount(t, db, voter.ID, a.ID); n != 1 {
		t.Fatalf("vote rows = %d, want 1", n)
	}
	if err := db.Where("user_id = ? AND answer_id = ?", voter.ID, a.ID).First(&vote).Error; err != nil {
		t.Fatalf("vote row missing after switch: %v", err)
	}
	if vote.Kind != models.VoteDownvote {
		t.Fatalf("vote kind after switch = %s, want downvote", vote.Kind)
	}
}

// Casting the same kind twice toggles the vote off: final score equals the
// starting score and the row is gone. This retraction-on-repeat is intended
// behavior, not an idempotency bug.
func TestCastVoteSameKindTwiceRetracts(t *testing.T) {
	e, db := testEngine(t)
	voter := createUser(t, db, "voter", 0)
	expert := createUser(t, db, "expert", 0)
	q := createQuestion(t, db, nil, nil)
	a := createAnswer(t, db, q.ID, &expert.ID)

	if _, err := e.CastVote(voter.ID, a.ID, KindUpvote); err != nil {
		t.Fatalf("first upvote: %v", err)
	}
	score, err := e.CastVote(voter.ID, a.ID, KindUpvote)
	if err != nil {
		t.Fatalf("second upvote: %v", err)
	}
	if score != 0 {
		t.Fatalf("score after toggle-off = %d, want 0", score)
	}
	if n := voteRowCount(t, db, voter.ID, a.ID); n != 0 {
		t.Fatalf("vote rows after toggle-off = %d, want 0", n)
	}
}

// Whatever path a voter takes through the state machine, the score always
// equals the initial score plus the sum of applied deltas, and reaching a
// state nets the same score as reaching it directly.
func TestCastVotePathConvergence(t *testing.T) {
	e, db := testEngine(t)
	voter := createUser(t, db, "voter", 0)
	expert := createUser(t, db, "expert", 0)
	q := createQuestion(t, db, nil, nil)
	a := createAnswer(t, db, q.ID, &expert.ID)

	// none -> upvote -> downvote -> upvote should land on the same score as
	// none -> upvote on a fresh answer.
	for _, kind := range []VoteKind{KindUpvote, KindDownvote, KindUpvote} {
		if _, err := e.CastVote(voter.ID, a.ID, kind); err != nil {
			t.Fatalf("vote %s: %v", kind, err)
		}
	}
	roundabout := answerScore(t, db, a.ID)

	b := createAnswer(t, db, q.ID, &expert.ID)
	if _, err := e.CastVote(voter.ID, b.ID, KindUpvote); err != nil {
		t.Fatalf("direct upvote: %v", err)
	}
	direct := answerScore(t, db, b.ID)

	if roundabout != direct {
		t.Fatalf("path-dependent score: roundabout=%d direct=%d", roundabout, direct)
	}
}

func TestCastVoteDeltaSumMatchesScore(t *testing.T) {
	e, db := testEngine(t)
	voter := createUser(t, db, "voter", 0)
	expert := createUser(t, db, "expert", 0)
	q := createQuestion(t, db, nil, nil)
	a := createAnswer(t, db, q.ID, &expert.ID)

	before := answerScore(t, db, a.ID)
	state := StateNone
	var sum int64
	for _, kind := range []VoteKind{KindDownvote, KindDownvote, KindUpvote, KindUpvote, KindDownvote} {
		delta, next, err := Transition(state, kind)
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if _, err := e.CastVote(voter.ID, a.ID, kind); err != nil {
			t.Fatalf("vote %s: %v", kind, err)
		}
		sum += delta
		state = next
	}
	if got := answerScore(t, db, a.ID); got != before+sum {
		t.Fatalf("score = %d, want before(%d) + deltas(%d)", got, before, sum)
	}
}

func TestCastVoteUnknownAnswer(t *testing.T) {
	e, db := testEngine(t)
	voter := createUser(t, db, "voter", 0)
	if _, err := e.CastVote(voter.ID, 9999, KindUpvote); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCastVoteRejectsBadKind(t *testing.T) {
	e, _ := testEngine(t)
	if _, err := e.CastVote(1, 1, VoteKind("maybe")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// Two voters on the same answer must both land; deltas are additive, not
// last-writer-wins.
func TestCastVoteTwoVotersAccumulate(t *testing.T) {
	e, db := testEngine(t)
	alice := createUser(t, db, "alice", 0)
	bob := createUser(t, db, "bob", 0)
	expert := createUser(t, db, "expert", 0)
	q := createQuestion(t, db, nil, nil)
	a := createAnswer(t, db, q.ID, &expert.ID)

	if _, err := e.CastVote(alice.ID, a.ID, KindUpvote); err != nil {
		t.Fatalf("alice upvote: %v", err)
	}
	score, err := e.CastVote(bob.ID, a.ID, KindUpvote)
	if err != nil {
		t.Fatalf("bob upvote: %v", err)
	}
	if score != 2 {
		t.Fatalf("score after two upvotes = %d, want 2", score)
	}
}
