package voting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FerDoranNie/Video-judgement/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyVoteStorage fails the next N calls of a given kind before
// delegating, so delivery and duplicate-check retries can be exercised
// without a real outage.
type flakyVoteStorage struct {
	*storage.MemoryVoteStorage
	mu           sync.Mutex
	failNext     int
	failHasVoted int
}

func (f *flakyVoteStorage) failNextCreates(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}

func (f *flakyVoteStorage) failNextHasVoted(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failHasVoted = n
}

func (f *flakyVoteStorage) Create(ctx context.Context, vote *storage.VoteRecord) error {
	f.mu.Lock()
	if f.failNext > 0 {
		f.failNext--
		f.mu.Unlock()
		return errors.New("simulated storage outage")
	}
	f.mu.Unlock()
	return f.MemoryVoteStorage.Create(ctx, vote)
}

func (f *flakyVoteStorage) HasVoted(ctx context.Context, code, displayName, employeeID string) (bool, error) {
	f.mu.Lock()
	if f.failHasVoted > 0 {
		f.failHasVoted--
		f.mu.Unlock()
		return false, errors.New("simulated storage outage")
	}
	f.mu.Unlock()
	return f.MemoryVoteStorage.HasVoted(ctx, code, displayName, employeeID)
}

// stuckVoteStorage blocks every Create until the caller's deadline fires.
type stuckVoteStorage struct {
	*storage.MemoryVoteStorage
}

func (s *stuckVoteStorage) Create(ctx context.Context, vote *storage.VoteRecord) error {
	<-ctx.Done()
	return ctx.Err()
}

func boolPtr(v bool) *bool { return &v }

func startSession(t *testing.T, manager *Manager, tournaments storage.TournamentStorage, tournament *storage.Tournament, p Participant) *Session {
	t.Helper()
	require.NoError(t, tournaments.Put(context.Background(), tournament))
	session, err := manager.Authorize(context.Background(), p, tournament.Code)
	require.NoError(t, err)
	return session
}

func TestConfirmLikeFlow(t *testing.T) {
	manager, tournaments, votes := newTestManager(t)
	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1", "V2", "V3"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	choices := map[string]bool{"V1": true, "V2": false, "V3": true}

	var progress *Progress
	for i := 0; i < 3; i++ {
		current := session.Progress().Current
		require.NotNil(t, current)

		var err error
		progress, err = session.Confirm(context.Background(), Answer{Liked: boolPtr(choices[current.ID])})
		require.NoError(t, err)
	}

	assert.Equal(t, StateCompleted, progress.State)
	assert.Equal(t, 3, progress.Index)
	assert.Nil(t, progress.Current)
	assert.False(t, progress.FinalStuck)

	// Completion means every record reached storage, including the
	// background ones.
	stored, err := votes.GetByCode(context.Background(), "AB123")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, record := range stored {
		assert.Equal(t, choices[record.VideoID], record.Liked)
		if choices[record.VideoID] {
			assert.Equal(t, 1, record.Score)
		} else {
			assert.Equal(t, 0, record.Score)
		}
		assert.Equal(t, "Ana", record.DisplayName)
	}
}

func TestConfirmRankingScores(t *testing.T) {
	manager, tournaments, votes := newTestManager(t)
	session := startSession(t, manager, tournaments, rankingTournament("AB123", 10, "Q1", "Q2"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	progress, err := session.Confirm(context.Background(), Answer{Scores: map[string]int{"Q1": 8, "Q2": 6}})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, progress.State)

	stored, err := votes.GetByCode(context.Background(), "AB123")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 14, stored[0].Score, "aggregate score is the sum of the per-question answers")
	assert.Equal(t, map[string]int{"Q1": 8, "Q2": 6}, stored[0].RankingScores)
}

func TestConfirmRejectsIncompleteAnswers(t *testing.T) {
	cases := []struct {
		name       string
		tournament *storage.Tournament
		answer     Answer
	}{
		{"like without a choice", likeTournament("AB123", "V1"), Answer{}},
		{"ranking with a missing question", rankingTournament("AB123", 10, "Q1", "Q2"), Answer{Scores: map[string]int{"Q1": 5}}},
		{"ranking below the scale", rankingTournament("AB123", 10, "Q1"), Answer{Scores: map[string]int{"Q1": 0}}},
		{"ranking above the scale", rankingTournament("AB123", 10, "Q1"), Answer{Scores: map[string]int{"Q1": 11}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			manager, tournaments, votes := newTestManager(t)
			session := startSession(t, manager, tournaments, tc.tournament,
				Participant{DisplayName: "Ana", Role: RoleTrial})

			_, err := session.Confirm(context.Background(), tc.answer)
			assert.ErrorIs(t, err, ErrIncompleteAnswer)

			// A rejected answer leaves the wizard where it was.
			progress := session.Progress()
			assert.Equal(t, StatePresenting, progress.State)
			assert.Equal(t, 0, progress.Index)

			stored, err := votes.GetByCode(context.Background(), tc.tournament.Code)
			require.NoError(t, err)
			assert.Empty(t, stored)
		})
	}
}

func TestConfirmRejectsOversizedComment(t *testing.T) {
	manager, tournaments, _ := newTestManager(t)
	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	long := make([]byte, maxCommentLength+1)
	for i := range long {
		long[i] = 'x'
	}

	_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true), Comment: string(long)})
	assert.ErrorIs(t, err, ErrIncompleteAnswer)
}

func TestConfirmAfterCompletion(t *testing.T) {
	manager, tournaments, _ := newTestManager(t)
	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	require.NoError(t, err)

	_, err = session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestConfirmAuthoritativeDuplicateCheck(t *testing.T) {
	manager, tournaments, _ := newTestManager(t)
	tournament := likeTournament("AB123", "V1")
	require.NoError(t, tournaments.Put(context.Background(), tournament))

	// Two logins under the same identity both pass while no votes exist
	// yet; the first confirmed submission is what locks the identity out.
	first, err := manager.Authorize(context.Background(), Participant{DisplayName: "Ana", Role: RoleTrial}, "AB123")
	require.NoError(t, err)
	second, err := manager.Authorize(context.Background(), Participant{DisplayName: "Ana", Role: RoleTrial}, "AB123")
	require.NoError(t, err)

	_, err = first.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	require.NoError(t, err)

	_, err = second.Confirm(context.Background(), Answer{Liked: boolPtr(false)})
	assert.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestDuplicateCheckHiccupDoesNotLockSession(t *testing.T) {
	tournaments := storage.NewMemoryTournamentStorage()
	flaky := &flakyVoteStorage{MemoryVoteStorage: storage.NewMemoryVoteStorage()}
	manager := NewManager(tournaments, flaky, 5*time.Second)

	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1", "V2"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	// The authoritative check hiccups on the first confirm. The vote goes
	// through, and the check must not come back later: from here on the
	// only records it could match are this session's own.
	flaky.failNextHasVoted(1)
	_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	require.NoError(t, err)

	// Make sure the session's first record is durable before the next
	// confirm, so a re-run of the check would see it.
	require.Eventually(t, func() bool {
		stored, err := flaky.GetByCode(context.Background(), "AB123")
		return err == nil && len(stored) == 1
	}, 2*time.Second, 10*time.Millisecond)

	progress, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(false)})
	require.NoError(t, err, "a session must never be rejected over its own records")
	assert.Equal(t, StateCompleted, progress.State)

	stored, err := flaky.GetByCode(context.Background(), "AB123")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCompletedSessionEvictedAfterRetention(t *testing.T) {
	prev := completedSessionRetention
	completedSessionRetention = 20 * time.Millisecond
	defer func() { completedSessionRetention = prev }()

	manager, tournaments, _ := newTestManager(t)
	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := manager.Session(session.ID)
		return errors.Is(err, ErrSessionNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFinalSubmissionOnClosedTournament(t *testing.T) {
	manager, tournaments, votes := newTestManager(t)
	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1", "V2"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	require.NoError(t, err)

	// The organizer closes the event while the session is mid-flight.
	require.NoError(t, tournaments.SetInactive(context.Background(), "AB123"))

	_, err = session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	assert.ErrorIs(t, err, ErrTournamentClosed)

	progress := session.Progress()
	assert.Equal(t, StatePresenting, progress.State)
	assert.True(t, progress.FinalStuck)

	// Retrying changes nothing while the event stays closed, and the
	// rejected final record is never silently written.
	_, err = session.RetryFinal(context.Background())
	assert.ErrorIs(t, err, ErrTournamentClosed)

	stored, err := votes.GetByCode(context.Background(), "AB123")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestFinalRetryWithoutReanswering(t *testing.T) {
	tournaments := storage.NewMemoryTournamentStorage()
	flaky := &flakyVoteStorage{MemoryVoteStorage: storage.NewMemoryVoteStorage()}
	manager := NewManager(tournaments, flaky, 5*time.Second)

	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	flaky.failNextCreates(1)
	_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	assert.ErrorIs(t, err, ErrPersistence)

	progress := session.Progress()
	assert.Equal(t, StatePresenting, progress.State)
	assert.True(t, progress.FinalStuck)

	// A further Confirm is refused; the kept record is the only way out.
	_, err = session.Confirm(context.Background(), Answer{Liked: boolPtr(false)})
	assert.Error(t, err)

	progress, err = session.RetryFinal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, progress.State)

	stored, err := flaky.GetByCode(context.Background(), "AB123")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Liked, "the retried record carries the original answer")
}

func TestRetryFailedBackgroundDeliveries(t *testing.T) {
	tournaments := storage.NewMemoryTournamentStorage()
	flaky := &flakyVoteStorage{MemoryVoteStorage: storage.NewMemoryVoteStorage()}
	manager := NewManager(tournaments, flaky, 5*time.Second)

	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1", "V2"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	// Exhaust every attempt of the first background delivery.
	flaky.failNextCreates(maxDeliveryAttempts)
	_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	require.NoError(t, err, "a background failure never blocks the wizard")

	// The final submission drains the outbox first, so the failure is
	// settled by the time completion is reported.
	progress, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, progress.State)
	assert.Equal(t, 1, progress.Failed)

	assert.Equal(t, 1, session.RetryFailed())

	require.Eventually(t, func() bool {
		return session.Progress().Failed == 0
	}, 3*time.Second, 20*time.Millisecond)

	stored, err := flaky.GetByCode(context.Background(), "AB123")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestFinalSubmissionStoreTimeout(t *testing.T) {
	tournaments := storage.NewMemoryTournamentStorage()
	stuck := &stuckVoteStorage{MemoryVoteStorage: storage.NewMemoryVoteStorage()}
	manager := NewManager(tournaments, stuck, 50*time.Millisecond)

	session := startSession(t, manager, tournaments, likeTournament("AB123", "V1"),
		Participant{DisplayName: "Ana", Role: RoleTrial})

	_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
	assert.ErrorIs(t, err, ErrStoreTimeout)
	assert.True(t, session.Progress().FinalStuck)
}

func TestCloseTournament(t *testing.T) {
	t.Run("Unhappy path - only the admin may close", func(t *testing.T) {
		manager, tournaments, _ := newTestManager(t)
		session := startSession(t, manager, tournaments, likeTournament("AB123", "V1"),
			Participant{DisplayName: "Ana", Role: RoleTrial})

		_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
		require.NoError(t, err)

		assert.ErrorIs(t, session.CloseTournament(context.Background()), ErrInvalidParticipant)
	})

	t.Run("Unhappy path - not before completion", func(t *testing.T) {
		manager, tournaments, _ := newTestManager(t)
		session := startSession(t, manager, tournaments, likeTournament("AB123", "V1", "V2"),
			Participant{DisplayName: "Boss", Role: RoleAdmin})

		assert.ErrorIs(t, session.CloseTournament(context.Background()), ErrSessionCompleted)
	})

	t.Run("Happy path - close is idempotent", func(t *testing.T) {
		manager, tournaments, _ := newTestManager(t)
		session := startSession(t, manager, tournaments, likeTournament("AB123", "V1"),
			Participant{DisplayName: "Boss", Role: RoleAdmin})

		_, err := session.Confirm(context.Background(), Answer{Liked: boolPtr(true)})
		require.NoError(t, err)

		require.NoError(t, session.CloseTournament(context.Background()))
		require.NoError(t, session.CloseTournament(context.Background()))

		stored, err := tournaments.Get(context.Background(), "AB123")
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
	})
}
