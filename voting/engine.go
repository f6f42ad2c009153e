package voting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/FerDoranNie/Video-judgement/storage"
)

const (
	maxDeliveryAttempts = 3
	deliveryBackoff     = 500 * time.Millisecond
	defaultStoreTimeout = 30 * time.Second
	maxCommentLength    = 500
)

// completedSessionRetention is how long a finished session stays
// queryable for status and close calls before it is evicted. A variable
// so tests can shorten it.
var completedSessionRetention = time.Hour

// Manager owns the active sessions and the storage collaborators. It is
// the only shared mutable surface; each Session is a single participant's
// sequential wizard over it.
type Manager struct {
	tournaments  storage.TournamentStorage
	votes        storage.VoteStorage
	storeTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(tournaments storage.TournamentStorage, votes storage.VoteStorage, storeTimeout time.Duration) *Manager {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &Manager{
		tournaments:  tournaments,
		votes:        votes,
		storeTimeout: storeTimeout,
		sessions:     make(map[string]*Session),
	}
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Session returns the live session for an id, or ErrSessionNotFound.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Abandon drops a session without compensating writes; unconfirmed videos
// are simply never recorded. Completed sessions call this for themselves
// once the retention period passes.
// TODO: evict sessions that go idle without ever completing.
func (m *Manager) Abandon(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.storeTimeout)
}

func (m *Manager) classifyStoreError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

// DeliveryStatus tracks one record through the per-session outbox.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

type Delivery struct {
	Record   *storage.VoteRecord
	Status   DeliveryStatus
	Attempts int
	LastErr  string
}

// Answer carries one video's judgment before it becomes a record. Liked is
// set for the like method, Scores for the ranking method; the comment is
// optional either way.
type Answer struct {
	Liked   *bool
	Scores  map[string]int
	Comment string
}

// Progress reports where the wizard stands after a transition.
type Progress struct {
	State      string
	Index      int
	Total      int
	Current    *storage.Video
	Pending    int
	Failed     int
	FinalStuck bool
}

const (
	StatePresenting = "presenting"
	StateCompleted  = "completed"
)

// Session is the per-participant linear state machine over the shuffled
// video order. All entry points are safe for the single UI caller plus the
// background delivery worker.
type Session struct {
	ID          string
	Participant Participant
	Tournament  *storage.Tournament
	Order       []storage.Video

	manager *Manager

	mu           sync.Mutex
	index        int
	completed    bool
	dupChecked   bool
	pendingFinal *storage.VoteRecord

	dmu        sync.Mutex
	deliveries []*Delivery

	workerOnce sync.Once
	queue      chan *Delivery
	wg         sync.WaitGroup
}

// Confirm records the participant's judgment of the currently presented
// video. Non-final records are handed to the background outbox and the
// session advances immediately; the final record is delivered synchronously
// so the participant is never told they are done before it is durable.
func (s *Session) Confirm(ctx context.Context, answer Answer) (*Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return nil, ErrSessionCompleted
	}
	if s.pendingFinal != nil {
		return nil, fmt.Errorf("%w: final vote is awaiting retry", ErrPersistence)
	}

	video := s.Order[s.index]
	record, err := s.buildRecord(video, answer)
	if err != nil {
		return nil, err
	}

	// Authoritative duplicate check, once, at first submission. Login-time
	// checking is only a UX shortcut. A storage failure here lets the vote
	// through rather than blocking an honest participant. The check never
	// runs again: this call puts the session's own record in flight, so
	// any later match would be against the participant's own votes.
	if !s.dupChecked {
		voted, err := s.manager.hasVoted(ctx, s.Tournament.Code, s.Participant)
		if err == nil && voted {
			return nil, ErrAlreadyVoted
		}
		if err != nil {
			logging.Log.Warnf("ENGINE: duplicate check failed for session %s, letting vote through: %v", s.ID, err)
		}
		s.dupChecked = true
	}

	if s.index == len(s.Order)-1 {
		return s.deliverFinalLocked(ctx, record)
	}

	s.enqueue(record)
	s.index++
	return s.progressLocked(), nil
}

// RetryFinal re-attempts a failed final submission using the record kept
// from the original confirm, so the participant never re-answers.
func (s *Session) RetryFinal(ctx context.Context) (*Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return s.progressLocked(), nil
	}
	if s.pendingFinal == nil {
		return nil, fmt.Errorf("%w: no final vote is pending", ErrSessionCompleted)
	}
	return s.deliverFinalLocked(ctx, s.pendingFinal)
}

// RetryFailed re-queues every background delivery that gave up. After
// completion the worker is gone, so leftovers are retried directly.
func (s *Session) RetryFailed() int {
	s.dmu.Lock()
	var stuck []*Delivery
	for _, d := range s.deliveries {
		if d.Status == DeliveryFailed {
			d.Status = DeliveryPending
			d.LastErr = ""
			stuck = append(stuck, d)
		}
	}
	s.dmu.Unlock()

	s.mu.Lock()
	queue := s.queue
	if queue != nil {
		s.wg.Add(len(stuck))
		for _, d := range stuck {
			queue <- d
		}
	}
	s.mu.Unlock()

	if queue == nil {
		for _, d := range stuck {
			go s.attempt(d)
		}
	}
	return len(stuck)
}

// Deliveries returns a snapshot of the outbox for status display.
func (s *Session) Deliveries() []Delivery {
	s.dmu.Lock()
	defer s.dmu.Unlock()

	out := make([]Delivery, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		out = append(out, *d)
	}
	return out
}

// Progress reports the current state without transitioning.
func (s *Session) Progress() *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// CloseTournament is the admin-only action exposed once the wizard reaches
// Completed. Closing twice is a no-op reported as success.
func (s *Session) CloseTournament(ctx context.Context) error {
	s.mu.Lock()
	role := s.Participant.Role
	completed := s.completed
	s.mu.Unlock()

	if role != RoleAdmin {
		return fmt.Errorf("%w: only the admin can close a tournament", ErrInvalidParticipant)
	}
	if !completed {
		return fmt.Errorf("%w: finish voting before closing the tournament", ErrSessionCompleted)
	}

	ctx, cancel := s.manager.storeContext(ctx)
	defer cancel()
	if err := s.manager.tournaments.SetInactive(ctx, s.Tournament.Code); err != nil {
		if errors.Is(err, storage.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return s.manager.classifyStoreError(ctx, err)
	}
	logging.Log.Infof("ENGINE: tournament %s closed by %s", s.Tournament.Code, s.Participant.DisplayName)
	return nil
}

func (s *Session) buildRecord(video storage.Video, answer Answer) (*storage.VoteRecord, error) {
	if len(answer.Comment) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", ErrIncompleteAnswer, maxCommentLength)
	}

	record := &storage.VoteRecord{
		Code:          s.Tournament.Code,
		SortKey:       fmt.Sprintf("participant#%s#video#%s", s.ID, video.ID),
		VideoID:       video.ID,
		ParticipantID: s.ID,
		DisplayName:   s.Participant.DisplayName,
		Role:          s.Participant.Role,
		EmployeeID:    s.Participant.EmployeeID,
		Comment:       answer.Comment,
		Timestamp:     time.Now().UTC(),
	}

	switch s.Tournament.VotingMethod {
	case MethodRanking:
		scores := make(map[string]int, len(s.Tournament.RankingQuestions))
		total := 0
		for _, q := range s.Tournament.RankingQuestions {
			v, ok := answer.Scores[q.ID]
			if !ok {
				return nil, fmt.Errorf("%w: question %q is unanswered", ErrIncompleteAnswer, q.ID)
			}
			if v < 1 || v > s.Tournament.RankingScale {
				return nil, fmt.Errorf("%w: answer for %q must be between 1 and %d", ErrIncompleteAnswer, q.ID, s.Tournament.RankingScale)
			}
			scores[q.ID] = v
			total += v
		}
		record.Score = total
		record.Liked = total > 0
		record.RankingScores = scores
	default:
		if answer.Liked == nil {
			return nil, fmt.Errorf("%w: a like or dislike choice is required", ErrIncompleteAnswer)
		}
		if *answer.Liked {
			record.Score = 1
		}
		record.Liked = *answer.Liked
	}
	return record, nil
}

func (s *Session) progressLocked() *Progress {
	pending, failed := 0, 0
	s.dmu.Lock()
	for _, d := range s.deliveries {
		switch d.Status {
		case DeliveryPending:
			pending++
		case DeliveryFailed:
			failed++
		}
	}
	s.dmu.Unlock()

	p := &Progress{
		Index:      s.index,
		Total:      len(s.Order),
		Pending:    pending,
		Failed:     failed,
		FinalStuck: s.pendingFinal != nil,
	}
	if s.completed {
		p.State = StateCompleted
	} else {
		p.State = StatePresenting
		video := s.Order[s.index]
		p.Current = &video
	}
	return p
}

func (s *Session) enqueue(record *storage.VoteRecord) {
	s.workerOnce.Do(func() {
		s.queue = make(chan *Delivery, len(s.Order))
		go s.deliverLoop()
	})

	d := &Delivery{Record: record, Status: DeliveryPending}
	s.dmu.Lock()
	s.deliveries = append(s.deliveries, d)
	s.dmu.Unlock()

	s.wg.Add(1)
	s.queue <- d
}

func (s *Session) deliverLoop() {
	for d := range s.queue {
		s.attempt(d)
		s.wg.Done()
	}
}

func (s *Session) attempt(d *Delivery) {
	var lastErr error
	for i := 0; i < maxDeliveryAttempts; i++ {
		if i > 0 {
			time.Sleep(deliveryBackoff)
		}
		ctx, cancel := s.manager.storeContext(context.Background())
		err := s.manager.votes.Create(ctx, d.Record)
		cancel()

		s.dmu.Lock()
		d.Attempts++
		s.dmu.Unlock()

		if err == nil || errors.Is(err, storage.ErrVoteAlreadyExists) {
			// A replayed row means the record is already durable.
			s.dmu.Lock()
			d.Status = DeliveryDelivered
			d.LastErr = ""
			s.dmu.Unlock()
			return
		}
		lastErr = err
		logging.Log.Warnf("ENGINE: delivery attempt %d failed for video %s: %v", i+1, d.Record.VideoID, err)
	}

	s.dmu.Lock()
	d.Status = DeliveryFailed
	d.LastErr = lastErr.Error()
	s.dmu.Unlock()
	logging.Log.Errorf("ENGINE: giving up on video %s after %d attempts: %v", d.Record.VideoID, maxDeliveryAttempts, lastErr)
}

// deliverFinalLocked flushes the outbox, re-checks the active flag and
// writes the final record before declaring the session complete. The
// record is kept on failure so a retry needs no re-answering.
func (s *Session) deliverFinalLocked(ctx context.Context, record *storage.VoteRecord) (*Progress, error) {
	s.pendingFinal = record

	// Drain background deliveries first so completion implies every record
	// of the session was at least attempted to durability.
	s.wg.Wait()

	// The organizer may have closed the event mid-session. New final
	// submissions are rejected loudly, never dropped.
	tournament, err := s.manager.fetchTournament(ctx, s.Tournament.Code)
	if err == nil && !tournament.IsActive {
		return nil, ErrTournamentClosed
	}

	storeCtx, cancel := s.manager.storeContext(ctx)
	err = s.manager.votes.Create(storeCtx, record)
	cancel()
	if err != nil && !errors.Is(err, storage.ErrVoteAlreadyExists) {
		logging.Log.Errorf("ENGINE: final submission failed for session %s: %v", s.ID, err)
		return nil, s.manager.classifyStoreError(storeCtx, err)
	}

	s.dmu.Lock()
	s.deliveries = append(s.deliveries, &Delivery{Record: record, Status: DeliveryDelivered, Attempts: 1})
	s.dmu.Unlock()

	s.pendingFinal = nil
	s.completed = true
	s.index = len(s.Order)
	if s.queue != nil {
		close(s.queue)
		s.queue = nil
	}
	time.AfterFunc(completedSessionRetention, func() { s.manager.Abandon(s.ID) })
	logging.Log.Infof("ENGINE: session %s completed, %d votes recorded for %s", s.ID, len(s.Order), s.Tournament.Code)
	return s.progressLocked(), nil
}
