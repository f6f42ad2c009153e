package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryTournamentStorage keeps tournaments in a mutex-guarded map. Used
// for local development and as the injectable test double.
type MemoryTournamentStorage struct {
	mu          sync.RWMutex
	tournaments map[string]*Tournament
}

func NewMemoryTournamentStorage() *MemoryTournamentStorage {
	return &MemoryTournamentStorage{
		tournaments: make(map[string]*Tournament),
	}
}

func (m *MemoryTournamentStorage) Get(_ context.Context, code string) (*Tournament, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tournaments[code]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	cp := *t
	cp.Videos = append([]Video(nil), t.Videos...)
	cp.RankingQuestions = append([]RankingQuestion(nil), t.RankingQuestions...)
	cp.AuthorizedDirectorIDs = append([]string(nil), t.AuthorizedDirectorIDs...)
	return &cp, nil
}

func (m *MemoryTournamentStorage) GetAll(_ context.Context) ([]*Tournament, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Tournament, 0, len(m.tournaments))
	for _, t := range m.tournaments {
		cp := *t
		all = append(all, &cp)
	}
	return all, nil
}

func (m *MemoryTournamentStorage) Put(_ context.Context, tournament *Tournament) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tournaments[tournament.Code]; ok {
		return ErrTournamentAlreadyExists
	}
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = time.Now().UTC()
	}
	cp := *tournament
	m.tournaments[tournament.Code] = &cp
	return nil
}

func (m *MemoryTournamentStorage) SetInactive(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tournaments[code]
	if !ok {
		return ErrTournamentNotFound
	}
	t.IsActive = false
	return nil
}

// MemoryVoteStorage is the in-memory counterpart of DynamoVoteStorage,
// keyed the same way (tournament code, then participant#video sort key).
type MemoryVoteStorage struct {
	mu    sync.RWMutex
	votes map[string]map[string]*VoteRecord
}

func NewMemoryVoteStorage() *MemoryVoteStorage {
	return &MemoryVoteStorage{
		votes: make(map[string]map[string]*VoteRecord),
	}
}

func (m *MemoryVoteStorage) Create(_ context.Context, vote *VoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.votes[vote.Code]
	if !ok {
		rows = make(map[string]*VoteRecord)
		m.votes[vote.Code] = rows
	}
	if _, exists := rows[vote.SortKey]; exists {
		return ErrVoteAlreadyExists
	}
	cp := *vote
	rows[vote.SortKey] = &cp
	return nil
}

func (m *MemoryVoteStorage) GetByCode(_ context.Context, code string) ([]*VoteRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.votes[code]
	out := make([]*VoteRecord, 0, len(rows))
	for _, v := range rows {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryVoteStorage) HasVoted(ctx context.Context, code, displayName, employeeID string) (bool, error) {
	votes, err := m.GetByCode(ctx, code)
	if err != nil {
		return false, err
	}
	return matchesIdentity(votes, displayName, employeeID), nil
}
