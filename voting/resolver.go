package voting

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/FerDoranNie/Video-judgement/storage"
	"github.com/google/uuid"
)

// Authorize gates entry into a tournament's voting flow. The checks run in
// a fixed order so every failure mode is distinguishable: unknown code,
// closed tournament, unauthorized director, prior vote. They are advisory
// at login time; the duplicate check runs again at first confirm, which is
// the authoritative point.
func (m *Manager) Authorize(ctx context.Context, p Participant, code string) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: tournament code is required", ErrInvalidParticipant)
	}

	tournament, err := m.fetchTournament(ctx, code)
	if err != nil {
		return nil, err
	}
	if !tournament.IsActive {
		return nil, ErrTournamentClosed
	}
	// The publish path validates rosters but storage Put does not; a row
	// with no videos cannot host a session.
	if len(tournament.Videos) == 0 {
		logging.Log.Errorf("SESSION: tournament %s has an empty video roster", code)
		return nil, fmt.Errorf("%w: tournament %s has no videos", ErrTournamentNotFound, code)
	}

	if p.Role == RoleDirector && len(tournament.AuthorizedDirectorIDs) > 0 {
		if !containsString(tournament.AuthorizedDirectorIDs, p.EmployeeID) {
			logging.Log.Warnf("SESSION: director %q rejected for %s, employee id not on list", p.DisplayName, code)
			return nil, ErrUnauthorizedDirector
		}
	}

	voted, err := m.hasVoted(ctx, code, p)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrAlreadyVoted
	}

	session := &Session{
		ID:          uuid.NewString(),
		Participant: p,
		Tournament:  tournament,
		Order:       shuffleVideos(tournament.Videos),
		manager:     m,
	}
	m.register(session)

	logging.Log.Infof("SESSION: %s authorized %s (%s) for tournament %s with %d videos",
		session.ID, p.DisplayName, p.Role, code, len(session.Order))
	return session, nil
}

func (m *Manager) fetchTournament(ctx context.Context, code string) (*storage.Tournament, error) {
	ctx, cancel := m.storeContext(ctx)
	defer cancel()

	tournament, err := m.tournaments.Get(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, m.classifyStoreError(ctx, err)
	}
	return tournament, nil
}

func (m *Manager) hasVoted(ctx context.Context, code string, p Participant) (bool, error) {
	ctx, cancel := m.storeContext(ctx)
	defer cancel()

	voted, err := m.votes.HasVoted(ctx, code, p.DisplayName, p.EmployeeID)
	if err != nil {
		return false, m.classifyStoreError(ctx, err)
	}
	return voted, nil
}

// shuffleVideos returns a fresh uniform permutation of the roster. Each
// session gets its own order so no video gains a position advantage; the
// shuffle is intentionally not reproducible.
func shuffleVideos(videos []storage.Video) []storage.Video {
	order := append([]storage.Video(nil), videos...)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
