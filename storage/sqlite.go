package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/FerDoranNie/Video-judgement/logging"
)

// SQLiteStorage backs both contracts with a single local database file,
// for running the service as one binary without AWS access. Nested
// structures (video roster, questions, per-question scores) are stored as
// JSON columns.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStorage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tournaments (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		host_id TEXT NOT NULL,
		host_name TEXT NOT NULL,
		videos TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		director_ids TEXT NOT NULL,
		voting_method TEXT NOT NULL,
		ranking_scale INTEGER NOT NULL DEFAULT 0,
		ranking_questions TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS votes (
		code TEXT NOT NULL,
		sort_key TEXT NOT NULL,
		video_id TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		role TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		score INTEGER NOT NULL,
		liked INTEGER NOT NULL,
		ranking_scores TEXT NOT NULL,
		comment TEXT NOT NULL,
		ts INTEGER NOT NULL,
		PRIMARY KEY (code, sort_key)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Get(ctx context.Context, code string) (*Tournament, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, name, host_id, host_name, videos, created_at, is_active,
		       director_ids, voting_method, ranking_scale, ranking_questions
		FROM tournaments WHERE code = ?`, code)

	var t Tournament
	var videosJSON, directorsJSON, questionsJSON string
	var createdAt int64
	var active int
	err := row.Scan(&t.Code, &t.Name, &t.HostID, &t.HostName, &videosJSON,
		&createdAt, &active, &directorsJSON, &t.VotingMethod, &t.RankingScale, &questionsJSON)
	if err == sql.ErrNoRows {
		return nil, ErrTournamentNotFound
	}
	if err != nil {
		logging.Log.Errorf("TOURNAMENT: sqlite get failed: %v", err)
		return nil, err
	}

	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	t.IsActive = active != 0
	if err := json.Unmarshal([]byte(videosJSON), &t.Videos); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(directorsJSON), &t.AuthorizedDirectorIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questionsJSON), &t.RankingQuestions); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStorage) GetAll(ctx context.Context) ([]*Tournament, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM tournaments`)
	if err != nil {
		logging.Log.Errorf("TOURNAMENT: sqlite scan failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	all := make([]*Tournament, 0, len(codes))
	for _, code := range codes {
		t, err := s.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		all = append(all, t)
	}
	return all, nil
}

func (s *SQLiteStorage) Put(ctx context.Context, tournament *Tournament) error {
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = time.Now().UTC()
	}
	videosJSON, err := json.Marshal(tournament.Videos)
	if err != nil {
		return err
	}
	directorsJSON, err := json.Marshal(tournament.AuthorizedDirectorIDs)
	if err != nil {
		return err
	}
	questionsJSON, err := json.Marshal(tournament.RankingQuestions)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tournaments (code, name, host_id, host_name, videos, created_at,
			is_active, director_ids, voting_method, ranking_scale, ranking_questions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tournament.Code, tournament.Name, tournament.HostID, tournament.HostName,
		string(videosJSON), tournament.CreatedAt.UnixMilli(), boolToInt(tournament.IsActive),
		string(directorsJSON), tournament.VotingMethod, tournament.RankingScale, string(questionsJSON))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTournamentAlreadyExists
		}
		logging.Log.Errorf("TOURNAMENT: sqlite put failed: %v", err)
		return err
	}
	return nil
}

func (s *SQLiteStorage) SetInactive(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tournaments SET is_active = 0 WHERE code = ?`, code)
	if err != nil {
		logging.Log.Errorf("TOURNAMENT: sqlite set inactive failed: %v", err)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

func (s *SQLiteStorage) Create(ctx context.Context, vote *VoteRecord) error {
	scoresJSON, err := json.Marshal(vote.RankingScores)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO votes (code, sort_key, video_id, participant_id, display_name,
			role, employee_id, score, liked, ranking_scores, comment, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		vote.Code, vote.SortKey, vote.VideoID, vote.ParticipantID, vote.DisplayName,
		vote.Role, vote.EmployeeID, vote.Score, boolToInt(vote.Liked),
		string(scoresJSON), vote.Comment, vote.Timestamp.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrVoteAlreadyExists
		}
		logging.Log.Errorf("VOTE: sqlite create failed: %v", err)
		return err
	}
	return nil
}

func (s *SQLiteStorage) GetByCode(ctx context.Context, code string) ([]*VoteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, sort_key, video_id, participant_id, display_name, role,
		       employee_id, score, liked, ranking_scores, comment, ts
		FROM votes WHERE code = ?`, code)
	if err != nil {
		logging.Log.Errorf("VOTE: sqlite query failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	votes := make([]*VoteRecord, 0)
	for rows.Next() {
		var v VoteRecord
		var scoresJSON string
		var liked int
		var ts int64
		if err := rows.Scan(&v.Code, &v.SortKey, &v.VideoID, &v.ParticipantID,
			&v.DisplayName, &v.Role, &v.EmployeeID, &v.Score, &liked,
			&scoresJSON, &v.Comment, &ts); err != nil {
			return nil, err
		}
		v.Liked = liked != 0
		v.Timestamp = time.UnixMilli(ts).UTC()
		if err := json.Unmarshal([]byte(scoresJSON), &v.RankingScores); err != nil {
			return nil, err
		}
		votes = append(votes, &v)
	}
	return votes, rows.Err()
}

func (s *SQLiteStorage) HasVoted(ctx context.Context, code, displayName, employeeID string) (bool, error) {
	votes, err := s.GetByCode(ctx, code)
	if err != nil {
		return false, err
	}
	return matchesIdentity(votes, displayName, employeeID), nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
