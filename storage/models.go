package storage

import "time"

// Video is one judged item inside a tournament. The roster is fixed at
// publish time and never mutated afterwards.
type Video struct {
	ID         string `dynamodbav:"ID" json:"id"`
	Title      string `dynamodbav:"Title" json:"title"`
	SourceURL  string `dynamodbav:"SourceURL" json:"sourceUrl"`
	ScriptText string `dynamodbav:"ScriptText" json:"scriptText"`
}

type RankingQuestion struct {
	ID   string `dynamodbav:"ID" json:"id"`
	Text string `dynamodbav:"Text" json:"text"`
}

type Tournament struct {
	Code                  string            `dynamodbav:"PK" json:"code"`
	Name                  string            `dynamodbav:"Name" json:"name"`
	HostID                string            `dynamodbav:"HostID" json:"hostId"`
	HostName              string            `dynamodbav:"HostName" json:"hostName"`
	Videos                []Video           `dynamodbav:"Videos" json:"videos"`
	CreatedAt             time.Time         `dynamodbav:"CreatedAt" json:"createdAt"`
	IsActive              bool              `dynamodbav:"IsActive" json:"isActive"`
	AuthorizedDirectorIDs []string          `dynamodbav:"AuthorizedDirectorIDs" json:"authorizedDirectorIds"`
	VotingMethod          string            `dynamodbav:"VotingMethod" json:"votingMethod"`
	RankingScale          int               `dynamodbav:"RankingScale" json:"rankingScale"`
	RankingQuestions      []RankingQuestion `dynamodbav:"RankingQuestions" json:"rankingQuestions"`
}

// VoteRecord is one participant's judgment of one video. Records are
// append-only: never updated, never deleted. Optional fields use the zero
// value as an explicit not-applicable marker and are always serialized.
type VoteRecord struct {
	Code          string         `dynamodbav:"PK" json:"code"`
	SortKey       string         `dynamodbav:"SK" json:"-"` // participant#<id>#video#<videoId>
	VideoID       string         `dynamodbav:"VideoID" json:"videoId"`
	ParticipantID string         `dynamodbav:"ParticipantID" json:"participantId"`
	DisplayName   string         `dynamodbav:"DisplayName" json:"displayName"`
	Role          string         `dynamodbav:"Role" json:"role"`
	EmployeeID    string         `dynamodbav:"EmployeeID" json:"employeeId"`
	Score         int            `dynamodbav:"Score" json:"score"`
	Liked         bool           `dynamodbav:"Liked" json:"liked"`
	RankingScores map[string]int `dynamodbav:"RankingScores" json:"rankingScores"`
	Comment       string         `dynamodbav:"Comment" json:"comment"`
	Timestamp     time.Time      `dynamodbav:"Timestamp" json:"timestamp"`
}
