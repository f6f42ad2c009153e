package storage

import "errors"

var ErrTournamentNotFound = errors.New("tournament not found in storage")
var ErrTournamentAlreadyExists = errors.New("tournament with this code already exists")
var ErrVoteAlreadyExists = errors.New("vote record already exists")
