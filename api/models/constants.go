package models

// Alphabet feeds nanoid when generating tournament codes.
var Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const CodeLength = 5

var ValidVotingMethods = map[string]bool{
	"like":    true,
	"ranking": true,
}

type ErrorResponse struct {
	Error string `json:"error"`
}
