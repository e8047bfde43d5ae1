package models

// Question types as reported by the trivia API.
const (
	TypeBoolean  = "boolean"
	TypeMultiple = "multiple"
)

// Question represents one trivia item fetched from the API, already
// base64-decoded and normalized.
type Question struct {
	Category      string
	Type          string // TypeBoolean or TypeMultiple
	Difficulty    string // easy, medium or hard
	Question      string
	CorrectAnswer string
	// Answers is the shuffled answer list for multiple-choice questions,
	// with the correct answer at a random position. Empty for boolean
	// questions.
	Answers []string
}

// ScoreStats summarizes a user's graded answers.
type ScoreStats struct {
	Correct   int
	Incorrect int
}

// Total returns the number of graded answers.
func (s ScoreStats) Total() int {
	return s.Correct + s.Incorrect
}
