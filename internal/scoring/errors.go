package scoring

import "errors"

// ErrNoAnswers is returned when a user has no stored answers to score.
var ErrNoAnswers = errors.New("no answers found")

// ErrAnswerNotFound is returned by stores when an evaluation write matched
// no answer row.
var ErrAnswerNotFound = errors.New("answer not found")

var errInvalidTransition = errors.New("invalid scoring phase transition")
