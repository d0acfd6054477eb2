package game

import (
	"errors"
	"fmt"
)

// Code classifies why an action was rejected. Rejections are returned
// privately to the submitter and never mutate shared state.
type Code string

const (
	CodeIllegalAction    Code = "illegal_action"
	CodeNotYourTurn      Code = "not_your_turn"
	CodeGameFinished     Code = "game_already_finished"
	CodeMalformedPayload Code = "malformed_payload"
)

// Rejection is the only error type engines return for invalid actions.
type Rejection struct {
	Code   Code
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Reason)
}

func Illegal(format string, args ...any) error {
	return &Rejection{Code: CodeIllegalAction, Reason: fmt.Sprintf(format, args...)}
}

func NotYourTurn() error {
	return &Rejection{Code: CodeNotYourTurn, Reason: "it's not your turn"}
}

func Finished() error {
	return &Rejection{Code: CodeGameFinished, Reason: "game is already finished"}
}

func Malformed(format string, args ...any) error {
	return &Rejection{Code: CodeMalformedPayload, Reason: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a Rejection, if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
