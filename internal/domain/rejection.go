package domain

import (
	"errors"
	"fmt"
)

// RejectionCode is the machine-readable reason an action was refused.
type RejectionCode string

const (
	CodeNotYourTurn          RejectionCode = "NOT_YOUR_TURN"
	CodeWrongPhase           RejectionCode = "WRONG_PHASE"
	CodeInsufficientResource RejectionCode = "INSUFFICIENT_RESOURCE"
	CodeInvalidTarget        RejectionCode = "INVALID_TARGET"
	CodeUnknownCardInstance  RejectionCode = "UNKNOWN_CARD_INSTANCE"
	CodeGameAlreadyFinished  RejectionCode = "GAME_ALREADY_FINISHED"
	CodeMalformedPayload     RejectionCode = "MALFORMED_PAYLOAD"
)

// Rejection is returned for an illegal action. It is reported to the originating
// player only and never changes game state.
type Rejection struct {
	Code    RejectionCode
	Message string
}

func (r *Rejection) Error() string {
	if r.Message == "" {
		return string(r.Code)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Is matches any rejection with the same code.
func (r *Rejection) Is(target error) bool {
	var other *Rejection
	if !errors.As(target, &other) {
		return false
	}
	return r.Code == other.Code
}

func reject(code RejectionCode, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotYourTurn          = &Rejection{Code: CodeNotYourTurn}
	ErrWrongPhase           = &Rejection{Code: CodeWrongPhase}
	ErrInsufficientResource = &Rejection{Code: CodeInsufficientResource}
	ErrInvalidTarget        = &Rejection{Code: CodeInvalidTarget}
	ErrUnknownCardInstance  = &Rejection{Code: CodeUnknownCardInstance}
	ErrGameAlreadyFinished  = &Rejection{Code: CodeGameAlreadyFinished}
	ErrMalformedPayload     = &Rejection{Code: CodeMalformedPayload}
)

// ErrInvariant reports internal state corruption. It is never caused by a client.
var ErrInvariant = errors.New("game invariant violated")

// AsRejection returns the rejection wrapped in err, if any.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
