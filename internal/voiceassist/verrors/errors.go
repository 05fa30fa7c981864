// Package verrors defines the error taxonomy of the voice orchestrator.
// Anything that would crash a per-session worker is caught at the turn
// boundary and mapped to one of these before reaching the client.
package verrors

import (
	"errors"
	"fmt"
)

// ErrConfiguration means a session cannot be opened at all: the tenant has no
// voice settings or a required credential is missing. Fatal to session open.
var ErrConfiguration = errors.New("voice configuration error")

// ErrProviderConnect means a speech provider stream failed to open or closed
// unexpectedly. Fatal to the current turn; fatal to the session only for the
// recognition leg.
var ErrProviderConnect = errors.New("provider connection error")

// ErrModelCall means a dialogue-model call failed. Recovered with a fallback
// spoken message.
var ErrModelCall = errors.New("model call error")

// ErrToolExecution means a tool call failed. Surfaced to the model as a
// structured failure result so the dialogue can recover conversationally.
var ErrToolExecution = errors.New("tool execution error")

// ErrInterruptTimeout means a previous synthesis stream would not close within
// the drain budget. Logged, the stream is forced closed, and the next turn
// proceeds anyway.
var ErrInterruptTimeout = errors.New("previous response not stopped in time")

// MissingCredential wraps ErrConfiguration with the credential name.
func MissingCredential(name string) error {
	return fmt.Errorf("missing credential %s: %w", name, ErrConfiguration)
}
