package stage

import "fmt"

// ConfigError reports an invalid construction parameter. Reported
// immediately from a stage constructor; no partial stage is created.
type ConfigError struct {
	Stage  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Stage, e.Reason)
}

// NewConfigError builds a ConfigError for the named stage type tag.
func NewConfigError(stageTag, reason string) error {
	return &ConfigError{Stage: stageTag, Reason: reason}
}

// ContractError reports a per-call violation of the Stage contract: wrong
// channel count for a stage that fixes C, or Process called on a resizing
// stage. The stage's internal state is left unchanged.
type ContractError struct {
	Stage  string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: contract violation: %s", e.Stage, e.Reason)
}

// NewContractError builds a ContractError for the named stage type tag.
func NewContractError(stageTag, reason string) error {
	return &ContractError{Stage: stageTag, Reason: reason}
}

// StateError reports a failed state-exchange validation: mode, policy,
// window, or dimension mismatch, or a cross-field consistency check
// (e.g. MAV/RMS running-sum revalidation) that didn't hold within
// tolerance. Returned only before any mutation of the receiver's state.
type StateError struct {
	Stage  string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: state exchange rejected: %s", e.Stage, e.Reason)
}

// NewStateError builds a StateError for the named stage type tag.
func NewStateError(stageTag, reason string) error {
	return &StateError{Stage: stageTag, Reason: reason}
}
