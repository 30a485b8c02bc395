// Package validate enforces the status / presence / non-empty contract on
// decoded API responses. Every check returns its input unchanged on success,
// so checks compose into a chain.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/formparity/parity-go/internal/envelope"
)

// NoIgnoredStatus disables the ignored-status escape hatch.
const NoIgnoredStatus = 0

// Sentinel kinds. Match with errors.Is.
var (
	ErrProtocol        = errors.New("protocol error")
	ErrStatus          = errors.New("status error")
	ErrMissingData     = errors.New("missing data")
	ErrEmptyData       = errors.New("empty data")
	ErrRemoteOperation = errors.New("remote operation error")
)

// Error is a validation failure of a specific kind.
type Error struct {
	Kind   error
	Status int
	Reason string
	msg    string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.Kind }

// Check validates a response and passes it through on success.
type Check func(r envelope.Response, ignore int) (envelope.Response, error)

// Chain runs checks in order, stopping at the first failure.
func Chain(checks ...Check) Check {
	return func(r envelope.Response, ignore int) (envelope.Response, error) {
		var err error
		for _, c := range checks {
			if r, err = c(r, ignore); err != nil {
				return r, err
			}
		}
		return r, nil
	}
}

// Validate is the standard three-stage chain.
var Validate = Chain(CheckMetaAndStatus, CheckDataPropertyExists, CheckDataIsNotEmpty)

func ignored(status, ignore int) bool {
	return ignore != NoIgnoredStatus && status == ignore
}

func missingMeta() error {
	return &Error{
		Kind: ErrProtocol,
		msg:  "checkMetaAndStatus: no meta object found in response; check method call parameters and credentials",
	}
}

// CheckMetaAndStatus requires a meta object with status 200, 201, or ignore.
func CheckMetaAndStatus(r envelope.Response, ignore int) (envelope.Response, error) {
	if r.Meta == nil {
		return r, missingMeta()
	}
	if r.Meta.Problem != "" {
		return r, &Error{
			Kind:   ErrStatus,
			Reason: r.Meta.Problem,
			msg:    "checkMetaAndStatus: unreadable meta: " + r.Meta.Problem,
		}
	}
	status := r.Meta.Status
	if status != http.StatusOK && status != http.StatusCreated && !ignored(status, ignore) {
		reason := r.Meta.FirstReason()
		return r, &Error{
			Kind:   ErrStatus,
			Status: status,
			Reason: reason,
			msg:    fmt.Sprintf("checkMetaAndStatus: status %d, reason: %s", status, reason),
		}
	}
	return r, nil
}

// CheckDataPropertyExists requires a data property unless status == ignore.
func CheckDataPropertyExists(r envelope.Response, ignore int) (envelope.Response, error) {
	if r.Meta == nil {
		return r, missingMeta()
	}
	status := r.Meta.Status
	if ignored(status, ignore) {
		return r, nil
	}
	if !r.HasData() {
		return r, &Error{
			Kind:   ErrMissingData,
			Status: status,
			msg:    fmt.Sprintf("data property was not present; check parameters and syntax (status %d)", status),
		}
	}
	return r, nil
}

// CheckDataIsNotEmpty rejects empty lists and maps, and lists whose first
// element is the string "Error", which is how a called web service reports
// its own failure.
func CheckDataIsNotEmpty(r envelope.Response, ignore int) (envelope.Response, error) {
	if r.Meta == nil {
		return r, missingMeta()
	}
	status := r.Meta.Status
	if ignored(status, ignore) {
		return r, nil
	}

	switch r.DataKind() {
	case envelope.KindArray:
		var items []json.RawMessage
		if err := r.DecodeData(&items); err != nil {
			return r, &Error{Kind: ErrProtocol, Status: status, msg: fmt.Sprintf("decode data list: %v", err)}
		}
		if len(items) == 0 {
			return r, emptyData(status)
		}
		var first string
		if err := json.Unmarshal(items[0], &first); err == nil && first == "Error" {
			return r, &Error{
				Kind:   ErrRemoteOperation,
				Status: status,
				msg:    fmt.Sprintf("returned an error; check called web service (status %d)", status),
			}
		}
	case envelope.KindObject:
		var fields map[string]json.RawMessage
		if err := r.DecodeData(&fields); err != nil {
			return r, &Error{Kind: ErrProtocol, Status: status, msg: fmt.Sprintf("decode data object: %v", err)}
		}
		if len(fields) == 0 {
			return r, emptyData(status)
		}
	}
	return r, nil
}

func emptyData(status int) error {
	return &Error{
		Kind:   ErrEmptyData,
		Status: status,
		msg:    fmt.Sprintf("returned no data; check parameters and syntax (status %d)", status),
	}
}
