// Package apperr defines the sentinel error taxonomy shared across the
// generation and distribution pipeline. Callers classify failures with
// errors.Is and wrap with fmt.Errorf("context: %w", err).
package apperr

import "errors"

var (
	// ErrValidation marks missing or malformed input, detected before
	// any external call is made.
	ErrValidation = errors.New("validation failed")

	// ErrUpstreamContent marks generation-service output that is
	// unusable (empty, too short, or missing the document marker).
	ErrUpstreamContent = errors.New("unusable generated content")

	// ErrUpstreamTimeout marks a generation call that exceeded its
	// configured deadline.
	ErrUpstreamTimeout = errors.New("generation timed out")

	// ErrRender marks a rendering-engine failure.
	ErrRender = errors.New("render failed")

	// ErrRenderTimeout marks a render that exceeded its deadline.
	ErrRenderTimeout = errors.New("render timed out")

	// ErrPersistence marks a store read/write failure.
	ErrPersistence = errors.New("persistence failed")

	// ErrDelivery marks a delivery-provider failure.
	ErrDelivery = errors.New("delivery failed")

	// ErrDeliveryTimeout marks a delivery call that exceeded its deadline.
	ErrDeliveryTimeout = errors.New("delivery timed out")

	// ErrNotFound marks a lookup for an unknown identity.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStatus marks a status value outside the enumerated set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrIllegalTransition marks a guarded status transition that the
	// current state does not permit.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrNotConfigured marks an optional external provider that was not
	// configured at process start.
	ErrNotConfigured = errors.New("provider not configured")
)
