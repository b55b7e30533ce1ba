package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline state machine. Each maps to exactly one
// HTTP status in the webhook handler.
var (
	// ErrAuthentication: bad or missing signature. Fatal, nothing runs.
	ErrAuthentication = errors.New("webhook authentication failed")
	// ErrMalformedPayload: body is not JSON or lacks a product identifier.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrCatalogUnavailable: catalog lookup failed for infrastructure
	// reasons. Recoverable per-request; the pipeline degrades to
	// extraction-derived tags.
	ErrCatalogUnavailable = errors.New("vehicle catalog unavailable")
	// ErrDispatchFailed: a tag-apply or collection call failed. The sender
	// decides whether to redeliver the whole event.
	ErrDispatchFailed = errors.New("external dispatch failed")
)

// DispatchError records which outbound operation failed for which tag, so
// partial side effects can be reconciled manually from the logs.
type DispatchError struct {
	Op  string // "apply_tags", "ensure_collection", "add_product"
	Tag string // composite tag involved, empty for apply_tags
	Err error
}

func (e *DispatchError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("dispatch %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("dispatch %s (tag %q): %v", e.Op, e.Tag, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
