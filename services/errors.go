package services

import "errors"

var (
	// ErrStoreUnavailable means eligibility could not be determined. It is never reported as an empty audience.
	ErrStoreUnavailable = errors.New("recipient store unavailable")
	// ErrDeliveryFailed classifies a single recipient's failed push; it stays in that recipient's outcome.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrUnknownTemplate is informational: the lookup already fell back to DefaultTemplate.
	ErrUnknownTemplate = errors.New("unknown template")

	ErrRecipientNotFound     = errors.New("user not subscribed to notifications")
	ErrNotificationsDisabled = errors.New("user has disabled notifications")
)
