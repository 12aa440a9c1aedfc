package acquisition

import (
	"errors"
	"fmt"
)

// Reason codes returned with access decisions. Stable strings, clients
// branch on them.
const (
	ReasonGranted          = "GRANTED"
	ReasonFree             = "FREE"
	ReasonAuthRequired     = "AUTH_REQUIRED"
	ReasonPaymentRequired  = "PAYMENT_REQUIRED"
	ReasonPaymentPending   = "PAYMENT_PENDING"
	ReasonPasswordRequired = "PASSWORD_REQUIRED"
	ReasonWrongPassword    = "WRONG_PASSWORD"
	ReasonTwitchNotLinked  = "TWITCH_NOT_LINKED"
	ReasonNotSubscribed    = "NOT_SUBSCRIBED"
	ReasonSubscribed       = "TWITCH_SUBSCRIBED"
	ReasonSuspended        = "ACCESS_SUSPENDED"
	ReasonRevoked          = "ACCESS_REVOKED"
)

// Decision is the read-only answer to "may this user access this
// modpack". RequiredChannels is set for Twitch-gated packs so the UI
// can tell the user which subscriptions would unlock it.
type Decision struct {
	CanAccess        bool     `json:"canAccess"`
	Reason           string   `json:"reason"`
	RequiredChannels []string `json:"requiredChannels,omitempty"`
}

// Denial is a business-rule refusal of an acquire call: wrong password,
// not subscribed, payment outstanding. It is a result, not an error.
// Upstream failures are errors, denials are expected traffic.
type Denial struct {
	Reason           string   `json:"reason"`
	RequiredChannels []string `json:"requiredChannels,omitempty"`
	PaymentRef       string   `json:"paymentRef,omitempty"`
}

// ErrUpstream marks failures of an external collaborator (Twitch API,
// payment provider, database). Retryable, unlike denials.
var ErrUpstream = errors.New("upstream failure")

// ErrNotFound mirrors the permissions sentinel for missing rows.
var ErrNotFound = errors.New("not found")

func upstream(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, ErrUpstream, err)
}

// IsNotFound reports whether err is the missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUpstream reports whether err came from an external collaborator.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}
