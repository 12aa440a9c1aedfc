package acquisition

import (
	"context"
	"crypto/subtle"
	"errors"

	"packvault/internal/models"
)

// Store reads and writes acquisition rows for the gate.
type Store interface {
	Find(ctx context.Context, userID, modpackID string) (*models.ModpackAcquisition, error)
	Create(ctx context.Context, acquisition *models.ModpackAcquisition) error
}

// TwitchChecker answers subscription questions. Network failures must
// come back as errors, not as "not subscribed".
type TwitchChecker interface {
	CanUserAccessModpack(ctx context.Context, twitchUserID string, channelIDs []string) (bool, error)
}

// LinkResolver resolves a platform user to their linked Twitch user id.
// Returns ErrNotFound when no Twitch account is linked.
type LinkResolver interface {
	TwitchUserID(ctx context.Context, userID string) (string, error)
}

// PaymentStarter opens a pending payment with the external provider and
// returns the provider's payment reference.
type PaymentStarter interface {
	StartPayment(ctx context.Context, userID string, modpack *models.Modpack) (string, error)
}

// Gate decides whether a user may obtain a modpack, and performs the
// acquisition. All reads and writes go through the injected
// collaborators so the decision logic is testable without a database.
type Gate struct {
	store    Store
	twitch   TwitchChecker
	links    LinkResolver
	payments PaymentStarter
}

func NewGate(store Store, twitch TwitchChecker, links LinkResolver, payments PaymentStarter) *Gate {
	return &Gate{store: store, twitch: twitch, links: links, payments: payments}
}

// CanUserAcquire is the read-only access check. user may be nil for
// anonymous callers; anonymous checks never contact Twitch or the
// payment provider.
func (g *Gate) CanUserAcquire(ctx context.Context, user *models.User, modpack *models.Modpack) (Decision, error) {
	method := effectiveMethod(modpack)

	if user != nil {
		existing, err := g.store.Find(ctx, user.ID, modpack.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Decision{}, err
		}
		if existing != nil {
			switch existing.Status {
			case models.AcquisitionStatusActive:
				return Decision{CanAccess: true, Reason: ReasonGranted}, nil
			case models.AcquisitionStatusSuspended:
				return Decision{Reason: ReasonSuspended}, nil
			case models.AcquisitionStatusRevoked:
				return Decision{Reason: ReasonRevoked}, nil
			}
		}
	}

	if method == models.AcquisitionMethodFree {
		return Decision{CanAccess: true, Reason: ReasonFree}, nil
	}

	if user == nil {
		return Decision{Reason: ReasonAuthRequired}, nil
	}

	switch method {
	case models.AcquisitionMethodPaid:
		return Decision{Reason: ReasonPaymentRequired}, nil
	case models.AcquisitionMethodPassword:
		return Decision{Reason: ReasonPasswordRequired}, nil
	case models.AcquisitionMethodTwitchSub:
		channels := modpack.TwitchChannelIDs()
		twitchID, err := g.links.TwitchUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Decision{Reason: ReasonTwitchNotLinked, RequiredChannels: channels}, nil
			}
			return Decision{}, err
		}
		subscribed, err := g.twitch.CanUserAccessModpack(ctx, twitchID, channels)
		if err != nil {
			return Decision{}, upstream("twitch subscription check", err)
		}
		if !subscribed {
			return Decision{Reason: ReasonNotSubscribed, RequiredChannels: channels}, nil
		}
		return Decision{CanAccess: true, Reason: ReasonSubscribed}, nil
	}

	return Decision{Reason: ReasonAuthRequired}, nil
}

// Acquire obtains the modpack for user. Returns exactly one of: an
// acquisition record (success, idempotent for repeats), a Denial
// (business-rule refusal), or an error (undeterminable).
func (g *Gate) Acquire(ctx context.Context, user *models.User, modpack *models.Modpack, credential string) (*models.ModpackAcquisition, *Denial, error) {
	if user == nil {
		return nil, &Denial{Reason: ReasonAuthRequired}, nil
	}

	existing, err := g.store.Find(ctx, user.ID, modpack.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.AcquisitionStatusActive:
			// Re-acquiring is a no-op success.
			return existing, nil, nil
		case models.AcquisitionStatusSuspended:
			return nil, &Denial{Reason: ReasonSuspended}, nil
		case models.AcquisitionStatusRevoked:
			return nil, &Denial{Reason: ReasonRevoked}, nil
		}
	}

	method := effectiveMethod(modpack)

	switch method {
	case models.AcquisitionMethodFree:
		return g.grant(ctx, user.ID, modpack.ID, method, nil)

	case models.AcquisitionMethodPassword:
		if modpack.Password == "" || subtle.ConstantTimeCompare([]byte(credential), []byte(modpack.Password)) != 1 {
			return nil, &Denial{Reason: ReasonWrongPassword}, nil
		}
		return g.grant(ctx, user.ID, modpack.ID, method, nil)

	case models.AcquisitionMethodTwitchSub:
		channels := modpack.TwitchChannelIDs()
		twitchID, err := g.links.TwitchUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, &Denial{Reason: ReasonTwitchNotLinked, RequiredChannels: channels}, nil
			}
			return nil, nil, err
		}
		subscribed, err := g.twitch.CanUserAccessModpack(ctx, twitchID, channels)
		if err != nil {
			return nil, nil, upstream("twitch subscription check", err)
		}
		if !subscribed {
			return nil, &Denial{Reason: ReasonNotSubscribed, RequiredChannels: channels}, nil
		}
		return g.grant(ctx, user.ID, modpack.ID, method, nil)

	case models.AcquisitionMethodPaid:
		// The acquisition row is only created when the payment webhook
		// confirms; here we just open the payment.
		ref, err := g.payments.StartPayment(ctx, user.ID, modpack)
		if err != nil {
			return nil, nil, upstream("payment provider", err)
		}
		return nil, &Denial{Reason: ReasonPaymentPending, PaymentRef: ref}, nil
	}

	return nil, &Denial{Reason: ReasonAuthRequired}, nil
}

func (g *Gate) grant(ctx context.Context, userID, modpackID string, method models.AcquisitionMethod, transactionID *string) (*models.ModpackAcquisition, *Denial, error) {
	acq := &models.ModpackAcquisition{
		UserID:        userID,
		ModpackID:     modpackID,
		Method:        method,
		TransactionID: transactionID,
		Status:        models.AcquisitionStatusActive,
	}
	if err := g.store.Create(ctx, acq); err != nil {
		// Lost a race against a concurrent acquire; the unique index on
		// (user, modpack) means the winner's row is the answer.
		if existing, findErr := g.store.Find(ctx, userID, modpackID); findErr == nil {
			return existing, nil, nil
		}
		return nil, nil, err
	}
	return acq, nil, nil
}

// Modpacks with no acquisition method configured default to free.
func effectiveMethod(modpack *models.Modpack) models.AcquisitionMethod {
	if modpack.AcquisitionMethod == "" {
		return models.AcquisitionMethodFree
	}
	return modpack.AcquisitionMethod
}
