package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ekuatta/villapay/internal/model"
)

// ErrNoGateway means neither the payer nor the platform has a usable
// gateway configuration. Booking completion must be refused on it.
var ErrNoGateway = errors.New("no payment gateway configured")

const (
	SourceOwn   = "own"
	SourceAdmin = "admin"
)

type ConfigRepository interface {
	// FindActive returns the payer's active default gateway config, or
	// ErrConfigNotFound.
	FindActive(ctx context.Context, userID uuid.UUID, role string) (*model.GatewayConfig, error)
	// FindAdminDefault returns the platform-wide fallback config, or
	// ErrConfigNotFound.
	FindAdminDefault(ctx context.Context) (*model.GatewayConfig, error)
}

// Resolution carries the chosen config with its parsed credentials. Source
// says whose credentials will process the money.
type Resolution struct {
	Config            *model.GatewayConfig
	Credentials       *Credentials
	Source            string
	CanAcceptPayments bool
}

type Resolver struct {
	repo ConfigRepository
}

func NewResolver(repo ConfigRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve picks the payer's own gateway when one is active and its
// credentials validate, then the platform default, and otherwise reports the
// payer cannot accept payments. It never falls through to a non-functional
// config silently.
func (r *Resolver) Resolve(ctx context.Context, payerID uuid.UUID, payerRole string) (*Resolution, error) {
	own, err := r.repo.FindActive(ctx, payerID, payerRole)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, err
	}

	if own != nil && own.IsActive {
		if creds, err := ParseCredentials(own); err == nil {
			return &Resolution{
				Config:            own,
				Credentials:       creds,
				Source:            SourceOwn,
				CanAcceptPayments: true,
			}, nil
		}
		// Broken own credentials fall back to the platform default.
	}

	admin, err := r.repo.FindAdminDefault(ctx)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return &Resolution{CanAcceptPayments: false}, nil
		}
		return nil, err
	}

	if !admin.IsActive {
		return &Resolution{CanAcceptPayments: false}, nil
	}

	creds, err := ParseCredentials(admin)
	if err != nil {
		return &Resolution{CanAcceptPayments: false}, nil
	}

	return &Resolution{
		Config:            admin,
		Credentials:       creds,
		Source:            SourceAdmin,
		CanAcceptPayments: true,
	}, nil
}
