package payments

import (
	"context"
	"errors"
	"time"

	"github.com/healthdesk/scheduler/pkg/logging"
)

// ErrDeclined is returned when a charge does not go through.
var ErrDeclined = errors.New("payments: charge declined")

// ChargeRequest describes one checkout charge.
type ChargeRequest struct {
	Reference string
	Items     int
}

// Gateway processes checkout charges. The basket engine depends only on this
// interface; a real provider integration would plug in behind it.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) error
}

// SimulatedGateway is a dev/demo gateway that approves or declines every
// charge after a fixed delay, without talking to any provider.
//
// This MUST be gated by configuration (ALLOW_SIMULATED_PAYMENTS) and should
// never be enabled in production.
type SimulatedGateway struct {
	delay   time.Duration
	decline bool
	logger  *logging.Logger
}

// NewSimulatedGateway builds a gateway that approves charges after delay.
func NewSimulatedGateway(delay time.Duration, logger *logging.Logger) *SimulatedGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedGateway{delay: delay, logger: logger}
}

// NewDecliningGateway builds a gateway that declines every charge, used to
// exercise the failed-payment path.
func NewDecliningGateway(logger *logging.Logger) *SimulatedGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedGateway{decline: true, logger: logger}
}

// Charge simulates the payment outcome.
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) error {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if g.decline {
		g.logger.Info("simulated charge declined", "reference", req.Reference, "items", req.Items)
		return ErrDeclined
	}
	g.logger.Info("simulated charge approved", "reference", req.Reference, "items", req.Items)
	return nil
}

var _ Gateway = (*SimulatedGateway)(nil)
