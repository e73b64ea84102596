package main

import (
	"fmt"
	"log/slog"

	"github.com/Thiagojm/rng_trials/bbusb"
	"github.com/Thiagojm/rng_trials/coin"
	"github.com/Thiagojm/rng_trials/config"
	"github.com/Thiagojm/rng_trials/pseudorng"
	"github.com/Thiagojm/rng_trials/truerng"
)

// openSource opens the coin source named by cfg.Source. Hardware sources stay
// open until the returned close func is called.
func openSource(cfg config.Config, log *slog.Logger) (coin.Source, func() error, error) {
	switch cfg.Source {
	case coin.DevicePseudo:
		g, err := pseudorng.NewGenerator(cfg.Seed)
		if err != nil {
			return nil, nil, fmt.Errorf("pseudo seed: %w", err)
		}
		log.Debug("using pseudo source", "seed", g.Seed())
		return g, func() error { return nil }, nil
	case coin.DeviceTrueRNG:
		s, err := truerng.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("trng: %w", err)
		}
		log.Debug("using TrueRNG", "port", s.Port())
		return s, s.Close, nil
	case coin.DeviceBitBabbler:
		s, err := bbusb.Open(bbusb.DefaultBitrate, 1)
		if err != nil {
			return nil, nil, fmt.Errorf("bitb open: %w (ensure libusb-1.0 is available)", err)
		}
		log.Debug("using BitBabbler")
		return s, s.Close, nil
	default:
		return nil, nil, cfg.Source.Validate()
	}
}
