package config

import (
	"fmt"

	"github.com/PeerlyPay/peerlypay/escrow"
	"github.com/PeerlyPay/peerlypay/observability/logging"
)

// ValidateProfile checks the values a profile can set without knowing the
// rest of the invocation.
func ValidateProfile(p *Profile) error {
	if p == nil {
		return nil
	}
	if p.PlatformFeeBps != nil {
		if err := escrow.ValidatePlatformFee(*p.PlatformFeeBps); err != nil {
			return fmt.Errorf("platform_fee_bps: %w", err)
		}
	}
	if p.Log.Level != "" {
		if _, err := logging.ParseLevel(p.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	if p.Log.Format != "" {
		if _, err := logging.ParseFormat(p.Log.Format); err != nil {
			return fmt.Errorf("log.format: %w", err)
		}
	}
	return nil
}
