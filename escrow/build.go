package escrow

import (
	"fmt"
	"strings"
)

// Params carries the unvalidated inputs for Build.
type Params struct {
	EngagementID    string
	Title           string
	Description     string
	Roles           Roles
	Amount          string
	PlatformFeeBps  int64
	TokenContractID string
	ReceiverMemo    int64
	Milestones      []Milestone
}

// Build validates the supplied parameters and returns the initialisation
// payload. Any violation aborts construction; no partially valid payload is
// ever returned.
func Build(p Params) (*Payload, error) {
	if err := requireFields(p); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	if err := ValidatePlatformFee(p.PlatformFeeBps); err != nil {
		return nil, err
	}
	if err := ValidateMilestones(p.Milestones); err != nil {
		return nil, err
	}
	milestones := make([]Milestone, len(p.Milestones))
	copy(milestones, p.Milestones)
	return &Payload{
		EngagementID:   p.EngagementID,
		Title:          p.Title,
		Description:    p.Description,
		Roles:          p.Roles,
		Amount:         amount,
		PlatformFeeBps: p.PlatformFeeBps,
		Milestones:     milestones,
		Trustline:      Trustline{Address: p.TokenContractID},
		ReceiverMemo:   p.ReceiverMemo,
	}, nil
}

// ValidatePlatformFee ensures the fee is non-negative and leaves room for the
// fixed protocol fee within MaxTotalFeeBps. The bound is compared against
// MaxPlatformFeeBps so large inputs cannot wrap around.
func ValidatePlatformFee(bps int64) error {
	if bps < 0 {
		return fmt.Errorf("%w: platform-fee-bps must be >= 0", ErrInvalidFee)
	}
	if bps > MaxPlatformFeeBps {
		return fmt.Errorf("%w: platform-fee-bps + trustless-work fee exceeds %d bps", ErrInvalidFee, MaxTotalFeeBps)
	}
	return nil
}

// ValidateMilestones checks the milestone count bounds and that no milestone
// is already approved.
func ValidateMilestones(milestones []Milestone) error {
	if len(milestones) == 0 {
		return fmt.Errorf("%w: at least one milestone is required", ErrMilestoneCount)
	}
	if len(milestones) > MaxMilestones {
		return fmt.Errorf("%w: maximum %d milestones are allowed, got %d", ErrMilestoneCount, MaxMilestones, len(milestones))
	}
	for i, m := range milestones {
		if m.Approved {
			return fmt.Errorf("%w: milestone %d approved must be false on initialization", ErrInvalidMilestone, i)
		}
	}
	return nil
}

func requireFields(p Params) error {
	fields := []struct {
		name  string
		value string
	}{
		{"engagement_id", p.EngagementID},
		{"title", p.Title},
		{"description", p.Description},
		{"token_contract_id", p.TokenContractID},
		{"roles.approver", p.Roles.Approver},
		{"roles.service_provider", p.Roles.ServiceProvider},
		{"roles.platform_address", p.Roles.PlatformAddress},
		{"roles.release_signer", p.Roles.ReleaseSigner},
		{"roles.dispute_resolver", p.Roles.DisputeResolver},
		{"roles.receiver", p.Roles.Receiver},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrMissingField, f.name)
		}
	}
	return nil
}
