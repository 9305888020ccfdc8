package escrow

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	// TrustlessWorkFeeBps is the fixed protocol fee added on top of the
	// platform fee when the escrow is initialised.
	TrustlessWorkFeeBps = 30
	// MaxTotalFeeBps caps the combined platform and protocol fee.
	MaxTotalFeeBps = 10_000
	// MaxPlatformFeeBps is the largest platform fee that keeps the combined
	// fee within MaxTotalFeeBps.
	MaxPlatformFeeBps = MaxTotalFeeBps - TrustlessWorkFeeBps
	// MaxMilestones bounds the number of milestones per engagement.
	MaxMilestones = 50
)

// Default milestone values synthesised when no milestones are supplied.
const (
	DefaultMilestoneDescription = "Default milestone"
	DefaultMilestoneStatus      = "Pending"
)

var (
	// ErrInvalidMilestone describes malformed or pre-approved milestones.
	ErrInvalidMilestone = errors.New("escrow: invalid milestone")
	// ErrMilestoneCount is returned when the milestone list is empty or too long.
	ErrMilestoneCount = errors.New("escrow: invalid milestone count")
	// ErrInvalidAmount is returned for negative or unparsable amounts.
	ErrInvalidAmount = errors.New("escrow: invalid amount")
	// ErrInvalidFee is returned when the platform fee is out of range.
	ErrInvalidFee = errors.New("escrow: invalid platform fee")
	// ErrMissingField is returned when a required payload field is blank.
	ErrMissingField = errors.New("escrow: missing field")
	// ErrInvalidPayload describes decoded documents that violate creation
	// invariants outside the other categories.
	ErrInvalidPayload = errors.New("escrow: invalid payload")
)

// Roles lists the addresses participating in the engagement.
type Roles struct {
	Approver        string `json:"approver"`
	ServiceProvider string `json:"service_provider"`
	PlatformAddress string `json:"platform_address"`
	ReleaseSigner   string `json:"release_signer"`
	DisputeResolver string `json:"dispute_resolver"`
	Receiver        string `json:"receiver"`
}

// Flags tracks the dispute and release state. All flags are false when an
// escrow is initialised.
type Flags struct {
	Disputed bool `json:"disputed"`
	Released bool `json:"released"`
	Resolved bool `json:"resolved"`
}

// Trustline identifies the token contract the escrow holds.
type Trustline struct {
	Address string `json:"address"`
}

// Milestone is a unit of deliverable work within an engagement.
type Milestone struct {
	Description string `json:"description"`
	Status      string `json:"status"`
	Evidence    string `json:"evidence"`
	Approved    bool   `json:"approved"`
}

// DefaultMilestone returns the single milestone used when the caller supplies
// none.
func DefaultMilestone() Milestone {
	return Milestone{
		Description: DefaultMilestoneDescription,
		Status:      DefaultMilestoneStatus,
	}
}

// Payload is the validated escrow initialisation document. Values returned by
// Build are never modified afterwards; callers that need to alter a payload
// should work on a Clone.
type Payload struct {
	EngagementID   string
	Title          string
	Description    string
	Roles          Roles
	Amount         *uint256.Int
	PlatformFeeBps int64
	Milestones     []Milestone
	Flags          Flags
	Trustline      Trustline
	ReceiverMemo   int64
}

// Clone returns a deep copy of the payload.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = p.Amount.Clone()
	} else {
		clone.Amount = uint256.NewInt(0)
	}
	if p.Milestones != nil {
		clone.Milestones = make([]Milestone, len(p.Milestones))
		copy(clone.Milestones, p.Milestones)
	}
	return &clone
}

// TotalFeeBps returns the platform fee plus the fixed protocol fee.
func (p *Payload) TotalFeeBps() int64 {
	if p == nil {
		return TrustlessWorkFeeBps
	}
	return p.PlatformFeeBps + TrustlessWorkFeeBps
}
