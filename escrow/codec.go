package escrow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// payloadJSON is the wire form. Field order here is the key order of the
// emitted document.
type payloadJSON struct {
	EngagementID string      `json:"engagement_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Roles        Roles       `json:"roles"`
	Amount       string      `json:"amount"`
	PlatformFee  int64       `json:"platform_fee"`
	Milestones   []Milestone `json:"milestones"`
	Flags        Flags       `json:"flags"`
	Trustline    Trustline   `json:"trustline"`
	ReceiverMemo string      `json:"receiver_memo"`
}

// payloadDoc is the decode form; milestones keep presence information so a
// document missing milestone keys is rejected.
type payloadDoc struct {
	EngagementID string         `json:"engagement_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Roles        Roles          `json:"roles"`
	Amount       string         `json:"amount"`
	PlatformFee  int64          `json:"platform_fee"`
	Milestones   []rawMilestone `json:"milestones"`
	Flags        Flags          `json:"flags"`
	Trustline    Trustline      `json:"trustline"`
	ReceiverMemo string         `json:"receiver_memo"`
}

var (
	payloadKeys = keySet("engagement_id", "title", "description", "roles", "amount",
		"platform_fee", "milestones", "flags", "trustline", "receiver_memo")
	rolesKeys = keySet("approver", "service_provider", "platform_address",
		"release_signer", "dispute_resolver", "receiver")
	flagsKeys     = keySet("disputed", "released", "resolved")
	trustlineKeys = keySet("address")
)

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// checkDocumentKeys rejects keys that encoding/json would otherwise match
// case-insensitively. Milestone objects check themselves on decode.
func checkDocumentKeys(data []byte) error {
	top, err := objectFields(data, payloadKeys)
	if err != nil {
		return err
	}
	nested := []struct {
		name    string
		allowed map[string]struct{}
	}{
		{"roles", rolesKeys},
		{"flags", flagsKeys},
		{"trustline", trustlineKeys},
	}
	for _, n := range nested {
		raw, ok := top[n.name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if _, err := objectFields(raw, n.allowed); err != nil {
			return fmt.Errorf("%s: %v", n.name, err)
		}
	}
	return nil
}

func (p *Payload) wire() payloadJSON {
	milestones := p.Milestones
	if milestones == nil {
		milestones = []Milestone{}
	}
	return payloadJSON{
		EngagementID: p.EngagementID,
		Title:        p.Title,
		Description:  p.Description,
		Roles:        p.Roles,
		Amount:       FormatAmount(p.Amount),
		PlatformFee:  p.PlatformFeeBps,
		Milestones:   milestones,
		Flags:        p.Flags,
		Trustline:    p.Trustline,
		ReceiverMemo: strconv.FormatInt(p.ReceiverMemo, 10),
	}
}

// Encode writes the payload as two-space indented JSON followed by a newline.
// HTML characters are not escaped.
func (p *Payload) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p.wire()); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return nil
}

// DecodePayload parses an initialisation document and re-applies every
// creation invariant, so only documents Build could have produced are
// accepted.
func DecodePayload(r io.Reader) (*Payload, error) {
	dec := json.NewDecoder(r)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidPayload)
	}
	if err := checkDocumentKeys(raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidPayload, err)
	}
	var doc payloadDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidPayload, err)
	}
	if doc.Flags.Disputed || doc.Flags.Released || doc.Flags.Resolved {
		return nil, fmt.Errorf("%w: flags must all be false on initialization", ErrInvalidPayload)
	}
	memo, err := strconv.ParseInt(strings.TrimSpace(doc.ReceiverMemo), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: receiver_memo %q is not an integer", ErrInvalidPayload, doc.ReceiverMemo)
	}
	milestones := make([]Milestone, 0, len(doc.Milestones))
	for i, raw := range doc.Milestones {
		m, err := raw.milestone(i)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return Build(Params{
		EngagementID:    doc.EngagementID,
		Title:           doc.Title,
		Description:     doc.Description,
		Roles:           doc.Roles,
		Amount:          doc.Amount,
		PlatformFeeBps:  doc.PlatformFee,
		TokenContractID: doc.Trustline.Address,
		ReceiverMemo:    memo,
		Milestones:      milestones,
	})
}
