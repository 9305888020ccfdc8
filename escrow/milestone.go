package escrow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawMilestone mirrors a caller-supplied milestone object. Pointer fields let
// the parser tell a missing key apart from a zero value.
type rawMilestone struct {
	Description *string `json:"description" yaml:"description"`
	Status      *string `json:"status" yaml:"status"`
	Evidence    *string `json:"evidence" yaml:"evidence"`
	Approved    *bool   `json:"approved" yaml:"approved"`
}

var milestoneKeys = map[string]struct{}{
	"description": {},
	"status":      {},
	"evidence":    {},
	"approved":    {},
}

// UnmarshalJSON matches object keys exactly; encoding/json would otherwise
// accept "DESCRIPTION" for "description".
func (r *rawMilestone) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data, milestoneKeys)
	if err != nil {
		return err
	}
	var decoded rawMilestone
	for _, key := range sortedKeys(fields) {
		var dst any
		switch key {
		case "description":
			dst = &decoded.Description
		case "status":
			dst = &decoded.Status
		case "evidence":
			dst = &decoded.Evidence
		case "approved":
			dst = &decoded.Approved
		}
		if err := json.Unmarshal(fields[key], dst); err != nil {
			return fmt.Errorf("field %q: %v", key, err)
		}
	}
	*r = decoded
	return nil
}

// objectFields decodes a JSON object into its raw members and rejects any key
// not in allowed. Keys are compared byte for byte.
func objectFields(data []byte, allowed map[string]struct{}) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("expected a JSON object")
	}
	for _, key := range sortedKeys(fields) {
		if _, ok := allowed[key]; !ok {
			return nil, fmt.Errorf("unknown field %q", key)
		}
	}
	return fields, nil
}

func sortedKeys(fields map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r rawMilestone) milestone(index int) (Milestone, error) {
	if r.Description == nil {
		return Milestone{}, fmt.Errorf("%w: milestone %d is missing description", ErrInvalidMilestone, index)
	}
	if r.Status == nil {
		return Milestone{}, fmt.Errorf("%w: milestone %d is missing status", ErrInvalidMilestone, index)
	}
	m := Milestone{
		Description: *r.Description,
		Status:      *r.Status,
	}
	if r.Evidence != nil {
		m.Evidence = *r.Evidence
	}
	if r.Approved != nil && *r.Approved {
		return Milestone{}, fmt.Errorf("%w: milestone %d approved must be false on initialization", ErrInvalidMilestone, index)
	}
	return m, nil
}

// ParseMilestonesJSON decodes a JSON array of milestone objects. A blank input
// yields the default milestone. Each object must carry description and status;
// evidence defaults to "" and approved to false. Approved milestones and keys
// other than the four milestone fields, compared case-sensitively, are
// rejected.
func ParseMilestonesJSON(raw string) ([]Milestone, error) {
	if strings.TrimSpace(raw) == "" {
		return []Milestone{DefaultMilestone()}, nil
	}
	data := []byte(raw)
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, fmt.Errorf("%w: milestones-json is not valid JSON: %v", ErrInvalidMilestone, err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
		return nil, fmt.Errorf("%w: milestones-json must be a non-empty JSON array", ErrInvalidMilestone)
	}
	milestones := make([]Milestone, 0, len(items))
	for i, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, fmt.Errorf("%w: milestone %d must be a JSON object", ErrInvalidMilestone, i)
		}
		var r rawMilestone
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return nil, fmt.Errorf("%w: milestone %d: %v", ErrInvalidMilestone, i, err)
		}
		m, err := r.milestone(i)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, nil
}

// ParseMilestonesYAML decodes a YAML sequence of milestone mappings using the
// same rules as ParseMilestonesJSON. An empty document is an error.
func ParseMilestonesYAML(data []byte) ([]Milestone, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: milestones YAML is malformed: %v", ErrInvalidMilestone, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: milestones YAML must be a non-empty sequence", ErrInvalidMilestone)
	}
	milestones := make([]Milestone, 0, len(root.Content))
	for i, item := range root.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: milestone %d must be a mapping", ErrInvalidMilestone, i)
		}
		for k := 0; k+1 < len(item.Content); k += 2 {
			key := item.Content[k].Value
			if _, ok := milestoneKeys[key]; !ok {
				return nil, fmt.Errorf("%w: milestone %d: unknown field %q", ErrInvalidMilestone, i, key)
			}
		}
		var r rawMilestone
		if err := item.Decode(&r); err != nil {
			return nil, fmt.Errorf("%w: milestone %d: %v", ErrInvalidMilestone, i, err)
		}
		m, err := r.milestone(i)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, nil
}

// ParseMilestonesFile reads milestones from path. Files ending in .yaml or
// .yml are decoded as YAML, everything else as JSON. Unlike the inline flag,
// an empty file is an error rather than a request for the default milestone.
func ParseMilestonesFile(path string) ([]Milestone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read milestones file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: milestones file %s is empty", ErrInvalidMilestone, path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseMilestonesYAML(data)
	default:
		return ParseMilestonesJSON(string(data))
	}
}
