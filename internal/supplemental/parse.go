// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package supplemental

import (
	"encoding/json"
	"fmt"
	"strings"

	"privacy-sentinel/internal/detector"
)

type rawCandidate struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Original string `json:"original"`
}

// ParseCandidates extracts the JSON array of {type, value} objects from a
// model reply. Prose or code fences around the array are ignored. Items
// whose type is not a known category, or whose value is empty, are
// skipped.
func ParseCandidates(reply string) ([]Candidate, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in reply", ErrMalformedResponse)
	}

	var raw []rawCandidate
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		c, ok := detector.ParseCategory(r.Type)
		if !ok {
			continue
		}
		value := r.Value
		if value == "" {
			value = r.Original
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		out = append(out, Candidate{Category: c, Value: value})
	}
	return out, nil
}

// ParseVerdict extracts the {isValid, confidence} object from a model reply.
// Confidence is clamped to [0, 1].
func ParseVerdict(reply string) (Verdict, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Verdict{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
	}

	var v struct {
		Valid      *bool    `json:"isValid"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &v); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if v.Valid == nil {
		return Verdict{}, fmt.Errorf("%w: missing isValid", ErrMalformedResponse)
	}

	verdict := Verdict{Valid: *v.Valid, Confidence: detector.DefaultConfidence}
	if v.Confidence != nil {
		verdict.Confidence = min(max(*v.Confidence, 0), 1)
	}
	return verdict, nil
}
