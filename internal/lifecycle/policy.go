package lifecycle

import (
	"fmt"

	"github.com/erazemk/darila/internal/model"
)

// Policy selects how a claim enters the lifecycle.
type Policy string

// Claim policies.
const (
	// PolicyDirect reserves an item for the first claimant.
	PolicyDirect Policy = "direct"
	// PolicyModerated records a request the owner must approve.
	PolicyModerated Policy = "moderated"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyDirect, PolicyModerated:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown claim policy %q", model.ErrInvalidInput, s)
}

// shared rows of the transition table.
var common = map[model.Status][]model.Status{
	model.StatusReserved:    {model.StatusGiven},
	model.StatusGiven:       {model.StatusConfirmed},
	model.StatusConfirmed:   nil,
	model.StatusFlaggedDupe: nil,
}

var tables = map[Policy]map[model.Status][]model.Status{
	PolicyDirect: with(common, map[model.Status][]model.Status{
		model.StatusAvailable: {model.StatusReserved, model.StatusFlaggedDupe},
		model.StatusRequested: {model.StatusFlaggedDupe},
	}),
	PolicyModerated: with(common, map[model.Status][]model.Status{
		model.StatusAvailable: {model.StatusRequested, model.StatusFlaggedDupe},
		model.StatusRequested: {model.StatusReserved, model.StatusFlaggedDupe},
	}),
}

func with(base, rows map[model.Status][]model.Status) map[model.Status][]model.Status {
	out := make(map[model.Status][]model.Status, len(base)+len(rows))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range rows {
		out[k] = v
	}
	return out
}

// Targets returns the statuses reachable from from in one step.
func (p Policy) Targets(from model.Status) []model.Status {
	return tables[p][from]
}

// Allowed reports whether from to to is a row of the transition table.
func (p Policy) Allowed(from, to model.Status) bool {
	for _, s := range p.Targets(from) {
		if s == to {
			return true
		}
	}
	return false
}

// ClaimTarget is the status a successful claim moves an available item to.
func (p Policy) ClaimTarget() model.Status {
	if p == PolicyModerated {
		return model.StatusRequested
	}
	return model.StatusReserved
}
