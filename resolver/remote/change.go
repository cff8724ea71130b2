package remote

import (
	"sort"
	"time"
)

const (
	// ChangeAdded marks a feature present in the new generation only.
	ChangeAdded = "added"

	// ChangeUpdated marks a feature whose flow differs between generations.
	ChangeUpdated = "updated"

	// ChangeRemoved marks a feature absent from the new generation.
	ChangeRemoved = "removed"
)

// Change describes a single flow transition observed between two polled
// generations. Removed features carry an empty To.
type Change struct {
	ID      string    `json:"id"`
	Feature string    `json:"feature"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
}

// Update summarises one successful poll. Flows is the generation just
// swapped in and must be treated as read-only.
type Update struct {
	Project   string
	Flows     map[string]string
	Changes   []Change
	FetchedAt time.Time
}

// diffFlows lists transitions from the previous to the current generation,
// ordered by feature for deterministic consumption.
func diffFlows(previous, current map[string]string) []Change {
	var changes []Change
	for feature, flow := range current {
		prior, ok := previous[feature]
		switch {
		case !ok:
			changes = append(changes, Change{Feature: feature, To: flow, Kind: ChangeAdded})
		case prior != flow:
			changes = append(changes, Change{Feature: feature, From: prior, To: flow, Kind: ChangeUpdated})
		}
	}
	for feature, flow := range previous {
		if _, ok := current[feature]; !ok {
			changes = append(changes, Change{Feature: feature, From: flow, Kind: ChangeRemoved})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Feature < changes[j].Feature
	})
	return changes
}
