package fetch

import (
	"sort"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// Accumulator incrementally unions streaming batches into one
// materialized list. Insertion order is stable, identity conflicts
// resolve deterministically, and the list is re-sorted after every
// merge so a progressively rendered view is never visibly out of
// order.
type Accumulator struct {
	family types.Family
	index  map[string]int
	items  []types.Resource
}

// NewAccumulator creates an empty accumulator for a family.
func NewAccumulator(family types.Family) *Accumulator {
	return &Accumulator{
		family: family,
		index:  make(map[string]int),
	}
}

// identity returns the merge key for a resource. Families that dedupe
// by name drop the cluster label from the key so the same physical
// resource enumerated under two labels collapses to one record.
func (a *Accumulator) identity(r *types.Resource) string {
	if a.family.DedupeByName {
		return r.Identity()
	}
	return r.Cluster + "|" + r.Identity()
}

// add unions a slice of items into the accumulator.
func (a *Accumulator) add(items []types.Resource) {
	for _, item := range items {
		id := a.identity(&item)
		if pos, ok := a.index[id]; ok {
			if a.family.DedupeByName {
				a.items[pos] = PreferredDuplicate(a.items[pos], item)
			} else {
				a.items[pos] = item
			}
			continue
		}
		a.index[id] = len(a.items)
		a.items = append(a.items, item)
	}
}

// Prime seeds the accumulator with already-held items (partial results
// retained from an earlier source). Later additions fill gaps around
// them.
func (a *Accumulator) Prime(items []types.Resource) {
	a.add(items)
}

// Add merges one streaming batch and returns the current materialized
// list, sorted by the family's policy.
func (a *Accumulator) Add(batch types.Batch) []types.Resource {
	a.add(batch.Items)
	return a.Items()
}

// Items returns a sorted copy of the accumulated list.
func (a *Accumulator) Items() []types.Resource {
	out := append([]types.Resource(nil), a.items...)
	SortItems(out, a.family.Sort)
	return out
}

// Len returns how many distinct records have accumulated.
func (a *Accumulator) Len() int {
	return len(a.items)
}

// PreferredDuplicate picks between two records describing the same
// physical resource under different scope labels. The shorter cluster
// label is considered canonical ("vllm-d" beats
// "default/api-fmaas-vllm-d-ctx"); on equal-length labels the record
// with self-consistent accounting (allocated ≤ capacity) wins; all
// else equal the incumbent stays.
func PreferredDuplicate(a, b types.Resource) types.Resource {
	switch {
	case len(a.Cluster) < len(b.Cluster):
		return a
	case len(b.Cluster) < len(a.Cluster):
		return b
	}
	ac, bc := selfConsistent(&a), selfConsistent(&b)
	if bc && !ac {
		return b
	}
	return a
}

// selfConsistent reports whether a record's internal accounting holds
// together. Records without accounting are trusted.
func selfConsistent(r *types.Resource) bool {
	cap, ok := r.Metrics["gpu_capacity"]
	if !ok {
		return true
	}
	return r.Metric("gpu_allocated") <= cap
}

// SortItems orders a materialized list in place by policy.
func SortItems(items []types.Resource, policy types.SortPolicy) {
	switch policy {
	case types.SortByName:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Name < items[j].Name
		})
	case types.SortRestartsDesc:
		sort.SliceStable(items, func(i, j int) bool {
			ri, rj := items[i].Metric("restarts"), items[j].Metric("restarts")
			if ri != rj {
				return ri > rj
			}
			return items[i].Name < items[j].Name
		})
	}
}

// Finalize dedups and sorts a complete (non-streamed) result with the
// same rules the accumulator applies.
func Finalize(items []types.Resource, family types.Family) []types.Resource {
	acc := NewAccumulator(family)
	acc.add(items)
	return acc.Items()
}
