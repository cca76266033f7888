// Package batcher groups ready operations into internally-compatible,
// capacity-bounded batches for dispatch by the queue processor.
package batcher

import (
	"sort"

	"github.com/specforged/specforge/internal/queue"
)

// DefaultCapacity is the maximum operations per batch.
const DefaultCapacity = 50

// disjointArtifactTypes are pairwise compatible on the same
// specification because they touch disjoint artifact sets.
var disjointArtifactTypes = map[queue.Type]bool{
	queue.TypeUpdateRequirements: true,
	queue.TypeUpdateDesign:       true,
	queue.TypeUpdateTasks:        true,
}

// compatible applies the pairwise compatibility relation: same type
// and same spec; or different types on the same spec both drawn from
// the disjoint-artifact set; or different specs entirely.
func compatible(a, b *queue.Operation) bool {
	specA, specB := a.SpecID(), b.SpecID()
	if specA != specB {
		return true
	}
	if a.Type == b.Type {
		return true
	}
	return disjointArtifactTypes[a.Type] && disjointArtifactTypes[b.Type]
}

// Batch groups a compatible run of operations for single dispatch.
type Batch struct {
	Operations []*queue.Operation
}

// Batches groups ops (already selected/ready) into batches that are
// internally compatible (checked pairwise against the batch head) and
// never exceed capacity. Operations are first ordered by priority
// descending then submission timestamp ascending; the finished batches
// are then returned in submission order of each batch's first
// operation.
func Batches(ops []*queue.Operation, capacity int) []*Batch {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	ordered := make([]*queue.Operation, len(ops))
	copy(ordered, ops)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	var batches []*Batch
	for _, op := range ordered {
		placed := false
		for _, b := range batches {
			if len(b.Operations) >= capacity {
				continue
			}
			head := b.Operations[0]
			if compatible(head, op) {
				b.Operations = append(b.Operations, op)
				placed = true
				break
			}
		}
		if !placed {
			batches = append(batches, &Batch{Operations: []*queue.Operation{op}})
		}
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].Operations[0].SubmittedAt.Before(batches[j].Operations[0].SubmittedAt)
	})
	return batches
}
