// Package pool maintains the bucketed registry of exercise identifiers the
// blueprint stage is allowed to reference.
package pool

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/claude/liftplan/internal/models"
)

// Bucket size bounds for prompt-facing pools. Buckets outside these bounds
// either starve the model of choice or blow up the prompt.
const (
	MinBucketSize = 8
	MaxBucketSize = 25
)

// Pools maps bucket name to an ordered sequence of exercise ids. Every id
// referenced by a blueprint must appear in exactly one bucket of the pool
// version used to generate it.
type Pools map[string][]string

// Build groups a catalog into pools by category, preserving catalog order
// and truncating oversized buckets at MaxBucketSize.
func Build(catalog []models.ExerciseRef) Pools {
	p := Pools{}
	for _, ref := range catalog {
		bucket := ref.Category
		if bucket == "" {
			continue
		}
		if len(p[bucket]) >= MaxBucketSize {
			continue
		}
		p[bucket] = append(p[bucket], ref.ExerciseID)
	}
	return p
}

// Contains reports whether any bucket holds the given exercise id.
func (p Pools) Contains(exerciseID string) bool {
	_, ok := p.Find(exerciseID)
	return ok
}

// Find returns the bucket holding the given exercise id.
func (p Pools) Find(exerciseID string) (string, bool) {
	for bucket, ids := range p {
		for _, id := range ids {
			if id == exerciseID {
				return bucket, true
			}
		}
	}
	return "", false
}

// BucketNames returns the bucket names in sorted order, for deterministic
// prompt rendering.
func (p Pools) BucketNames() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the total number of ids across all buckets.
func (p Pools) Size() int {
	n := 0
	for _, ids := range p {
		n += len(ids)
	}
	return n
}

// Hash returns a stable digest of the pool contents. The blueprint prompt
// embeds it so stored programs can be traced to the pool version that
// produced them.
func (p Pools) Hash() string {
	h := sha256.New()
	for _, name := range p.BucketNames() {
		fmt.Fprintf(h, "%s:%s\n", name, strings.Join(p[name], ","))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Validate checks bucket size bounds and duplicate membership across
// buckets.
func (p Pools) Validate() error {
	seen := map[string]string{}
	for _, name := range p.BucketNames() {
		ids := p[name]
		if len(ids) < MinBucketSize || len(ids) > MaxBucketSize {
			return fmt.Errorf("bucket %s has %d entries, want %d-%d", name, len(ids), MinBucketSize, MaxBucketSize)
		}
		for _, id := range ids {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("exercise %s appears in buckets %s and %s", id, prev, name)
			}
			seen[id] = name
		}
	}
	return nil
}
