// Package validator holds the pluggable rule engines. Every engine implements
// the same contract over the extracted entity set and the standards store, is
// stateless across calls, and is safe to run concurrently with its peers
// (standards access is read-only).
package validator

import (
	"context"

	"drawcheck/internal/domain"
	"drawcheck/internal/standards"
)

// Validator is the uniform contract of one rule engine. Evaluate returns one
// CheckResult per attempted check, passed or failed, so the report's pass-rate
// denominator stays well defined.
type Validator interface {
	Category() domain.CheckCategory
	Evaluate(ctx context.Context, entities *domain.EntitySet, store *standards.Store) []domain.CheckResult
}

// Registry is the closed dispatch table, keyed by category. Adding an engine
// means adding a type and a table entry, not runtime reflection.
type Registry struct {
	byCategory map[domain.CheckCategory]Validator
	order      []domain.CheckCategory
}

// NewRegistry builds the table. Later entries with a duplicate category
// replace earlier ones.
func NewRegistry(validators ...Validator) *Registry {
	r := &Registry{byCategory: make(map[domain.CheckCategory]Validator, len(validators))}
	for _, v := range validators {
		if _, exists := r.byCategory[v.Category()]; !exists {
			r.order = append(r.order, v.Category())
		}
		r.byCategory[v.Category()] = v
	}
	return r
}

// DefaultRegistry wires the full production validator set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewGDT(),
		NewWelding(),
		NewMaterial(),
		NewComposite(),
	)
}

// Get returns the engine for a category.
func (r *Registry) Get(category domain.CheckCategory) (Validator, bool) {
	v, ok := r.byCategory[category]
	return v, ok
}

// Categories lists registered categories in registration order.
func (r *Registry) Categories() []domain.CheckCategory {
	out := make([]domain.CheckCategory, len(r.order))
	copy(out, r.order)
	return out
}
