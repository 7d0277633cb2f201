// Package committer collects Spanner mutations into a CommitPlan and applies them
// atomically.
//
// Repositories build mutations without applying them; the caller gathers them in
// a plan and commits once. When the mutations depend on what is currently stored
// (a price step needs the current price), ApplyInTransaction runs the read and the
// plan building inside one read-write transaction so concurrent writers on the
// same row are serialized by Spanner's locking.
//
//	err := c.ApplyInTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) (*CommitPlan, error) {
//	    row, err := txn.ReadRow(ctx, "products", spanner.Key{id}, cols)
//	    if err != nil {
//	        return nil, err
//	    }
//	    plan := committer.NewPlan()
//	    plan.Add(productMut)
//	    plan.Add(historyMut)
//	    return plan, nil
//	})
package committer

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
)

// CommitPlan is a typed wrapper around Spanner mutations.
type CommitPlan struct {
	mutations []*spanner.Mutation
}

// NewPlan creates a new empty CommitPlan.
func NewPlan() *CommitPlan {
	return &CommitPlan{
		mutations: make([]*spanner.Mutation, 0),
	}
}

// Add adds a mutation to the plan.
// Nil mutations are silently ignored for convenience.
func (cp *CommitPlan) Add(mut *spanner.Mutation) {
	if mut != nil {
		cp.mutations = append(cp.mutations, mut)
	}
}

// Mutations returns all collected mutations.
func (cp *CommitPlan) Mutations() []*spanner.Mutation {
	return cp.mutations
}

// IsEmpty returns true if the plan has no mutations.
func (cp *CommitPlan) IsEmpty() bool {
	return len(cp.mutations) == 0
}

// PlanFunc reads inside txn and returns the mutations to commit. It may run more
// than once if Spanner aborts and retries the transaction.
type PlanFunc func(ctx context.Context, txn *spanner.ReadWriteTransaction) (*CommitPlan, error)

// Committer provides transaction execution for CommitPlans.
type Committer struct {
	client *spanner.Client
}

// NewCommitter creates a new Committer.
func NewCommitter(client *spanner.Client) *Committer {
	return &Committer{client: client}
}

// Apply executes the CommitPlan atomically as a blind write.
func (c *Committer) Apply(ctx context.Context, plan *CommitPlan) error {
	if plan.IsEmpty() {
		return nil
	}

	if _, err := c.client.Apply(ctx, plan.Mutations()); err != nil {
		return fmt.Errorf("failed to apply commit plan: %w", err)
	}
	return nil
}

// ApplyInTransaction runs fn in a read-write transaction and buffers the plan it
// returns. An error from fn rolls the transaction back and is returned unchanged
// in the chain.
func (c *Committer) ApplyInTransaction(ctx context.Context, fn PlanFunc) error {
	_, err := c.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		plan, err := fn(ctx, txn)
		if err != nil {
			return err
		}
		if plan == nil || plan.IsEmpty() {
			return nil
		}
		return txn.BufferWrite(plan.Mutations())
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
