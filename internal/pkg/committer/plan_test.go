package committer

import (
	"testing"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
)

func TestCommitPlan(t *testing.T) {
	plan := NewPlan()
	assert.True(t, plan.IsEmpty())

	plan.Add(nil)
	assert.True(t, plan.IsEmpty())

	plan.Add(spanner.Delete("products", spanner.Key{"p-1"}))
	plan.Add(spanner.Delete("products", spanner.Key{"p-2"}))

	assert.False(t, plan.IsEmpty())
	assert.Len(t, plan.Mutations(), 2)
}
