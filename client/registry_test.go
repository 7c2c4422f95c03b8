package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContinue(t *testing.T) {
	r := Registry{}
	r.Initialize()

	// first submission of a client is always a new action
	assert.True(t, r.Continue("user-a", "target-1"))

	// re-submitting the same target (page refresh) is not
	assert.False(t, r.Continue("user-a", "target-1"))

	// a different target is a new action again
	assert.True(t, r.Continue("user-a", "target-2"))

	// and so is the old target after the switch (last submission only)
	assert.True(t, r.Continue("user-a", "target-1"))

	// clients do not interfere with each other
	assert.True(t, r.Continue("user-b", "target-1"))
}

func TestCountAndDump(t *testing.T) {
	r := Registry{}
	r.Initialize()

	r.Continue("user-a", "target-1")
	r.Continue("user-b", "target-2")
	r.Continue("user-a", "target-3") // replaces, does not add

	assert.Equal(t, 2, r.Count())
	assert.Len(t, r.Dump(10), 2)
}
