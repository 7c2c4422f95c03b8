package lookups

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetKind(t *testing.T) {
	assert.Equal(t, "article", TargetKind(TKarticle))
	assert.Equal(t, "claim", TargetKind(TKclaim))
	assert.Equal(t, "review", TargetKind(TKreview))
	assert.Equal(t, "user", TargetKind(TKuser))
	assert.Equal(t, "", TargetKind("COMMENT"))
}

func TestJobStatus(t *testing.T) {
	assert.Equal(t, "waiting for the vote worker", JobStatus(JSqueued))
	assert.Equal(t, "being processed", JobStatus(JSactive))
	assert.Equal(t, "processed successfully", JobStatus(JScompleted))
	assert.Equal(t, "failed (see reason)", JobStatus(JSfailed))
	assert.Equal(t, "", JobStatus("unknown"))
}
