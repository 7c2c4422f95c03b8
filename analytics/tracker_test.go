package analytics

import (
	"os"
	"testing"

	"crowdcheck/lookups"

	"github.com/influxdata/influxdb-client-go/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureWriteAPI stands in for the non-blocking influx write api
type captureWriteAPI struct {
	points  []*write.Point
	flushed int
	errCh   chan error
}

func (c *captureWriteAPI) WriteRecord(line string)       {}
func (c *captureWriteAPI) WritePoint(point *write.Point) { c.points = append(c.points, point) }
func (c *captureWriteAPI) Flush()                        { c.flushed++ }
func (c *captureWriteAPI) Close()                        {}
func (c *captureWriteAPI) Errors() <-chan error          { return c.errCh }

func tagValue(p *write.Point, key string) string {
	for _, tag := range p.TagList() {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

func fieldValue(p *write.Point, key string) interface{} {
	for _, f := range p.FieldList() {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

func TestSaveJobEvent(t *testing.T) {
	os.Setenv("USE_ANALYTICS", "YES")
	defer os.Unsetenv("USE_ANALYTICS")

	capture := &captureWriteAPI{}
	tracker := &Tracker{}
	tracker.JobAPI.WriteAPI = capture

	tracker.SaveJobEvent("failed", "job-1", lookups.TKclaim,
		"6055d819671e62579fcc2151", "601526e8a468e8973193facd", "target deleted")

	require.Len(t, capture.points, 1)
	p := capture.points[0]

	assert.Equal(t, "vote_job", p.Name())
	assert.Equal(t, "failed", tagValue(p, "event"))
	// kind and id travel as one composite tag
	assert.Equal(t, "CLAIM_6055d819671e62579fcc2151", tagValue(p, "targetId"))
	assert.Equal(t, "job-1", fieldValue(p, "jobId"))
	assert.Equal(t, "601526e8a468e8973193facd", fieldValue(p, "userId"))
	assert.Equal(t, "target deleted", fieldValue(p, "reason"))
}

func TestSaveJobEventDisabled(t *testing.T) {
	os.Unsetenv("USE_ANALYTICS")

	capture := &captureWriteAPI{}
	tracker := &Tracker{}
	tracker.JobAPI.WriteAPI = capture

	tracker.SaveJobEvent("added", "job-1", lookups.TKclaim, "t", "u", "")

	assert.Empty(t, capture.points)
}

// buffered events must reach the store before the connection closes
func TestCloseFlushesBufferedEvents(t *testing.T) {
	capture := &captureWriteAPI{}
	tracker := &Tracker{}
	tracker.JobAPI.WriteAPI = capture

	tracker.Close()

	assert.Equal(t, 1, capture.flushed)
}
