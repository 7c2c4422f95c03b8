package analytics

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"crowdcheck/client"
	"crowdcheck/database"
	"crowdcheck/helpers"
	"crowdcheck/lookups"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

// Tracker records the vote-job lifecycle signals (added/completed/failed)
// in the analytics store. Failed jobs matter most: the submitter already
// received a success response at enqueue time, so a lost vote is only
// visible here.
type Tracker struct {
	JobAPI      database.InfluxAPI
	GetUserName func(ID string) (string, error)
	Requests    *client.Registry
}

// JobEvent is one recorded lifecycle signal
type JobEvent struct {
	EventTS  time.Time `json:"eventTS"`
	Event    string    `json:"event"`
	JobID    string    `json:"jobId"`
	TargetID string    `json:"targetId"`
	Kind     string    `json:"kind"`
	UserID   string    `json:"userID"`
	UserName string    `json:"userName"`
	Reason   string    `json:"reason,omitempty"`
}

// SetConnections initializes the instance
func (t *Tracker) SetConnections(influxClient influxdb2.Client) {
	org := os.Getenv("ANALYTICS_ORG")
	bucket := os.Getenv("ANALYTICS_JOBS_BUCKET")

	t.JobAPI.WriteAPI = influxClient.WriteAPI(org, bucket)
	t.JobAPI.QueryAPI = influxClient.QueryAPI(org)

	// the write api is non-blocking; its errors surface on a channel
	// that must be drained or failed writes go unnoticed
	go func() {
		for err := range t.JobAPI.WriteAPI.Errors() {
			log.Println("analytics: job event write failed:", err)
		}
	}()
}

// Close sends the buffered job events before the connection goes away
func (t *Tracker) Close() {
	if t.JobAPI.WriteAPI != nil {
		t.JobAPI.WriteAPI.Flush()
	}
}

// SaveJobEvent stores one lifecycle signal in the analytics cache
func (t *Tracker) SaveJobEvent(event string, jobID string, kind string, targetID string, userID string, reason string) {

	if os.Getenv("USE_ANALYTICS") != "YES" {
		return
	}

	// the kind is wrapped into the tag so aggregation queries can group
	// per target type without a join
	p := influxdb2.NewPoint(
		"vote_job",
		map[string]string{
			"event":    event,
			"targetId": kind + "_" + targetID,
		},
		map[string]interface{}{
			"jobId":  jobID,
			"userId": userID,
			"reason": reason,
		},
		time.Now())

	t.JobAPI.WriteAPI.WritePoint(p)
}

// CountJobEvents counts the signals of one event type since startDT
func (t *Tracker) CountJobEvents(event string, startDT time.Time) (int64, error) {

	if os.Getenv("USE_ANALYTICS") != "YES" {
		return -1, nil
	}

	flux := `from(bucket: "%s")
		|> range(start: %s)
		|> filter(fn: (r) => r["_measurement"] == "vote_job" and r["event"] == "%s" and r["_field"] == "jobId")
		|> count()
		|> yield(name: "count")`

	flux = fmt.Sprintf(
		flux,
		os.Getenv("ANALYTICS_JOBS_BUCKET"),
		startDT.Format(time.RFC3339),
		event)

	result, err := t.JobAPI.QueryAPI.Query(context.Background(), flux)
	if err != nil {
		return 0, helpers.WrapError(err, helpers.FuncName())
	}

	var res interface{}
	for result.Next() {
		res = result.Record().Value()
	}

	var cnt int64 = 0
	if res != nil {
		cnt = res.(int64)
	}

	return cnt, nil
}

// ListFailedJobs returns the most recent failed-job signals since startDT.
// This is the monitoring view for votes that were accepted but then lost.
func (t *Tracker) ListFailedJobs(startDT time.Time) ([]JobEvent, error) {

	if os.Getenv("USE_ANALYTICS") != "YES" {
		return nil, nil
	}

	flux := `from(bucket: "%s")
		|> range(start: %s)
		|> filter(fn: (r) => r["_measurement"] == "vote_job" and r["event"] == "failed")
		|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		|> sort(columns: ["_time"], desc: true)
		|> limit(n:20, offset: 0)`

	flux = fmt.Sprintf(
		flux,
		os.Getenv("ANALYTICS_JOBS_BUCKET"),
		startDT.Format(time.RFC3339))

	result, err := t.JobAPI.QueryAPI.Query(context.Background(), flux)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	var event JobEvent
	var events []JobEvent
	for result.Next() {
		event.EventTS = result.Record().Time()
		event.Event = "failed"

		// the tag carries kind and id as one composite value
		if v, ok := result.Record().ValueByKey("targetId").(string); ok {
			if i := strings.Index(v, "_"); i > 0 {
				event.Kind = lookups.TargetKind(v[:i])
				event.TargetID = v[i+1:]
			} else {
				event.TargetID = v
			}
		}
		if v, ok := result.Record().ValueByKey("jobId").(string); ok {
			event.JobID = v
		}
		if v, ok := result.Record().ValueByKey("reason").(string); ok {
			event.Reason = v
		}
		if v, ok := result.Record().ValueByKey("userId").(string); ok {
			event.UserID = v
			event.UserName, _ = t.GetUserName(v)
		}

		events = append(events, event)
	}

	// the flux query is sorted, the slice comes back unordered though
	sort.Slice(events, func(i, j int) bool {
		return events[j].EventTS.Before(events[i].EventTS)
	})

	return events, nil
}
