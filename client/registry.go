package client

import (
	"sync"
	"time"
)

type submission struct {
	TargetID  string
	Submitted time.Time
}

// mediate access to the submissions-map using mutex
// this is needed because the map is maintained by a GO-routine
var registry = struct {
	sync.RWMutex
	submissions map[string]submission // key is the submitting client (author or IP)
}{}

// Registry keeps the last vote submission per client in memory.
// It lets the API suppress duplicate page-refresh submissions from the
// analytics signals and feeds the monitor endpoints.
type Registry struct {
}

func (r Registry) Initialize() {
	registry.submissions = make(map[string]submission)
}

// Continue reports whether a submission is a new action of the client
// (false means the same client re-submitted the same target, eg. a refresh)
func (r Registry) Continue(client string, targetID string) bool {

	registry.RLock()
	found := !(registry.submissions[client].TargetID == targetID)
	registry.RUnlock()

	// add or update the last (relevant) submission
	sub := submission{
		TargetID:  targetID,
		Submitted: time.Now(),
	}

	registry.Lock()
	registry.submissions[client] = sub
	registry.Unlock()

	return found
}

// Flush removes submissions from the registry which are older than 15 minutes
// usually called by a GO-routine that runs in a ticker
func (r Registry) Flush() {

	registry.Lock()
	now := time.Now()
	if len(registry.submissions) > 5000 {
		// it's safe to just delete expired keys, since iterations over maps are not ordered
		for key, value := range registry.submissions {
			if now.Sub(value.Submitted).Minutes() > 15 {
				delete(registry.submissions, key)
			}
		}
	}
	registry.Unlock()
}

// Count returns how many different clients are currently active
func (r Registry) Count() int {
	registry.RLock()
	cnt := len(registry.submissions)
	registry.RUnlock()
	return cnt
}

// Dump returns the last submitted target and timestamp for each client
func (r Registry) Dump(max int) []submission {

	var res []submission
	var sub submission
	i := 0

	registry.RLock()
	for _, v := range registry.submissions {
		if i > max {
			break
		}

		sub.TargetID = v.TargetID
		sub.Submitted = v.Submitted

		res = append(res, sub)
		i++
	}
	registry.RUnlock()

	return res
}
