package mgr

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

// RequestQueue holds a session's outstanding requests in send order and
// the session's message-id counter. It is safe for concurrent use;
// reply handlers are never called with the queue locked.
type RequestQueue struct {
	mu     sync.Mutex
	reqs   []*Request
	nextID uint32
}

// NextID returns the message-id counter value the next request will take.
func (q *RequestQueue) NextID() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nextID
}

// allocID returns the next message-id counter value, wrapping the
// counter to zero once limit has been issued.
func (q *RequestQueue) allocID(limit uint32) uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextID
	if q.nextID >= limit {
		q.nextID = 0
	} else {
		q.nextID++
	}
	return id
}

// Len returns the number of outstanding requests
func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.reqs)
}

// IDs returns the message-ids of the outstanding requests in send order.
func (q *RequestQueue) IDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, 0, len(q.reqs))
	for _, r := range q.reqs {
		ids = append(ids, r.MessageID)
	}
	return ids
}

func (q *RequestQueue) push(r *Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, r)
}

// Find returns the first outstanding request with message-id id.
func (q *RequestQueue) Find(id string) *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.index(id); i >= 0 {
		return q.reqs[i]
	}
	return nil
}

// remove removes r from the queue, reporting whether it was queued.
func (q *RequestQueue) remove(r *Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := slices.Index(q.reqs, r)
	if i < 0 {
		return false
	}
	q.reqs = slices.Delete(q.reqs, i, i+1)
	return true
}

// take finds and removes the first request with message-id id.
func (q *RequestQueue) take(id string) *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.index(id)
	if i < 0 {
		return nil
	}
	r := q.reqs[i]
	q.reqs = slices.Delete(q.reqs, i, i+1)
	return r
}

func (q *RequestQueue) index(id string) int {
	return slices.IndexFunc(q.reqs, func(r *Request) bool { return r.MessageID == id })
}

// expire removes the requests whose timeout has elapsed at now.
func (q *RequestQueue) expire(now time.Time) (expired []*Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = slices.DeleteFunc(q.reqs, func(r *Request) bool {
		if r.Timeout > 0 && now.Sub(r.StartTime) >= r.Timeout {
			expired = append(expired, r)
			return true
		}
		return false
	})
	return expired
}

// drain removes every request.
func (q *RequestQueue) drain() []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	reqs := q.reqs
	q.reqs = nil
	return reqs
}

func (q *RequestQueue) contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.index(id) >= 0
}
