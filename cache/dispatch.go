package cache

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"k8s.io/client-go/util/workqueue"
)

// recipientMailbox is the pair of bounded channels a Communicator exposes
// to the Container at creation time (spec.md §4.1's "two mailbox streams
// Communicator-ward"), plus the Done channel the Container selects on to
// notice the Communicator has gone away — the same shape as the teacher's
// updateListener.Done() in controller/destination/listener.go.
type recipientMailbox[K Key, V Value[K]] struct {
	changes chan Mutation[K, V]
	fresh   chan FreshData[K, V]
	done    <-chan struct{}
}

// dispatchPool fans out (recipient, payload) tuples onto their mailboxes
// as detached goroutines, tracked so their completion can be reaped every
// tick without blocking the Container on a slow consumer (spec.md §4.5).
//
// Failed sends (recipient mailbox closed/gone) are pushed onto a
// workqueue.RateLimitingInterface rather than removed from the registry
// immediately: several sends to the same dead recipient can fail within a
// single tick, and the workqueue's dedup means that recipient is only
// processed for removal once. Entries are added with plain Add and
// forgotten when drained, so the queue's rate limiter never delays them.
type dispatchPool[K Key, V Value[K]] struct {
	pending       []chan struct{}
	deadRecipient workqueue.RateLimitingInterface
}

func newDispatchPool[K Key, V Value[K]]() *dispatchPool[K, V] {
	return &dispatchPool[K, V]{
		deadRecipient: workqueue.NewRateLimitingQueue(workqueue.DefaultControllerRateLimiter()),
	}
}

// sendChange spawns a detached send of a mutation delta into a
// recipient's change mailbox.
func (p *dispatchPool[K, V]) sendChange(id uuid.UUID, mailbox recipientMailbox[K, V], delta Mutation[K, V]) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		// done is checked first: a select with both cases ready picks at
		// random, and nothing may be buffered for a closed Communicator.
		select {
		case <-mailbox.done:
		default:
			select {
			case mailbox.changes <- delta:
				return
			case <-mailbox.done:
			}
		}
		log.Warnf("data-communicator: dropping change delta for communicator %s, mailbox gone", id)
		p.deadRecipient.Add(id)
	}()
	p.pending = append(p.pending, done)
}

// sendFresh spawns a detached send of a query reply into a recipient's
// fresh-data mailbox.
func (p *dispatchPool[K, V]) sendFresh(id uuid.UUID, mailbox recipientMailbox[K, V], fresh FreshData[K, V]) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-mailbox.done:
		default:
			select {
			case mailbox.fresh <- fresh:
				return
			case <-mailbox.done:
			}
		}
		log.Warnf("data-communicator: dropping fresh data for communicator %s, mailbox gone", id)
		p.deadRecipient.Add(id)
	}()
	p.pending = append(p.pending, done)
}

// reap drops every completed send future (spec.md §4.1 step 1). It never
// blocks: a still-running send simply stays in the pool until a later
// tick.
func (p *dispatchPool[K, V]) reap() {
	remaining := p.pending[:0]
	for _, done := range p.pending {
		select {
		case <-done:
		default:
			remaining = append(remaining, done)
		}
	}
	p.pending = remaining
}

// drainDeadRecipients returns every recipient id that had a failed send
// since the last call, for the Container to remove from the
// InterestRegistry (spec.md §7: DispatchSendFailed -> "remove recipient
// next tick").
func (p *dispatchPool[K, V]) drainDeadRecipients() []uuid.UUID {
	var dead []uuid.UUID
	for p.deadRecipient.Len() > 0 {
		item, _ := p.deadRecipient.Get()
		id := item.(uuid.UUID)
		p.deadRecipient.Done(item)
		p.deadRecipient.Forget(item)
		dead = append(dead, id)
	}
	return dead
}

// depth reports the number of in-flight sends, used only for metrics.
func (p *dispatchPool[K, V]) depth() int { return len(p.pending) }
