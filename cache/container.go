package cache

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// defaultMailboxCapacity is the bounded capacity spec.md §4.1 recommends
// for both the change-delta and fresh-data mailboxes of a Communicator.
const defaultMailboxCapacity = 20

// Option configures a Container at construction time.
type Option func(*options)

type options struct {
	mailboxCapacity int
	metrics         *Metrics
}

// WithMailboxCapacity overrides the bounded capacity of every Communicator
// mailbox (spec.md §9: "whether the bounded mailbox capacity is load-
// bearing or arbitrary... recommended to make it configurable").
func WithMailboxCapacity(n int) Option {
	return func(o *options) { o.mailboxCapacity = n }
}

// WithMetrics attaches a Metrics collector, letting the Container report
// per-tick counters to Prometheus (see metrics.go). Optional: a Container
// built without this option behaves identically, just unobserved.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Container is the orchestrator: it owns one Storage, one submission
// intake, the InterestRegistry, the ResolverSet and the DispatchPool
// (spec.md §4.1). Communicators never reach into any of these directly.
type Container[K Key, V Value[K]] struct {
	id      uuid.UUID
	ctx     context.Context
	storage Storage[K, V]

	registry *interestRegistry[K, V]
	resolver *resolverSet[K, V]
	dispatch *dispatchPool[K, V]

	mailboxes       map[uuid.UUID]recipientMailbox[K, V]
	mailboxCapacity int

	changeSubs chan changeSubmission[K, V]
	querySubs  chan querySubmission[K, V]

	metrics *Metrics
}

// NewContainer creates a Container around an already-initialized Storage
// backend. ctx bounds every Storage operation the Container ever starts;
// cancelling it does not stop Step from running, but Storage
// implementations that respect context cancellation will fail in-flight
// operations.
func NewContainer[K Key, V Value[K]](ctx context.Context, storage Storage[K, V], opts ...Option) *Container[K, V] {
	o := options{mailboxCapacity: defaultMailboxCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.New()
	log.Infof("data-communicator: container %s starting", id)

	return &Container[K, V]{
		id:              id,
		ctx:             ctx,
		storage:         storage,
		registry:        newInterestRegistry[K, V](),
		resolver:        newResolverSet[K, V](),
		dispatch:        newDispatchPool[K, V](),
		mailboxes:       make(map[uuid.UUID]recipientMailbox[K, V]),
		mailboxCapacity: o.mailboxCapacity,
		changeSubs:      make(chan changeSubmission[K, V], 64),
		querySubs:       make(chan querySubmission[K, V], 64),
		metrics:         o.metrics,
	}
}

// Communicator mints a new client handle: a CommunicatorID, two bounded
// mailboxes, and an empty interest record (spec.md §4.1).
func (c *Container[K, V]) Communicator() *Communicator[K, V] {
	id := uuid.New()
	c.registry.register(id)

	commCtx, cancel := context.WithCancel(context.Background())
	changeMailbox := make(chan Mutation[K, V], c.mailboxCapacity)
	freshMailbox := make(chan FreshData[K, V], c.mailboxCapacity)

	c.mailboxes[id] = recipientMailbox[K, V]{
		changes: changeMailbox,
		fresh:   freshMailbox,
		done:    commCtx.Done(),
	}

	log.Infof("data-communicator: container %s created communicator %s", c.id, id)

	return newCommunicator(id, c.changeSubs, c.querySubs, changeMailbox, freshMailbox, cancel)
}

// Communicators mints n Communicators at once.
func (c *Container[K, V]) Communicators(n int) []*Communicator[K, V] {
	comms := make([]*Communicator[K, V], n)
	for i := range comms {
		comms[i] = c.Communicator()
	}
	return comms
}

// Step runs a single, non-reentrant cooperative tick (spec.md §4.1). Every
// internal channel read and future poll inside Step is non-blocking; Step
// itself never suspends.
func (c *Container[K, V]) Step() {
	// Phase 1: reap completed dispatch sends.
	c.dispatch.reap()
	for _, id := range c.dispatch.drainDeadRecipients() {
		c.removeRecipient(id)
	}

	// Phase 2: resolve completed Storage operations.
	resolvedChanges, resolvedQueries := c.resolver.poll()

	// Phase 3: fan out every raw mutation.
	for _, rc := range resolvedChanges {
		c.fanOut(*rc.mutation)
	}

	// Phase 4: deliver fresh data to its originator.
	for _, rq := range resolvedQueries {
		c.deliverFresh(rq.origin, rq.fresh)
	}

	// Phase 5: drain submissions.
	c.drainSubmissions()

	c.reportMetrics()
}

// fanOut computes Δ_U for every interested recipient, updates each
// recipient's known set, and hands the projection to the DispatchPool
// (spec.md §4.1 step 3, §4.2).
func (c *Container[K, V]) fanOut(m Mutation[K, V]) {
	targets := c.registry.project(m)
	log.Debugf("data-communicator: container %s mutation %s touches %d keys, fans to %d recipients",
		c.id, m.Kind, len(m.ValueKeys()), len(targets))

	for _, t := range targets {
		c.registry.updateKnown(t.recipient, t.mutation)
		mailbox, ok := c.mailboxes[t.recipient]
		if !ok {
			continue
		}
		c.dispatch.sendChange(t.recipient, mailbox, t.mutation)
	}
}

// deliverFresh replaces the originator's known set with the query's fresh
// keys and hands the fresh data to the DispatchPool (spec.md §4.1 step 4).
func (c *Container[K, V]) deliverFresh(origin uuid.UUID, fresh FreshData[K, V]) {
	c.registry.resetKnown(origin, fresh)
	mailbox, ok := c.mailboxes[origin]
	if !ok {
		return
	}
	log.Debugf("data-communicator: container %s delivering %d fresh rows to %s", c.id, len(fresh), origin)
	c.dispatch.sendFresh(origin, mailbox, fresh)
}

// drainSubmissions non-blockingly drains both submission streams (spec.md
// §4.1 step 5).
func (c *Container[K, V]) drainSubmissions() {
drainChanges:
	for {
		select {
		case sub := <-c.changeSubs:
			c.handleChangeSubmission(sub)
		default:
			break drainChanges
		}
	}

drainQueries:
	for {
		select {
		case sub := <-c.querySubs:
			c.handleQuerySubmission(sub)
		default:
			break drainQueries
		}
	}
}

func (c *Container[K, V]) handleChangeSubmission(sub changeSubmission[K, V]) {
	if sub.request.isEmpty() {
		log.Tracef("data-communicator: container %s short-circuiting empty %s", c.id, sub.request.Kind)
		sub.reply <- ChangeResult{}
		return
	}
	c.resolver.submitChange(c.ctx, c.storage, sub.request, sub.reply)
}

func (c *Container[K, V]) handleQuerySubmission(sub querySubmission[K, V]) {
	c.registry.setStanding(sub.origin, sub.query)
	c.resolver.submitQuery(c.ctx, c.storage, sub.origin, sub.query, sub.reply)
}

// removeRecipient drops a Communicator's registry entry and mailboxes
// once it is known gone, that is once a dispatch send to it found its Done
// channel closed (after Communicator.Close).
func (c *Container[K, V]) removeRecipient(id uuid.UUID) {
	c.registry.remove(id)
	delete(c.mailboxes, id)
	log.Infof("data-communicator: container %s removed communicator %s", c.id, id)
}

func (c *Container[K, V]) reportMetrics() {
	if c.metrics == nil {
		return
	}
	c.metrics.ticks.Inc()
	c.metrics.communicators.Set(float64(c.registry.size()))
	c.metrics.resolverDepth.Set(float64(c.resolver.depth()))
	c.metrics.dispatchDepth.Set(float64(c.dispatch.depth()))
}
