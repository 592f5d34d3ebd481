package publisher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lindembergz/123Vendas-sub000/internal/metrics"
	"github.com/lindembergz/123Vendas-sub000/internal/repository"
)

// OutboxStore is the slice of the repository the dispatcher needs.
type OutboxStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id int64) error
	MarkEventFailed(ctx context.Context, id int64, reason string) error
}

type Config struct {
	PollTick  time.Duration
	Cooldown  time.Duration
	BatchSize int
}

func (c *Config) applyDefaults() {
	if c.PollTick <= 0 {
		c.PollTick = time.Second
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 10 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
}

// Dispatcher republishes persisted outbox events to the downstream notifier.
// It runs decoupled from request handling and may run alongside other
// instances of itself.
type Dispatcher struct {
	store    OutboxStore
	registry *Registry
	notifier Notifier
	metrics  *metrics.DispatcherMetrics // may be nil

	pollTick  time.Duration
	cooldown  time.Duration
	batchSize int
}

func NewDispatcher(store OutboxStore, registry *Registry, notifier Notifier, m *metrics.DispatcherMetrics, cfg Config) *Dispatcher {
	cfg.applyDefaults()
	return &Dispatcher{
		store:     store,
		registry:  registry,
		notifier:  notifier,
		metrics:   m,
		pollTick:  cfg.PollTick,
		cooldown:  cfg.Cooldown,
		batchSize: cfg.BatchSize,
	}
}

// Run polls until ctx is cancelled. A failed cycle is logged and followed by
// the longer cooldown delay; the loop itself never crashes the host process.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.pollTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := d.cycle(ctx); err != nil {
				log.Printf("dispatcher cycle failed: %v", err)
				if !d.coolOff(ctx) {
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatcher panic: %v", r)
		}
	}()

	events, err := d.store.GetUnprocessedEvents(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("fetch pending events: %w", err)
	}

	for _, record := range events {
		d.process(ctx, record)
	}
	return nil
}

// process handles one record; its failures are contained so one bad event
// never blocks the rest of the batch.
func (d *Dispatcher) process(ctx context.Context, record *repository.OutboxEvent) {
	event, err := d.registry.Decode(record.EventType, record.Payload)
	if err != nil {
		d.fail(ctx, record, err)
		return
	}

	if err := d.notifier.Publish(ctx, event); err != nil {
		d.fail(ctx, record, err)
		return
	}

	if err := d.store.MarkEventProcessed(ctx, record.ID); err != nil {
		log.Printf("failed to mark event %d as processed: %v", record.ID, err)
		return
	}
	if d.metrics != nil {
		d.metrics.Processed.Inc()
	}
}

func (d *Dispatcher) fail(ctx context.Context, record *repository.OutboxEvent, cause error) {
	log.Printf("failed to dispatch event id = %d type = %s: %v", record.ID, record.EventType, cause)

	if err := d.store.MarkEventFailed(ctx, record.ID, cause.Error()); err != nil {
		log.Printf("failed to mark event %d as failed: %v", record.ID, err)
		return
	}
	if d.metrics != nil {
		d.metrics.Failed.WithLabelValues(record.EventType).Inc()
		if record.RetryCount+1 >= repository.MaxEventRetries {
			d.metrics.Poisoned.Inc()
		}
	}
}

// coolOff sleeps for the cooldown, returning false when cancelled.
func (d *Dispatcher) coolOff(ctx context.Context) bool {
	timer := time.NewTimer(d.cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
