package usecase_test

import (
	"context"
	"sync"

	"coursepay/internal/domain/model"
	"coursepay/internal/usecase"
)

type memCache struct {
	mu     sync.Mutex
	values map[string]model.OrderStatus
	gets   int
}

func newMemCache() *memCache {
	return &memCache{values: map[string]model.OrderStatus{}}
}

func (c *memCache) GetTerminal(ctx context.Context, orderNumber string) (model.OrderStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	s, ok := c.values[orderNumber]
	return s, ok, nil
}

func (c *memCache) PutTerminal(ctx context.Context, orderNumber string, status model.OrderStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[orderNumber] = status
	return nil
}

func (c *memCache) get(orderNumber string) (model.OrderStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.values[orderNumber]
	return s, ok
}

func (c *memCache) forget(orderNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, orderNumber)
}

type memPublisher struct {
	mu     sync.Mutex
	events []usecase.OrderOutcomeEvent
}

func (p *memPublisher) PublishOrderOutcome(ctx context.Context, ev usecase.OrderOutcomeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *memPublisher) all() []usecase.OrderOutcomeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]usecase.OrderOutcomeEvent(nil), p.events...)
}
