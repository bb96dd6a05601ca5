package async

import "sync"

// Pool hands out reusable objects that are expensive to construct, such
// as model loaders. It grows on demand and never shrinks.
type Pool[T any] struct {
	mu        sync.Mutex
	factory   func() T
	available []T
	created   int
}

// NewPool creates a pool that builds new objects with factory.
func NewPool[T any](factory func() T) *Pool[T] {
	return &Pool[T]{factory: factory}
}

// Acquire lends an object to fn and returns it to the pool afterwards,
// even if fn panics.
func (p *Pool[T]) Acquire(fn func(T)) {
	item := p.take()
	defer p.put(item)
	fn(item)
}

// Created returns the number of objects the factory has built.
func (p *Pool[T]) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

func (p *Pool[T]) take() T {
	p.mu.Lock()
	if n := len(p.available); n > 0 {
		item := p.available[n-1]
		p.available = p.available[:n-1]
		p.mu.Unlock()
		return item
	}
	p.created++
	p.mu.Unlock()
	return p.factory()
}

func (p *Pool[T]) put(item T) {
	p.mu.Lock()
	p.available = append(p.available, item)
	p.mu.Unlock()
}
