package memory

import "sync"

// Pool is a typed wrapper over sync.Pool. The WAL uses it to reuse frame
// buffers between appends.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}

// NewBufferPool returns a pool of byte slices created with the given
// capacity. Callers reslice to zero length before use.
func NewBufferPool(capacity int) *Pool[[]byte] {
	return NewPool(func() *[]byte {
		b := make([]byte, 0, capacity)
		return &b
	})
}
