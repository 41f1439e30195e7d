package utils

import "sync"

// RingBuffer is a fixed size, concurrency safe buffer. Once full, every Push
// overwrites the oldest element. Elements are kept oldest first.
//
//	rb := NewRingBuffer[int](3)
//	rb.Push(1)
//	rb.Push(2)
//	rb.Push(3)
//	rb.Push(4)                // 1 is evicted
//	fmt.Println(rb.ToSlice()) // [2 3 4]
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	data  []T
	size  int
	count int
	head  int // oldest element
	tail  int // next write position
}

// NewRingBuffer creates a buffer holding up to size elements. It panics when size is not positive.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size <= 0 {
		panic("ring buffer size must be positive")
	}
	return &RingBuffer[T]{
		data: make([]T, size),
		size: size,
	}
}

// Push appends item, evicting the oldest element when the buffer is full.
func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.tail] = item
	rb.tail = (rb.tail + 1) % rb.size

	if rb.count < rb.size {
		rb.count++
	} else {
		rb.head = (rb.head + 1) % rb.size
	}
}

// Last returns the newest element.
func (rb *RingBuffer[T]) Last() (T, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.count == 0 {
		var zero T
		return zero, false
	}
	return rb.at(rb.count - 1), true
}

// ToSlice returns a copy of the elements, oldest first.
func (rb *RingBuffer[T]) ToSlice() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	result := make([]T, rb.count)
	for i := range rb.count {
		result[i] = rb.at(i)
	}
	return result
}

// at returns the i-th element, 0 being the oldest. The caller holds the lock.
func (rb *RingBuffer[T]) at(i int) T {
	return rb.data[(rb.head+i)%rb.size]
}
