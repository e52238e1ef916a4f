package monitoring

// FeatureVector holds one scored request's input features by name.
type FeatureVector map[string]float64

// Clone returns an independent copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	c := make(FeatureVector, len(v))
	for k, val := range v {
		c[k] = val
	}
	return c
}

// Buffer is a fixed-capacity FIFO window over the most recent feature
// vectors. Once full, each append evicts the oldest entry. The zero value
// is not usable; construct with NewBuffer. Buffer itself is not safe for
// concurrent use; the Monitor serializes access to it.
type Buffer struct {
	entries []FeatureVector
	head    int // index of the oldest entry
	size    int
}

// NewBuffer creates a buffer holding at most capacity vectors.
// It panics if capacity is not positive; the config layer validates
// capacity before construction.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		panic("monitoring: buffer capacity must be positive")
	}
	return &Buffer{entries: make([]FeatureVector, capacity)}
}

// Append inserts a vector at the tail, evicting the oldest entry when the
// buffer is at capacity. No validation is performed at this layer.
func (b *Buffer) Append(v FeatureVector) {
	tail := (b.head + b.size) % len(b.entries)
	b.entries[tail] = v
	if b.size == len(b.entries) {
		b.head = (b.head + 1) % len(b.entries)
	} else {
		b.size++
	}
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	for i := range b.entries {
		b.entries[i] = nil
	}
	b.head = 0
	b.size = 0
}

// Len returns the number of vectors currently held.
func (b *Buffer) Len() int {
	return b.size
}

// Cap returns the buffer's fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.entries)
}

// Snapshot returns the current contents in insertion order, oldest first.
// The returned slice is a copy; later appends are not visible through it.
func (b *Buffer) Snapshot() []FeatureVector {
	out := make([]FeatureVector, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}
	return out
}
