package writer

// DefaultBatchSize is the number of records grouped into one upsert.
const DefaultBatchSize = 5000

// RecordSource yields player records one at a time, bufio.Scanner style.
// After Next returns false, Err distinguishes exhaustion from failure.
type RecordSource interface {
	Next() bool
	Record() PlayerRecord
	Err() error
}

// Batcher groups a RecordSource into fixed-size batches. The final batch
// may be shorter; an empty source produces no batches.
type Batcher struct {
	src   RecordSource
	size  int
	batch []PlayerRecord
}

// NewBatcher wraps src. A non-positive size falls back to DefaultBatchSize.
func NewBatcher(src RecordSource, size int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{src: src, size: size}
}

// Next fills the next batch. It returns false when the source is exhausted
// or has failed.
func (b *Batcher) Next() bool {
	b.batch = b.batch[:0]
	for len(b.batch) < b.size && b.src.Next() {
		b.batch = append(b.batch, b.src.Record())
	}
	if b.src.Err() != nil {
		// a broken document aborts the run; never emit a torn batch
		return false
	}
	return len(b.batch) > 0
}

// Batch returns the records gathered by the last call to Next. The slice is
// reused; callers must not retain it across calls.
func (b *Batcher) Batch() []PlayerRecord {
	return b.batch
}

// Err reports the source's error, if any.
func (b *Batcher) Err() error {
	return b.src.Err()
}
