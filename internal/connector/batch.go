package connector

import (
	"context"
	"fmt"
)

// BatchEmitter buffers documents in arrival order and hands them to the sink
// in fixed-size batches. Emission is synchronous: Add does not return until a
// full batch has been consumed by the sink.
type BatchEmitter struct {
	sink      Sink
	batchSize int
	buf       []Document
	emitted   int
}

// NewBatchEmitter builds an emitter flushing to sink every size documents.
func NewBatchEmitter(sink Sink, size int) (*BatchEmitter, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be > 0, got %d", size)
	}
	return &BatchEmitter{
		sink:      sink,
		batchSize: size,
		buf:       make([]Document, 0, size),
	}, nil
}

// Add appends doc to the current batch and emits the batch once it is full.
func (e *BatchEmitter) Add(ctx context.Context, doc Document) error {
	e.buf = append(e.buf, doc)
	if len(e.buf) < e.batchSize {
		return nil
	}
	return e.emit(ctx)
}

// Flush emits any buffered remainder. Safe to call with an empty buffer.
func (e *BatchEmitter) Flush(ctx context.Context) error {
	if len(e.buf) == 0 {
		return nil
	}
	return e.emit(ctx)
}

// Emitted reports how many batches have been handed to the sink so far.
func (e *BatchEmitter) Emitted() int {
	return e.emitted
}

func (e *BatchEmitter) emit(ctx context.Context) error {
	batch := make([]Document, len(e.buf))
	copy(batch, e.buf)
	if err := e.sink.Emit(ctx, batch); err != nil {
		return fmt.Errorf("emit batch of %d: %w", len(batch), err)
	}
	e.emitted++
	e.buf = e.buf[:0]
	return nil
}
