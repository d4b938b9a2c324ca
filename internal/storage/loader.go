// This file bridges the canonical dataset and a storage backend: it drains
// positional rows from a channel and hands them to a CopyFn in fixed-size
// batches.
//
// Backends supply CopyFn with their fastest bulk primitive (Postgres COPY,
// SQLite transactional prepared INSERT); the loop itself stays backend-blind
// so the same bridge serves every backend and every test fake.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

var logf = log.Printf

// CopyFn is a backend's bulk-insert primitive. It inserts rows aligned to
// 'columns' order, returns the number of rows inserted, and honors ctx.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from 'in' and calls copyFn once per full batch of
// batchSize rows, plus once for the remainder when the channel closes. It
// returns the total row count reported by copyFn and the first error; on
// cancellation it returns (total, ctx.Err()). Each successful flush logs a
// progress line with running totals and instantaneous rows/sec.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("storage: batch size %d, want at least 1", batchSize)
	}
	if copyFn == nil {
		return 0, fmt.Errorf("storage: nil copy function")
	}

	var (
		total   int64
		batches int64
		start   = time.Now()
		last    = start
		pending = make([][]any, 0, batchSize)
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, pending)
		total += n
		pending = pending[:0] // keep capacity
		if err != nil {
			logf("storage: copy failed inserted=%d total=%d err=%v", n, total, err)
			return err
		}
		batches++
		now := time.Now()
		gap := now.Sub(last)
		var rps float64
		if gap > 0 {
			rps = float64(n) / gap.Seconds()
		}
		logf("storage: batch #%d rows=%d total=%d rps=%.0f elapsed=%s",
			batches, n, total, rps, now.Sub(start).Truncate(time.Millisecond))
		last = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				logf("storage: input drained batches=%d rows=%d", batches, total)
				return total, nil
			}
			pending = append(pending, row)
			if len(pending) == batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
