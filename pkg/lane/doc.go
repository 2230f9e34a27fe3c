// Package lane provides a single-concurrency FIFO execution lane.
//
// Work submitted to a Lane runs on one dedicated goroutine, strictly in
// submission order, never overlapping. Components use a lane to serialize
// read-modify-write cycles over shared state (the persisted event log) and to
// keep gated operations in the order the host issued them.
//
//	l := lane.New(lane.WithName("eventlog"))
//	defer l.Close()
//
//	err := l.Do(ctx, func(ctx context.Context) error {
//	    return persist(ctx)
//	})
//
//	n, err := lane.Run(ctx, l, func(ctx context.Context) (int, error) {
//	    return count(ctx)
//	})
//
// A task must not submit work to its own lane and wait for it: the lane
// would deadlock. A caller whose context ends while waiting gets ctx.Err();
// a task whose context ended before it was picked up is skipped.
package lane
