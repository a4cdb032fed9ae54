package pipeline

import "github.com/Norgate-AV/widgetpack/internal/discover"

// queue holds build tasks in discovery order
type queue struct {
	tasks chan discover.Entry
}

func newQueue(entries []discover.Entry) *queue {
	tasks := make(chan discover.Entry, len(entries))
	for _, e := range entries {
		tasks <- e
	}

	close(tasks)

	return &queue{tasks: tasks}
}

// drain hands each task to fn on a single worker. The worker stops at the
// first error; tasks still queued are dropped.
func (q *queue) drain(fn func(discover.Entry) error) error {
	done := make(chan error, 1)

	go func() {
		for e := range q.tasks {
			if err := fn(e); err != nil {
				done <- err
				return
			}
		}

		done <- nil
	}()

	return <-done
}
