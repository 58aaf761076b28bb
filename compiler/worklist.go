package compiler

// worklist is a FIFO of ids in which every id is queued at most once.
type worklist struct {
	queue []string
	seen  map[string]struct{}
}

func newWorklist() *worklist {
	return &worklist{seen: make(map[string]struct{})}
}

// push queues ids that were never queued before.
func (w *worklist) push(ids ...string) {
	for _, id := range ids {
		if _, ok := w.seen[id]; ok {
			continue
		}
		w.seen[id] = struct{}{}
		w.queue = append(w.queue, id)
	}
}

func (w *worklist) pop() (string, bool) {
	if len(w.queue) == 0 {
		return "", false
	}
	id := w.queue[0]
	w.queue = w.queue[1:]
	return id, true
}

func (w *worklist) len() int {
	return len(w.queue)
}
