package crawler

// Frontier is the FIFO queue of URLs waiting to be fetched, together with
// the dedup keys already queued or visited. A key moves from unseen to
// queued to visited and never back.
type Frontier struct {
	queue   []string
	queued  map[string]struct{}
	visited map[string]struct{}
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Push enqueues rawURL unless its key was already queued or visited.
// It reports whether the URL was added.
func (f *Frontier) Push(rawURL string) bool {
	key := DedupKey(rawURL)
	if f.Seen(key) {
		return false
	}
	f.queued[key] = struct{}{}
	f.queue = append(f.queue, rawURL)
	return true
}

// Pop dequeues the oldest URL. ok is false when the queue is empty.
func (f *Frontier) Pop() (rawURL string, ok bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	rawURL = f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	return rawURL, true
}

// MarkVisited moves key from queued to visited.
func (f *Frontier) MarkVisited(key string) {
	delete(f.queued, key)
	f.visited[key] = struct{}{}
}

// Visited reports whether key has been visited.
func (f *Frontier) Visited(key string) bool {
	_, ok := f.visited[key]
	return ok
}

// Seen reports whether key is queued or visited.
func (f *Frontier) Seen(key string) bool {
	if _, ok := f.queued[key]; ok {
		return true
	}
	_, ok := f.visited[key]
	return ok
}

// Len returns the number of URLs waiting in the queue.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// Pending reports whether the queue holds a URL whose key has not been
// visited. Entries visited in the meantime, e.g. as a redirect target, are
// dropped from the front of the queue.
func (f *Frontier) Pending() bool {
	for len(f.queue) > 0 && f.Visited(DedupKey(f.queue[0])) {
		f.queue[0] = ""
		f.queue = f.queue[1:]
	}
	for _, rawURL := range f.queue {
		if !f.Visited(DedupKey(rawURL)) {
			return true
		}
	}
	return false
}

// VisitedCount returns the number of visited keys.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
