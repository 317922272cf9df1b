package crawler

// Frontier owns the pending URL queue and the visited set. It is not
// safe for concurrent use: only the engine goroutine may touch it, which
// is what keeps the visited-set mutation race-free.
type Frontier struct {
	queue   []string
	pending map[string]struct{}
	visited map[string]struct{}
}

// NewFrontier builds an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		pending: make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Offer enqueues rawURL unless it was already visited or is already
// pending. Returns true when the URL was accepted.
func (f *Frontier) Offer(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	if _, ok := f.visited[rawURL]; ok {
		return false
	}
	if _, ok := f.pending[rawURL]; ok {
		return false
	}
	f.pending[rawURL] = struct{}{}
	f.queue = append(f.queue, rawURL)
	return true
}

// TakeBatch pops up to maxSize unvisited URLs from the front of the
// queue. Each selected URL is marked visited at selection time, before
// its fetch runs, so no later batch can dispatch it again. URLs that
// turn out to be visited already are skipped without consuming batch
// capacity.
func (f *Frontier) TakeBatch(maxSize int) []string {
	if maxSize <= 0 {
		return nil
	}
	var batch []string
	for len(f.queue) > 0 && len(batch) < maxSize {
		rawURL := f.queue[0]
		f.queue = f.queue[1:]
		delete(f.pending, rawURL)
		if _, ok := f.visited[rawURL]; ok {
			continue
		}
		f.visited[rawURL] = struct{}{}
		batch = append(batch, rawURL)
	}
	return batch
}

// Len returns the number of pending URLs.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// VisitedCount returns how many distinct URLs have been dispatched.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
