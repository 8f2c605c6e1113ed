// Package frontier holds the to-visit stack and visited set for one crawl run.
package frontier

// Frontier is the crawl queue. To-visit entries are popped LIFO so expansion
// is depth-first. Push performs no dedup check; the same URL may sit in the
// stack more than once and is discarded at pop time by the engine's
// IsVisited check. The visited set, not stack membership, is authoritative
// for "already processed", which keeps Push O(1) at the cost of some
// transient stack growth on link-heavy pages.
//
// Not safe for concurrent use; the engine is the single owner.
type Frontier struct {
	toVisit []string
	visited map[string]struct{}
}

// New builds a frontier seeded with the given URLs, in order.
func New(seeds ...string) *Frontier {
	f := &Frontier{
		toVisit: make([]string, 0, len(seeds)),
		visited: make(map[string]struct{}),
	}
	f.toVisit = append(f.toVisit, seeds...)
	return f
}

// Push appends url to the to-visit stack unconditionally.
func (f *Frontier) Push(url string) {
	f.toVisit = append(f.toVisit, url)
}

// Pop removes and returns the most recently pushed URL. The second return is
// false when the frontier is empty.
func (f *Frontier) Pop() (string, bool) {
	if len(f.toVisit) == 0 {
		return "", false
	}
	last := len(f.toVisit) - 1
	url := f.toVisit[last]
	f.toVisit = f.toVisit[:last]
	return url, true
}

// MarkVisited records url as processed. The visited set only grows.
func (f *Frontier) MarkVisited(url string) {
	f.visited[url] = struct{}{}
}

// IsVisited reports whether url has already been popped and processed.
func (f *Frontier) IsVisited(url string) bool {
	_, ok := f.visited[url]
	return ok
}

// Len returns the number of entries waiting in the stack, duplicates included.
func (f *Frontier) Len() int {
	return len(f.toVisit)
}

// VisitedCount returns the size of the visited set.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
