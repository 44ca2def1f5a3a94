package cluster

// candidate is a mergeable pair of adjacent segments identified by their start
// indices. It is valid only while both segments still carry the versions
// recorded here; stale entries stay in the heap and are skipped when popped.
type candidate struct {
	left, right       int
	leftVer, rightVer uint32
	cost              float64
	protected         bool
}

// before orders candidates: unprotected first, then by cost, then by the lower
// starting index so that the merge order never depends on heap internals
func (c candidate) before(o candidate) bool {
	if c.protected != o.protected {
		return !c.protected
	}
	if c.cost != o.cost {
		return c.cost < o.cost
	}
	return c.left < o.left
}

// candidateQueue is a min-heap of candidates for container/heap
type candidateQueue []candidate

func (q candidateQueue) Len() int           { return len(q) }
func (q candidateQueue) Less(i, j int) bool { return q[i].before(q[j]) }
func (q candidateQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *candidateQueue) Push(x interface{}) { *q = append(*q, x.(candidate)) }

func (q *candidateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
