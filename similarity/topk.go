package similarity

// candidate is a scored row.
type candidate struct {
	row   int
	score float32
}

// worse reports whether a ranks below b: lower similarity, or equal
// similarity and a higher row.
func worse(a, b candidate) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.row > b.row
}

// topK is a bounded min-heap whose root is the worst kept candidate.
// Value-based storage, no container/heap.
type topK struct {
	k     int
	items []candidate
}

func newTopK(k int) *topK {
	return &topK{k: k, items: make([]candidate, 0, k)}
}

// push offers a candidate. When the heap is full the candidate replaces the
// root only if it ranks better.
func (h *topK) push(c candidate) {
	if h.k == 0 {
		return
	}
	if len(h.items) < h.k {
		h.items = append(h.items, c)
		h.siftUp(len(h.items) - 1)
		return
	}
	if worse(h.items[0], c) {
		h.items[0] = c
		h.siftDown(0)
	}
}

func (h *topK) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !worse(h.items[i], h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *topK) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && worse(h.items[left], h.items[smallest]) {
			smallest = left
		}
		if right < n && worse(h.items[right], h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			return
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
