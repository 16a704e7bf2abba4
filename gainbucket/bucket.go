package gainbucket

import (
	"container/list"
	"fmt"
	"sort"
)

// Bucket is the standard gain bucket: a chain per distinct gain value,
// a descending index of occupied gains, and a per-node side index
// locating each entry's chain element. Within a chain the newest entry
// comes first: Add and Touch place an entry at the front and Top takes
// the front, so equal-gain entries are not served first-in-first-out.
//
// Complexity: Top and Touch are O(1). Add, Pop, and RemoveByID are O(1)
// in chain operations; when a gain value's chain is created or emptied
// they also update the occupied-gain index with a binary search and an
// O(G) slice shift, where G is the number of distinct live gain values.
// Peek(k) is O(k).
type Bucket struct {
	// chains maps a gain value to its chain of *Entry, newest first.
	chains map[int]*list.List

	// occupied holds the gains of non-empty chains in descending order.
	occupied []int

	// tracking locates each node's live element and its current gain.
	tracking map[int]bucketPos

	size int
}

// bucketPos is the side-index record for one node: the chain element
// holding its entry and the gain keying that chain. It must be kept in
// step with every chain mutation.
type bucketPos struct {
	elem *list.Element
	gain int
}

// NewBucket returns an empty bucket.
func NewBucket() *Bucket {
	return &Bucket{
		chains:   make(map[int]*list.List),
		tracking: make(map[int]bucketPos),
	}
}

// Len returns the number of live entries.
func (b *Bucket) Len() int { return b.size }

// Empty reports whether the bucket holds no entries.
func (b *Bucket) Empty() bool { return b.size == 0 }

// Has reports whether the node has a live entry in this bucket.
func (b *Bucket) Has(nodeID int) bool {
	_, ok := b.tracking[nodeID]
	return ok
}

// Add inserts entry at the front of its gain chain.
func (b *Bucket) Add(entry Entry) {
	chain, ok := b.chains[entry.Gain]
	if !ok {
		chain = list.New()
		b.chains[entry.Gain] = chain
		b.insertOccupied(entry.Gain)
	}
	e := chain.PushFront(&entry)
	b.tracking[entry.ID] = bucketPos{elem: e, gain: entry.Gain}
	b.size++
}

// Top returns the highest-gain entry without removing it. Within a gain
// value the most recently added or touched entry is first.
func (b *Bucket) Top() (*Entry, error) {
	if b.size == 0 {
		return nil, ErrEmptyBucket
	}
	chain := b.chains[b.occupied[0]]
	return chain.Front().Value.(*Entry), nil
}

// Peek returns the entry offset places from the top in descending gain
// order, without removing it. Peek(0) is Top. Returns nil when offset
// is past the last entry.
// Complexity: O(offset).
func (b *Bucket) Peek(offset int) *Entry {
	if offset >= b.size {
		return nil
	}
	seen := 0
	for _, gain := range b.occupied {
		chain := b.chains[gain]
		if offset >= seen+chain.Len() {
			seen += chain.Len()
			continue
		}
		e := chain.Front()
		for seen < offset {
			e = e.Next()
			seen++
		}
		return e.Value.(*Entry)
	}
	return nil
}

// Pop removes and returns the highest-gain entry.
func (b *Bucket) Pop() (Entry, error) {
	top, err := b.Top()
	if err != nil {
		return Entry{}, err
	}
	return b.RemoveByID(top.ID)
}

// RemoveByID removes the node's entry wherever it sits and returns it.
func (b *Bucket) RemoveByID(nodeID int) (Entry, error) {
	pos, ok := b.tracking[nodeID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: node %d", ErrNodeNotInBucket, nodeID)
	}
	chain := b.chains[pos.gain]
	entry := chain.Remove(pos.elem).(*Entry)
	delete(b.tracking, nodeID)
	b.size--
	if chain.Len() == 0 {
		delete(b.chains, pos.gain)
		b.removeOccupied(pos.gain)
	}
	return *entry, nil
}

// Touch moves the node's entry to the front of its own gain chain,
// leaving its gain unchanged. Used to restore selection order after a
// candidate was inspected but not chosen.
func (b *Bucket) Touch(nodeID int) {
	pos, ok := b.tracking[nodeID]
	if !ok {
		return
	}
	chain := b.chains[pos.gain]
	chain.MoveToFront(pos.elem)
}

// UpdateGains adds delta to the gain of every node in ids. Each entry is
// removed, rewritten, and re-inserted so it lands at the front of its
// new chain. IDs may repeat; each occurrence is applied.
func (b *Bucket) UpdateGains(delta int, ids []int) {
	for _, id := range ids {
		entry, err := b.RemoveByID(id)
		if err != nil {
			continue
		}
		entry.Gain += delta
		b.Add(entry)
	}
}

// EntryByID returns a pointer to the node's live entry for in-place
// adjustment, or nil.
func (b *Bucket) EntryByID(nodeID int) *Entry {
	pos, ok := b.tracking[nodeID]
	if !ok {
		return nil
	}
	return pos.elem.Value.(*Entry)
}

// insertOccupied records gain in the descending occupied index.
func (b *Bucket) insertOccupied(gain int) {
	i := sort.Search(len(b.occupied), func(i int) bool { return b.occupied[i] <= gain })
	b.occupied = append(b.occupied, 0)
	copy(b.occupied[i+1:], b.occupied[i:])
	b.occupied[i] = gain
}

// removeOccupied drops gain from the descending occupied index.
func (b *Bucket) removeOccupied(gain int) {
	i := sort.Search(len(b.occupied), func(i int) bool { return b.occupied[i] <= gain })
	if i < len(b.occupied) && b.occupied[i] == gain {
		b.occupied = append(b.occupied[:i], b.occupied[i+1:]...)
	}
}
