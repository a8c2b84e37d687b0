package cache

// node is an element of the intrusive recency list.
// Each node belongs to exactly one entry so moves and removals are O(1).
type node[K comparable, V any] struct {
	entry *entry[K, V]
	prev  *node[K, V]
	next  *node[K, V]
}

// recencyList is a doubly-linked list ordering entries from most recently
// used (head) to least recently used (tail). Not safe for concurrent use;
// the owning Cache serializes access.
type recencyList[K comparable, V any] struct {
	head *node[K, V]
	tail *node[K, V]
	len  int
}

// PushFront inserts a node for e at the head (most recently used).
func (l *recencyList[K, V]) PushFront(e *entry[K, V]) *node[K, V] {
	n := &node[K, V]{entry: e}
	if l.head == nil {
		l.head = n
		l.tail = n
	} else {
		n.next = l.head
		l.head.prev = n
		l.head = n
	}
	l.len++
	return n
}

// MoveToFront promotes an existing node to the head.
func (l *recencyList[K, V]) MoveToFront(n *node[K, V]) {
	if n == nil || n == l.head {
		return
	}
	l.unlink(n)
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.len++
}

// Remove unlinks a node from the list.
func (l *recencyList[K, V]) Remove(n *node[K, V]) {
	if n == nil {
		return
	}
	l.unlink(n)
}

// Oldest returns the least recently used entry without removing it,
// or nil if the list is empty.
func (l *recencyList[K, V]) Oldest() *entry[K, V] {
	if l.tail == nil {
		return nil
	}
	return l.tail.entry
}

// Clear drops all nodes.
func (l *recencyList[K, V]) Clear() {
	l.head = nil
	l.tail = nil
	l.len = 0
}

func (l *recencyList[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
	l.len--
}
