package task

// IDAllocator hands out task ids in increasing order. The zero value starts
// at 1.
type IDAllocator struct {
	next int64
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

func (a *IDAllocator) Next() int64 {
	if a.next < 1 {
		a.next = 1
	}
	id := a.next
	a.next++
	return id
}

// Observe records an id that is already in use so that Next never hands it
// out again.
func (a *IDAllocator) Observe(id int64) {
	if id+1 > a.next {
		a.next = id + 1
	}
}

func (a *IDAllocator) Peek() int64 {
	if a.next < 1 {
		return 1
	}
	return a.next
}
