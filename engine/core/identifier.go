package core

import "fmt"

// HandlePool hands out small integer names for native objects. Released
// names are recycled before the pool grows. Name 0 is never handed out so it
// can stand for "no object".
type HandlePool struct {
	owners []interface{}
}

func NewHandlePool(capacity int) *HandlePool {
	if capacity < 1 {
		capacity = 1
	}
	return &HandlePool{
		owners: make([]interface{}, 1, capacity+1),
	}
}

// Acquire returns the first free name and records owner for it.
func (hp *HandlePool) Acquire(owner interface{}) uint32 {
	length := uint32(len(hp.owners))
	for i := uint32(1); i < length; i++ {
		// Existing free spot. Take it.
		if hp.owners[i] == nil {
			hp.owners[i] = owner
			return i
		}
	}

	// No free slots, push a new one.
	hp.owners = append(hp.owners, owner)
	return uint32(len(hp.owners)) - 1
}

// Release frees the name so it can be handed out again.
func (hp *HandlePool) Release(id uint32) error {
	length := uint32(len(hp.owners))
	if id == 0 || id >= length {
		return fmt.Errorf("handle '%d' out of range (max=%d). Nothing was done", id, length-1)
	}
	if hp.owners[id] == nil {
		return fmt.Errorf("handle '%d' is not in use. Nothing was done", id)
	}
	hp.owners[id] = nil
	return nil
}

// Owner returns the value registered for id, or nil.
func (hp *HandlePool) Owner(id uint32) interface{} {
	if id == 0 || id >= uint32(len(hp.owners)) {
		return nil
	}
	return hp.owners[id]
}

// Live counts the names currently in use.
func (hp *HandlePool) Live() int {
	n := 0
	for _, o := range hp.owners[1:] {
		if o != nil {
			n++
		}
	}
	return n
}
