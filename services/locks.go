package services

import "sync"

// keyMutex serializes work per key: bookings per station, order
// numbering per day, session resolution per table. Locks for different
// keys never contend.
type keyMutex struct {
	locks sync.Map
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyMutex) Lock(key interface{}) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
