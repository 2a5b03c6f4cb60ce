package pkg

import "sync"

// HasLocker is anything guarded by a single RWMutex, such as a session or
// a pending change set.
type HasLocker interface{ GetLocker() *sync.RWMutex }

// LockWrap runs f while holding the write lock.
func LockWrap(i HasLocker, f func()) {
	i.GetLocker().Lock()
	defer i.GetLocker().Unlock()
	f()
}

// RLockWrap runs f while holding the read lock.
func RLockWrap(i HasLocker, f func()) {
	i.GetLocker().RLock()
	defer i.GetLocker().RUnlock()
	f()
}
