// Package cmap provides a sharded concurrent map.
//
// Each shard has its own RWMutex, so unrelated keys rarely contend:
//
//	m := cmap.New[string, *entry]()
//	e := m.GetOrCreate(key, newEntry)
//	m.DeleteFunc(func(k string, e *entry) bool { return e.idle() })
package cmap
