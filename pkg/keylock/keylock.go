package keylock

import "sync"

// KeyLock 按 key 串行化临界区：同一份答案的评分提交必须逐个执行，
// 不同答案互不阻塞。条目带引用计数，解锁且无等待者时回收，
// 避免长期运行后 map 无限增长。
type KeyLock struct {
	mu    sync.Mutex
	locks map[uint]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[uint]*entry)}
}

// Lock 获取 key 对应的锁，阻塞直到同 key 的前一个持有者释放
func (kl *KeyLock) Lock(key uint) {
	kl.mu.Lock()
	e, ok := kl.locks[key]
	if !ok {
		e = &entry{}
		kl.locks[key] = e
	}
	e.refs++
	kl.mu.Unlock()

	e.mu.Lock()
}

// Unlock 释放 key 对应的锁
func (kl *KeyLock) Unlock(key uint) {
	kl.mu.Lock()
	e, ok := kl.locks[key]
	if !ok {
		kl.mu.Unlock()
		panic("keylock: unlock of unlocked key")
	}
	e.refs--
	if e.refs == 0 {
		delete(kl.locks, key)
	}
	kl.mu.Unlock()

	e.mu.Unlock()
}
