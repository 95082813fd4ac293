// Package multimutex provides a mutex set keyed by proposer address, so that
// operations against distinct accounts never serialize against each other.
package multimutex

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// cntMutex is a mutex with a count of the goroutines holding or waiting for
// it. When the count reaches zero the mutex is removed from the set.
type cntMutex struct {
	cnt int
	sync.Mutex
}

// AddressMutex tracks a set of mutexes, each keyed by address, ensuring only
// one goroutine at a time holds the mutex for a given address.
type AddressMutex struct {
	mutexes map[common.Address]*cntMutex
	mapMtx  sync.Mutex
}

// NewAddressMutex creates a new AddressMutex.
func NewAddressMutex() *AddressMutex {
	return &AddressMutex{
		mutexes: make(map[common.Address]*cntMutex),
	}
}

// Lock locks the mutex for the given address. If the mutex is already locked
// for this address, Lock blocks until it is available.
func (c *AddressMutex) Lock(addr common.Address) {
	c.mapMtx.Lock()
	mtx, ok := c.mutexes[addr]
	if ok {
		mtx.cnt++
	} else {
		mtx = &cntMutex{cnt: 1}
		c.mutexes[addr] = mtx
	}
	c.mapMtx.Unlock()

	mtx.Lock()
}

// Unlock unlocks the mutex for the given address. It is a run-time error if
// the mutex is not locked for the address on entry to Unlock.
func (c *AddressMutex) Unlock(addr common.Address) {
	c.mapMtx.Lock()
	mtx, ok := c.mutexes[addr]
	if !ok {
		c.mapMtx.Unlock()
		panic(fmt.Sprintf("double unlock for address %v", addr))
	}
	mtx.cnt--
	if mtx.cnt == 0 {
		delete(c.mutexes, addr)
	}
	c.mapMtx.Unlock()

	mtx.Unlock()
}
