package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		guard   sync.Mutex
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("emp-1:2025-03")
			defer unlock()

			guard.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			guard.Unlock()

			guard.Lock()
			inside--
			guard.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, kl.Len())
}

func TestKeyLock_DifferentKeysDoNotBlock(t *testing.T) {
	kl := New()

	unlockA := kl.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := kl.Lock("b")
		unlockB()
		close(done)
	}()
	<-done

	assert.Equal(t, 1, kl.Len())
	unlockA()
	assert.Equal(t, 0, kl.Len())
}
