package intake

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserLocksSerializePerAddress(t *testing.T) {
	locks := newUserLocks()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("919876543210")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestUserLocksIndependentAddresses(t *testing.T) {
	locks := newUserLocks()

	unlockA := locks.Lock("111")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("222")
		unlockB()
		close(done)
	}()
	<-done // a held lock on one address must not block another
	unlockA()
}
