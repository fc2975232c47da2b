package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deliverdesk/deliverdesk/config"
)

func TestReleaseIsSafeConcurrently(t *testing.T) {
	a := NewApplication(config.DefaultAppConfig)

	// Both the signal goroutine and main's defer call Release; racing
	// calls and repeated calls must all be safe.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Release()
		}()
	}
	wg.Wait()

	assert.NotPanics(t, func() { a.Release() })
}
