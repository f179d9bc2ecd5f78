package utils_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voxguard/voxguard/pkg/utils"
)

func TestKeyMutex(t *testing.T) {
	t.Parallel()

	t.Run("serializes same key", func(t *testing.T) {
		t.Parallel()

		m := utils.NewKeyMutex[string]()
		counter := 0

		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				m.Lock("a")
				counter++
				m.Unlock("a")
			}()
		}

		wg.Wait()
		assert.Equal(t, 100, counter)
	})

	t.Run("different keys do not block each other", func(t *testing.T) {
		t.Parallel()

		m := utils.NewKeyMutex[string]()
		m.Lock("a")

		done := make(chan struct{})

		go func() {
			m.Lock("b")
			m.Unlock("b")
			close(done)
		}()

		<-done // Would deadlock if "b" waited on "a"

		m.Unlock("a")
	})

	t.Run("relock after unlock", func(t *testing.T) {
		t.Parallel()

		m := utils.NewKeyMutex[int]()
		m.Lock(1)
		m.Unlock(1)
		m.Lock(1)
		m.Unlock(1)
	})
}
