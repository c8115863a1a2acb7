package attack

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_Accumulates(t *testing.T) {
	c := NewCounter(0)

	c.OnLinesCleared(0)
	assert.Equal(t, 0, c.Total())

	c.OnLinesCleared(1)
	c.OnLinesCleared(3)
	assert.Equal(t, 40, c.Total())
	assert.Equal(t, 4, c.Lines())
}

func TestCounter_CustomPower(t *testing.T) {
	c := NewCounter(25)
	c.OnLinesCleared(2)
	assert.Equal(t, 50, c.Total())
}

func TestCounter_ConcurrentReaders(t *testing.T) {
	c := NewCounter(DefaultPowerPerLine)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.OnLinesCleared(1)
				_ = c.Total()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, c.Lines())
	assert.Equal(t, 8000, c.Total())
}
