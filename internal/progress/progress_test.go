package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarUpdate(t *testing.T) {
	var buf bytes.Buffer
	b := NewBarWriter("Analyzing", &buf)

	assert.Equal(t, 0, b.Current())
	for i := 1; i <= 5; i++ {
		b.Update(i, 5, "file.ts")
	}
	assert.Equal(t, 5, b.Current())
	assert.Contains(t, buf.String(), "Analyzing")
}

func TestBarResizesOnNewTotal(t *testing.T) {
	b := NewBarWriter("Analyzing", &bytes.Buffer{})
	b.Update(3, 3, "a.ts")
	b.Update(1, 10, "b.ts")
	assert.Equal(t, 1, b.Current())
}

func TestBarConcurrentUpdates(t *testing.T) {
	b := NewBarWriter("Analyzing", &bytes.Buffer{})

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b.Update(n, 20, "x.ts")
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, b.Current(), 20)
}

func TestFinishWithoutUpdates(t *testing.T) {
	var buf bytes.Buffer
	b := NewBarWriter("Analyzing", &buf)
	b.FinishSuccess()
	b.FinishError(errors.New("boom"))
	assert.True(t, strings.Contains(buf.String(), "Analyzing error: boom"))
}
