package ui

import (
	"fmt"
	"sync"
	"testing"
)

func TestSpinnerSetMessageWhileRunning(t *testing.T) {
	s := NewSpinner("starting")
	s.Start()

	// Hammer the message from several goroutines while the render loop
	// reads it.
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.SetMessage(fmt.Sprintf("step %d.%d", g, i))
			}
		}(g)
	}
	wg.Wait()
	s.Stop()
}
