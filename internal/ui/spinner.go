package ui

import (
	"fmt"
	"sync"
	"time"
)

// Spinner animates a loading indicator in the terminal.
// Lightweight stdout spinner for non-TUI contexts; the watch view uses the
// full Bubble Tea loop instead.
type Spinner struct {
	frames []string
	stop   chan struct{}
	done   chan struct{}

	mu  sync.Mutex
	msg string
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(msg string) *Spinner {
	return &Spinner{
		frames: spinnerFrames,
		msg:    msg,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins the spinner animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		i := 0
		for {
			select {
			case <-s.stop:
				fmt.Printf("\r%-60s\r", "") // clear line
				return
			default:
				frame := StyleBucket.Render(s.frames[i%len(s.frames)])
				fmt.Printf("\r%s  %s", frame, s.message())
				time.Sleep(80 * time.Millisecond)
				i++
			}
		}
	}()
}

// SetMessage swaps the text shown next to the spinner. Safe to call while
// the render goroutine is running.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

func (s *Spinner) message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

// Stop halts the spinner and waits for it to finish.
func (s *Spinner) Stop() {
	close(s.stop)
	<-s.done
}

// StopWithMsg halts the spinner and prints a final message.
func (s *Spinner) StopWithMsg(msg string) {
	s.Stop()
	fmt.Println(msg)
}
