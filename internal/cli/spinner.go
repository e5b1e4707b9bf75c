package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// spinner is a stderr progress indicator for one activity. The message can
// be swapped while it runs, which is how percent updates surface.
type spinner struct {
	mu      sync.Mutex
	message string
	done    chan struct{}
	stopped chan struct{}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func newSpinner(message string) *spinner {
	return &spinner{
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// start begins the animation. stop must be called exactly once.
func (s *spinner) start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.message))
				s.mu.Unlock()
				i++
			}
		}
	}()
}

// setMessage replaces the displayed message on the next frame.
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	if len(message) < len(s.message) {
		// Repaint so the longer previous message does not leave a tail.
		fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	}
	s.message = message
	s.mu.Unlock()
}

// stop halts the animation and clears the line.
func (s *spinner) stop() {
	close(s.done)
	<-s.stopped
	s.mu.Lock()
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	s.mu.Unlock()
}
