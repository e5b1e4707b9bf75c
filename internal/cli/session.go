package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/packraft/packraft/pkg/host"
)

// consoleSession adapts the host session contract to terminal output.
// Diagnostics stream through the charm logger as they arrive; yielded
// records are collected for the command to render once the operation
// finishes. Progress activities animate on stderr unless animation is off,
// in which case they become log lines.
type consoleSession struct {
	ctx     context.Context
	logger  *log.Logger
	animate bool

	mu       sync.Mutex
	packages []host.Package
	details  []*packageDetail
	sources  []host.Source
	options  []host.Option
	spinners map[string]*spinner
}

// packageDetail carries the metadata records attached to one yielded
// package.
type packageDetail struct {
	Dependencies []string          `json:"dependencies,omitempty"`
	Links        map[string]string `json:"links,omitempty"`
	Authors      []string          `json:"authors,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func newConsoleSession(ctx context.Context, logger *log.Logger, animate bool) *consoleSession {
	return &consoleSession{
		ctx:      ctx,
		logger:   logger,
		animate:  animate,
		spinners: make(map[string]*spinner),
	}
}

func (s *consoleSession) Debug(format string, args ...any) {
	s.logger.Debugf(format, args...)
}

func (s *consoleSession) Verbose(format string, args ...any) {
	s.logger.Infof(format, args...)
}

func (s *consoleSession) Warning(format string, args ...any) {
	s.logger.Warnf(format, args...)
}

func (s *consoleSession) Error(cat host.ErrorCategory, target, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if target != "" {
		msg = target + ": " + msg
	}
	s.logger.Error(msg, "category", string(cat))
}

func (s *consoleSession) IsCanceled() bool {
	return s.ctx.Err() != nil
}

func (s *consoleSession) StartProgress(format string, args ...any) string {
	id := uuid.NewString()
	msg := fmt.Sprintf(format, args...)
	if !s.animate {
		s.logger.Infof("%s", msg)
		return id
	}
	sp := newSpinner(msg)
	s.mu.Lock()
	s.spinners[id] = sp
	s.mu.Unlock()
	sp.start()
	return id
}

func (s *consoleSession) Progress(id string, percent int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.mu.Lock()
	sp := s.spinners[id]
	s.mu.Unlock()
	if sp == nil {
		s.logger.Debugf("%s (%d%%)", msg, percent)
		return
	}
	sp.setMessage(fmt.Sprintf("%s %d%%", msg, percent))
}

func (s *consoleSession) CompleteProgress(id string, ok bool) {
	s.mu.Lock()
	sp := s.spinners[id]
	delete(s.spinners, id)
	s.mu.Unlock()
	if sp != nil {
		sp.stop()
	}
	if !ok {
		s.logger.Debugf("activity %s did not complete", id)
	}
}

func (s *consoleSession) YieldPackage(p host.Package) bool {
	s.mu.Lock()
	s.packages = append(s.packages, p)
	s.details = append(s.details, &packageDetail{})
	s.mu.Unlock()
	return !s.IsCanceled()
}

func (s *consoleSession) YieldSource(src host.Source) bool {
	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
	return !s.IsCanceled()
}

func (s *consoleSession) YieldOption(o host.Option) bool {
	s.mu.Lock()
	s.options = append(s.options, o)
	s.mu.Unlock()
	return !s.IsCanceled()
}

func (s *consoleSession) AddMetadata(name, value string) bool {
	s.withLastDetail(func(d *packageDetail) {
		if d.Metadata == nil {
			d.Metadata = make(map[string]string)
		}
		d.Metadata[name] = value
	})
	return true
}

func (s *consoleSession) AddLink(rel, href string) bool {
	s.withLastDetail(func(d *packageDetail) {
		if d.Links == nil {
			d.Links = make(map[string]string)
		}
		d.Links[rel] = href
	})
	return true
}

func (s *consoleSession) AddDependency(id, version, source string) bool {
	s.withLastDetail(func(d *packageDetail) {
		dep := id
		if version != "" {
			dep += " " + version
		}
		d.Dependencies = append(d.Dependencies, strings.TrimSpace(dep))
	})
	return true
}

func (s *consoleSession) AddEntity(name, role string) bool {
	s.withLastDetail(func(d *packageDetail) {
		if role == "author" {
			d.Authors = append(d.Authors, name)
			return
		}
		if d.Metadata == nil {
			d.Metadata = make(map[string]string)
		}
		d.Metadata[role] = name
	})
	return true
}

// withLastDetail mutates the detail record of the most recently yielded
// package. Detail calls before any yield are dropped.
func (s *consoleSession) withLastDetail(fn func(*packageDetail)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.details) == 0 {
		return
	}
	fn(s.details[len(s.details)-1])
}
