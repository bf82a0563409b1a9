package pilot

import (
	"context"
	"log"
	"sync"
)

// Sink receives published commands.
type Sink interface {
	Publish(ctx context.Context, cmd Command) error
}

// LogSink writes every command to a logger. A nil Logger uses the standard
// logger.
type LogSink struct {
	Logger *log.Logger
}

// Publish logs the command.
func (s LogSink) Publish(_ context.Context, cmd Command) error {
	if s.Logger != nil {
		s.Logger.Printf("command %s", cmd)
		return nil
	}
	log.Printf("command %s", cmd)
	return nil
}

// Recorder keeps published commands in memory.
type Recorder struct {
	mu   sync.Mutex
	cmds []Command
}

// Publish appends the command.
func (r *Recorder) Publish(_ context.Context, cmd Command) error {
	r.mu.Lock()
	r.cmds = append(r.cmds, cmd)
	r.mu.Unlock()
	return nil
}

// Commands returns a copy of everything recorded so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

// MultiSink publishes to each sink in order and stops at the first error.
type MultiSink []Sink

// Publish forwards the command.
func (m MultiSink) Publish(ctx context.Context, cmd Command) error {
	for _, s := range m {
		if err := s.Publish(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
