package notify

import (
	"context"
	"log"
	"os/exec"
	"strings"
	"time"
)

const soundRetryDelay = 500 * time.Millisecond

// Sound plays an audio cue by running an external player command, e.g.
// "paplay /usr/share/sounds/freedesktop/stereo/bell.oga". Playback is
// best-effort: one retry after a short delay, then the failure is
// swallowed.
type Sound struct {
	cmd  string
	args []string
}

// NewSound parses a player command line. Returns nil for an empty
// command, which disables the cue.
func NewSound(command string) *Sound {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	return &Sound{cmd: fields[0], args: fields[1:]}
}

// Play runs the player, retrying once on failure.
func (s *Sound) Play(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.run(ctx); err == nil {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(soundRetryDelay):
	}

	if err := s.run(ctx); err != nil {
		log.Printf("Failed to play notification sound: %v", err)
	}
}

func (s *Sound) run(ctx context.Context) error {
	return exec.CommandContext(ctx, s.cmd, s.args...).Run()
}
