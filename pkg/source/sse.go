package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// sseEvent is one parsed server-sent event frame.
type sseEvent struct {
	Event string
	Data  string
}

// maxSSELineBytes bounds a single frame line. Large-cluster batches
// can be sizeable but a multi-megabyte single line is a broken peer.
const maxSSELineBytes = 4 << 20

// readSSE parses server-sent events from r and invokes fn for each
// complete frame. It returns when the reader is drained, fn returns
// io.EOF (clean stop), or fn returns any other error.
func readSSE(r io.Reader, fn func(sseEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxSSELineBytes)

	var ev sseEvent
	flush := func() error {
		if ev.Event == "" && ev.Data == "" {
			return nil
		}
		err := fn(ev)
		ev = sseEvent{}
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive.
		case strings.HasPrefix(line, "event:"):
			ev.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimPrefix(line, "data:")
			data = strings.TrimPrefix(data, " ")
			if ev.Data != "" {
				ev.Data += "\n"
			}
			ev.Data += data
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	// Trailing frame without a final blank line.
	if err := flush(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
