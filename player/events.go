package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/podtube-cli/podtube/log"
)

// observed properties, keyed by the observer id sent to mpv.
var observed = []struct {
	id   int
	name string
}{
	{1, "time-pos"},
	{2, "duration"},
	{3, "pause"},
	{4, "eof-reached"},
}

// EventListener reads property changes and events from a persistent mpv connection
// and translates them into element events.
type EventListener struct {
	socketPath string
	callback   func(Event)

	mu        sync.Mutex
	conn      net.Conn
	listening bool
}

func NewEventListener(socketPath string, callback func(Event)) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
	}
}

// Start opens the connection and registers the observers on it.
// mpv only delivers property changes to the client that asked for them.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for _, prop := range observed {
		payload, err := json.Marshal(ipcCommand{Command: []any{"observe_property", prop.id, prop.name}})
		if err != nil {
			_ = conn.Close()
			return err
		}
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			_ = conn.Close()
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	el.conn = conn
	el.listening = true
	go el.readLoop(conn)

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection, which ends the read loop.
func (el *EventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}
	el.listening = false
	_ = el.conn.Close()
}

func (el *EventListener) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)

	for scanner.Scan() {
		if e, ok := translate(scanner.Bytes()); ok && el.callback != nil {
			el.callback(e)
		}
	}

	el.mu.Lock()
	stopped := !el.listening
	el.listening = false
	el.mu.Unlock()

	if err := scanner.Err(); err != nil && !stopped {
		log.Warnf("event listener read error: %v", err)
	}
}

type mpvEvent struct {
	Event  string `json:"event"`
	Name   string `json:"name"`
	Data   any    `json:"data"`
	Reason string `json:"reason"`
	Error  string `json:"file_error"`
}

// translate maps one line of mpv output onto an element event.
// Command replies and events the engine does not care about are dropped.
func translate(line []byte) (Event, bool) {
	var raw mpvEvent
	if err := json.Unmarshal(line, &raw); err != nil || raw.Event == "" {
		return Event{}, false
	}

	switch raw.Event {
	case "property-change":
		return translateProperty(raw.Name, raw.Data)
	case "file-loaded":
		return Event{Kind: EventLoaded}, true
	case "end-file":
		if raw.Reason == "error" {
			reason := raw.Error
			if reason == "" {
				reason = "unknown error"
			}
			return Event{Kind: EventError, Err: errors.New("playback failed: " + reason)}, true
		}
		if raw.Reason == "eof" {
			return Event{Kind: EventEnded}, true
		}
	}
	return Event{}, false
}

func translateProperty(name string, data any) (Event, bool) {
	switch name {
	case "time-pos":
		if t, ok := data.(float64); ok {
			return Event{Kind: EventTimeUpdate, Time: t}, true
		}
	case "duration":
		if d, ok := data.(float64); ok {
			return Event{Kind: EventDurationChange, Duration: d}, true
		}
	case "pause":
		if paused, ok := data.(bool); ok {
			if paused {
				return Event{Kind: EventPaused}, true
			}
			return Event{Kind: EventPlaying}, true
		}
	case "eof-reached":
		if eof, ok := data.(bool); ok && eof {
			return Event{Kind: EventEnded}, true
		}
	}
	return Event{}, false
}
