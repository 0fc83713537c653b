package player

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/where"
	"github.com/spf13/viper"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// Mode selects what an mpv element renders.
type Mode int

const (
	// ModeAudio plays sound only and never opens a window.
	ModeAudio Mode = iota
	// ModeVideo opens a window and is always muted.
	ModeVideo
)

func (m Mode) String() string {
	if m == ModeVideo {
		return "video"
	}
	return "audio"
}

// ErrNotRunning is returned by commands issued before Start or after the process exited.
var ErrNotRunning = errors.New("mpv is not running")

// MPV is an Element backed by an idle mpv process.
type MPV struct {
	mode   Mode
	binary string

	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	events     *EventListener

	mu      sync.Mutex // guards socket writes
	startMu sync.Mutex

	handlerMu sync.RWMutex
	handler   func(Event)
}

// NewMPV creates an element; the process is started on first use.
func NewMPV(mode Mode, binary string) *MPV {
	if binary == "" {
		binary = "mpv"
	}
	return &MPV{mode: mode, binary: binary}
}

// NewAudio creates the audio element using the configured mpv binary.
func NewAudio() *MPV {
	return NewMPV(ModeAudio, viper.GetString(key.PlayerMPV))
}

// NewVideo creates the muted video element using the configured mpv binary.
func NewVideo() *MPV {
	return NewMPV(ModeVideo, viper.GetString(key.PlayerMPV))
}

// args builds the command line. Only what the element needs is passed so the user's mpv.conf still applies.
func (m *MPV) args() []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + m.socketPath,
		"--idle=yes",
		"--keep-open=yes",
		"--pause=yes",
		"--title=" + constant.Podtube,
	}

	switch m.mode {
	case ModeVideo:
		args = append(args, "--mute=yes", "--aid=no", "--force-window=yes")
	default:
		args = append(args, "--vid=no", "--force-window=no", "--audio-display=no")
	}
	return args
}

// Start launches the mpv process and waits for its IPC socket. It is idempotent.
func (m *MPV) Start() error {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	if m.running() {
		return nil
	}

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("%s-%s-%x.sock", constant.Podtube, m.mode, randomBytes))

	m.cmd = exec.Command(m.binary, m.args()...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	exited := make(chan struct{})
	m.exited = exited
	go func(cmd *exec.Cmd) {
		err := cmd.Wait()
		close(exited)
		log.WithField("element", m.mode.String()).Debugf("mpv exited: %v", err)
	}(m.cmd)

	if err := m.waitForSocket(); err != nil {
		select {
		case <-exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.events = NewEventListener(m.socketPath, m.onEvent)
	if err := m.events.Start(); err != nil {
		_ = killProcess(m.cmd)
		return err
	}

	go func() {
		<-exited
		m.events.Stop()
		m.dispatch(Event{Kind: EventError, Err: ErrNotRunning})
	}()

	return nil
}

func (m *MPV) running() bool {
	if m.exited == nil {
		return false
	}
	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}

// Wait returns a channel closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		if !m.running() {
			return errors.New("mpv exited before socket was ready")
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			_ = conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

func (m *MPV) OnEvent(handler func(Event)) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	m.handler = handler
}

// onEvent completes loaded events with the new source's duration before dispatching them.
func (m *MPV) onEvent(e Event) {
	if e.Kind == EventLoaded {
		if d, err := m.getFloatProperty("duration"); err == nil && d > 0 {
			e.Duration = d
		}
	}
	m.dispatch(e)
}

func (m *MPV) dispatch(e Event) {
	m.handlerMu.RLock()
	handler := m.handler
	m.handlerMu.RUnlock()

	if handler != nil {
		handler(e)
	}
}

func (m *MPV) Load(rawURL, title string) error {
	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if err := m.Start(); err != nil {
		return err
	}

	if _, err := m.sendCommand([]any{"loadfile", target, "replace"}); err != nil {
		return err
	}
	return m.set("force-media-title", sanitizeTitle(title))
}

func (m *MPV) Unload() error {
	if !m.running() {
		return nil
	}
	_, err := m.sendCommand([]any{"stop"})
	return err
}

func (m *MPV) Play() error {
	return m.set("pause", false)
}

func (m *MPV) Pause() error {
	return m.set("pause", true)
}

func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand([]any{"seek", seconds, "absolute"})
	return err
}

// SetVolume maps [0, 1] onto mpv's percentage volume.
func (m *MPV) SetVolume(v float64) error {
	return m.set("volume", v*100)
}

// SetMuted is ignored by video elements, which stay muted.
func (m *MPV) SetMuted(muted bool) error {
	if m.mode == ModeVideo {
		muted = true
	}
	return m.set("mute", muted)
}

func (m *MPV) CurrentTime() (float64, error) {
	return m.getFloatProperty("time-pos")
}

// Close shuts down the mpv process and removes its socket.
func (m *MPV) Close() error {
	if !m.running() {
		return nil
	}

	_, _ = m.sendCommand([]any{"quit"})

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	if m.events != nil {
		m.events.Stop()
	}
	_ = os.Remove(m.socketPath)
	return nil
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

func (m *MPV) set(property string, value any) error {
	_, err := m.sendCommand([]any{"set_property", property, value})
	return err
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]any{"get_property", name})
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return val, nil
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	// URLs must not look like flags
	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
