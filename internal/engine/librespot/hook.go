package librespot

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/playback"
)

// HookMessage is one player event, as librespot hands it to its --onevent
// program through the environment.
type HookMessage struct {
	PlayerEvent string   `json:"player_event"`
	TrackID     string   `json:"track_id,omitempty"`
	URI         string   `json:"uri,omitempty"`
	Name        string   `json:"name,omitempty"`
	Artists     []string `json:"artists,omitempty"`
	Album       string   `json:"album,omitempty"`
	ShowName    string   `json:"show_name,omitempty"`
	ItemType    string   `json:"item_type,omitempty"`
	DurationMs  uint32   `json:"duration_ms,omitempty"`
	PositionMs  uint32   `json:"position_ms,omitempty"`
}

// MessageFromEnv reads a HookMessage from librespot's event variables.
func MessageFromEnv(getenv func(string) string) HookMessage {
	msg := HookMessage{
		PlayerEvent: getenv("PLAYER_EVENT"),
		TrackID:     getenv("TRACK_ID"),
		URI:         getenv("URI"),
		Name:        getenv("NAME"),
		Album:       getenv("ALBUM"),
		ShowName:    getenv("SHOW_NAME"),
		ItemType:    getenv("ITEM_TYPE"),
		DurationMs:  parseMs(getenv("DURATION_MS")),
		PositionMs:  parseMs(getenv("POSITION_MS")),
	}
	// ARTISTS is newline separated
	for _, a := range strings.Split(getenv("ARTISTS"), "\n") {
		if a = strings.TrimSpace(a); a != "" {
			msg.Artists = append(msg.Artists, a)
		}
	}
	return msg
}

func parseMs(s string) uint32 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

// Event converts the message to a playback event.
func (m HookMessage) Event() playback.Event {
	ev := playback.Event{Name: m.PlayerEvent, PositionMs: m.PositionMs}

	switch m.PlayerEvent {
	case "loading":
		ev.Kind = playback.EventLoading
	case "playing", "started":
		ev.Kind = playback.EventPlaying
	case "paused":
		ev.Kind = playback.EventPaused
	case "position_correction":
		ev.Kind = playback.EventPositionChanged
	case "seeked":
		ev.Kind = playback.EventSeeked
	case "stopped":
		ev.Kind = playback.EventStopped
	case "end_of_track":
		ev.Kind = playback.EventEndOfTrack
	case "track_changed", "changed":
		ev.Kind = playback.EventTrackChanged
		ev.Item = m.item()
	default:
		ev.Kind = playback.EventOther
	}
	return ev
}

func (m HookMessage) item() *playback.Item {
	it := &playback.Item{
		Kind:       playback.ItemTrack,
		URI:        m.URI,
		ID:         m.TrackID,
		Name:       m.Name,
		Artists:    m.Artists,
		Album:      m.Album,
		ShowName:   m.ShowName,
		DurationMs: m.DurationMs,
	}
	switch {
	case strings.EqualFold(m.ItemType, "episode"):
		it.Kind = playback.ItemEpisode
	case strings.HasPrefix(m.URI, "spotify:local:"):
		it.Kind = playback.ItemLocal
	}
	if it.URI == "" && it.ID != "" {
		prefix := "spotify:track:"
		if it.Kind == playback.ItemEpisode {
			prefix = "spotify:episode:"
		}
		it.URI = prefix + it.ID
	}
	return it
}

// SendHook delivers msg to the engine listening on socket.
func SendHook(ctx context.Context, socket string, msg HookMessage) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return fmt.Errorf("failed to reach engine socket: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// eventServer accepts hook connections on a Unix socket and turns each JSON
// line into an Event. Events are delivered in arrival order; a full
// channel blocks the reader rather than dropping events.
type eventServer struct {
	path   string
	ln     net.Listener
	events chan playback.Event
	log    *log.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	// deliver serializes sends so events from overlapping hook runs
	// keep their order.
	deliver sync.Mutex
}

const eventBuffer = 64

func listenEvents(path string, logger *log.Logger) (*eventServer, error) {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("failed to restrict %s: %w", path, err)
	}

	s := &eventServer{
		path:   path,
		ln:     ln,
		events: make(chan playback.Event, eventBuffer),
		log:    logger,
		done:   make(chan struct{}),
		conns:  make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.accept()
	return s, nil
}

func (s *eventServer) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.log.Warn("engine socket accept failed", "err", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		s.mu.Lock()
		select {
		case <-s.done:
			s.mu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *eventServer) handle(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var msg HookMessage
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			s.log.Warn("bad engine event", "err", err)
			continue
		}
		ev := msg.Event()
		s.log.Debug("engine event", "event", msg.PlayerEvent, "position", msg.PositionMs, "uri", msg.URI)

		s.deliver.Lock()
		select {
		case s.events <- ev:
			s.deliver.Unlock()
		case <-s.done:
			s.deliver.Unlock()
			return
		}
	}
}

// Close stops accepting events, waits for in-flight connections and closes
// the event channel.
func (s *eventServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		close(s.done)
		for c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
		err = s.ln.Close()
		s.wg.Wait()
		close(s.events)
		_ = os.Remove(s.path)
	})
	return err
}
