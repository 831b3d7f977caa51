// Package viewer streams rendered echo frames to remote renderers over
// websockets.
package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/sonar"
	"voxelscan.ai/internal/viewerproto"
)

// SceneFunc describes the scanner for new clients.
type SceneFunc func() viewerproto.Scene

type Server struct {
	scene SceneFunc
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	seq      atomic.Uint64

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id    string
	out   chan []byte
	edges atomic.Bool
	waves atomic.Bool
}

func NewServer(scene SceneFunc, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		scene: scene,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Clients is the number of subscribed connections.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.currentScene())
	}
}

func (s *Server) currentScene() viewerproto.Scene {
	var sc viewerproto.Scene
	if s.scene != nil {
		sc = s.scene()
	}
	sc.ProtocolVersion = viewerproto.Version
	return sc
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		sub, ok := readSubscribe(conn)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		c := &client{id: fmt.Sprintf("V%d", s.nextID.Add(1)), out: make(chan []byte, 64)}
		c.edges.Store(sub.Edges)
		c.waves.Store(sub.Waves)

		hello, _ := json.Marshal(viewerproto.SubscribedMsg{
			Type:            viewerproto.TypeSubscribed,
			ProtocolVersion: viewerproto.Version,
			SessionID:       c.id,
			Scene:           s.currentScene(),
		})
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return
		}

		s.mu.Lock()
		s.clients[c.id] = c
		s.mu.Unlock()
		s.log.Printf("viewer %s subscribed from %s", c.id, r.RemoteAddr)
		defer func() {
			s.mu.Lock()
			delete(s.clients, c.id)
			s.mu.Unlock()
			s.log.Printf("viewer %s gone", c.id)
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: SUBSCRIBE updates only.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			sub, ok := readSubscribe(conn)
			if sub == nil {
				break
			}
			if !ok {
				continue
			}
			c.edges.Store(sub.Edges)
			c.waves.Store(sub.Waves)
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// readSubscribe returns nil on a read error and false for a message that is
// not a valid SUBSCRIBE.
func readSubscribe(conn *websocket.Conn) (*viewerproto.SubscribeMsg, bool) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}
	var sub viewerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return &sub, false
	}
	if sub.Type != viewerproto.TypeSubscribe || sub.ProtocolVersion != viewerproto.Version {
		return &sub, false
	}
	return &sub, true
}

// PublishFrame sends a collected frame to every client. Clients that are
// behind miss the frame.
func (s *Server) PublishFrame(f *FrameSink) uint64 {
	seq := s.seq.Add(1)
	full, err := json.Marshal(f.frame(seq, true))
	if err != nil {
		s.log.Printf("frame %d: %v", seq, err)
		return seq
	}
	faces, err := json.Marshal(f.frame(seq, false))
	if err != nil {
		s.log.Printf("frame %d: %v", seq, err)
		return seq
	}
	s.broadcast(func(c *client) []byte {
		if c.edges.Load() {
			return full
		}
		return faces
	})
	return seq
}

// Advance forwards wave progress to clients that asked for it, making the
// server a sonar.WaveConsumer.
func (s *Server) Advance(shimmers []geom.Vec3, found []sonar.Partial) {
	msg := viewerproto.WaveMsg{
		Type:            viewerproto.TypeWave,
		ProtocolVersion: viewerproto.Version,
		Shimmers:        make([][3]int, len(shimmers)),
	}
	for i, p := range shimmers {
		msg.Shimmers[i] = [3]int{p.X, p.Y, p.Z}
	}
	for _, p := range found {
		msg.Found = append(msg.Found, viewerproto.Found{Pos: [3]int{p.Pos.X, p.Pos.Y, p.Pos.Z}, ID: p.ID.String()})
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.broadcast(func(c *client) []byte {
		if !c.waves.Load() {
			return nil
		}
		return b
	})
}

func (s *Server) broadcast(pick func(*client) []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		b := pick(c)
		if b == nil {
			continue
		}
		select {
		case c.out <- b:
		default:
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
