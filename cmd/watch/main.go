package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"voxelscan.ai/internal/viewerproto"
)

// watch subscribes to a scanner's viewer stream and logs what arrives.
func main() {
	var (
		url   = flag.String("url", "ws://127.0.0.1:8080/v1/ws", "viewer ws url")
		edges = flag.Bool("edges", true, "ask for edge batches")
		waves = flag.Bool("waves", false, "ask for wave progress")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := viewerproto.SubscribeMsg{
		Type:            viewerproto.TypeSubscribe,
		ProtocolVersion: viewerproto.Version,
		Edges:           *edges,
		Waves:           *waves,
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := viewerproto.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case viewerproto.TypeSubscribed:
			var m viewerproto.SubscribedMsg
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			logger.Printf("SUBSCRIBED session=%s distance=%d radius=%d ids=%v", m.SessionID, m.Scene.BlockDistance, m.Scene.BlockRadius, m.Scene.Interesting)

		case viewerproto.TypeFrame:
			var f viewerproto.FrameMsg
			if err := json.Unmarshal(msg, &f); err != nil {
				continue
			}
			var tris, lines int
			for _, b := range f.Batches {
				tris += len(b.Triangles)
				lines += len(b.Lines)
			}
			logger.Printf("FRAME seq=%d batches=%d triangles=%d lines=%d", f.Seq, len(f.Batches), tris, lines)

		case viewerproto.TypeWave:
			var w viewerproto.WaveMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			for _, f := range w.Found {
				logger.Printf("WAVE %s at %v", f.ID, f.Pos)
			}
		}
	}
}
