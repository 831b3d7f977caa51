// Package viewerproto is the JSON wire format between the scanner and a
// remote renderer.
package viewerproto

import "encoding/json"

// Version is bumped on any incompatible message change.
const Version = "0.1"

const (
	TypeSubscribe  = "SUBSCRIBE"
	TypeSubscribed = "SUBSCRIBED"
	TypeFrame      = "FRAME"
	TypeWave       = "WAVE"
)

type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Client -> Server. First message on the connection; may be re-sent to
// change what the client receives.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Edges asks for wireframe batches on top of faces.
	Edges bool `json:"edges"`
	// Waves asks for slice-by-slice wave progress.
	Waves bool `json:"waves"`
}

// Server -> Client. Acknowledges the first SUBSCRIBE.
type SubscribedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	Scene           Scene  `json:"scene"`
}

// Scene describes the scanner the client is attached to. Also served over
// plain HTTP as the bootstrap response.
type Scene struct {
	ProtocolVersion string   `json:"protocol_version"`
	PaletteDigest   string   `json:"palette_digest"`
	BlockDistance   int      `json:"block_distance"`
	BlockRadius     int      `json:"block_radius"`
	Interesting     []string `json:"interesting_ids"`
	Echoes          int      `json:"echoes"`
}

// Server -> Client. One rendered frame, batches in blending order.
type FrameMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Seq             uint64     `json:"seq"`
	Camera          [3]float64 `json:"camera"`
	Batches         []Batch    `json:"batches"`
}

const (
	BatchFaces = "faces"
	BatchEdges = "edges"
)

type Batch struct {
	Kind      string     `json:"kind"`
	Triangles []Triangle `json:"triangles,omitempty"`
	Lines     []Line     `json:"lines,omitempty"`
}

// Triangle is three camera-relative vertices.
type Triangle struct {
	V    [9]float32 `json:"v"`
	ARGB uint32     `json:"argb"`
}

type Line struct {
	V    [6]float32 `json:"v"`
	ARGB uint32     `json:"argb"`
}

// Server -> Client. The scan wave reached another distance slice.
type WaveMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Shimmers        [][3]int `json:"shimmers"`
	Found           []Found  `json:"found,omitempty"`
}

type Found struct {
	Pos [3]int `json:"pos"`
	ID  string `json:"id"`
}
