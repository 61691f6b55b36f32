package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// readWait bounds client silence; the quiz client autosaves or pings well within it.
	readWait = 5 * time.Minute
	// maxFrameBytes caps a single frame, enough for a full answer map.
	maxFrameBytes = 64 << 10
)

// Prepare applies the frame limit and initial read deadline to a fresh connection.
func Prepare(conn *websocket.Conn) {
	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(readWait))
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, id, code, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		ID:    id,
		Code:  code,
		Error: errMsg,
	})
}

// ErrMalformed marks a frame that arrived intact but is not a valid envelope.
// The connection stays usable.
var ErrMalformed = errors.New("malformed frame")

// ReadEnvelope reads the next frame and extends the read deadline.
func ReadEnvelope(conn *websocket.Conn) (RequestEnvelope, error) {
	var env RequestEnvelope
	conn.SetReadDeadline(time.Now().Add(readWait))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env, nil
}

// Close sends a normal closure frame with reason.
func Close(conn *websocket.Conn, reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
