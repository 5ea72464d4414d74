package types

import (
	"sync"

	"github.com/gorilla/websocket"
)

// HighScoreFile is the on-disk representation of the persisted high score
type HighScoreFile struct {
	HighScore int `json:"highScore"`
}

// ScoreRequest is the body of a score submission. Score is left untyped so
// that a non-numeric value can be told apart from a decode failure.
type ScoreRequest struct {
	Score interface{} `json:"score"`
}

// HighScoreResponse represents the GET /api/highscore response
type HighScoreResponse struct {
	HighScore int `json:"highScore"`
}

// SubmitResponse represents the POST /api/highscore response
type SubmitResponse struct {
	Success      bool `json:"success"`
	NewHighScore bool `json:"newHighScore"`
	HighScore    int  `json:"highScore"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WSMessage represents a WebSocket message sent to clients
type WSMessage struct {
	Type      string `json:"type"`
	HighScore int    `json:"highScore"`
}

// WSClientMessage represents a message from the WebSocket client
type WSClientMessage struct {
	Action string `json:"action"`
}

// WSClient represents a WebSocket client connection. Send is drained by a
// single writer goroutine; Mu guards Send, Last and Closed.
type WSClient struct {
	Conn   *websocket.Conn
	Send   chan WSMessage
	Mu     sync.Mutex
	Last   int  // highest score queued so far
	Closed bool // Send has been closed
}
