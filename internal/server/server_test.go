package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"portfolio-server/internal/highscore"
	"portfolio-server/internal/types"
	"portfolio-server/pkg/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		Port:           "0",
		HighScoreFile:  filepath.Join(root, "highscore.json"),
		ContentDir:     filepath.Join(root, "main-folder"),
		PublicDir:      filepath.Join(root, "public"),
		AllowedOrigins: []string{"*"},
	}

	files := map[string]string{
		filepath.Join(cfg.ContentDir, "main-website-pages", "home.html"):                          "<h1>home</h1>",
		filepath.Join(cfg.ContentDir, "main-website-pages", "game.html"):                          "<h1>game</h1>",
		filepath.Join(cfg.ContentDir, "main-website-pages", "project-files", "handtracking.html"): "<h1>hands</h1>",
		filepath.Join(cfg.PublicDir, "robots.txt"):                                                "User-agent: *",
		filepath.Join(cfg.ContentDir, "partials-home", "navbar.html"):                             "<nav></nav>",
	}
	for path, content := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}
	return cfg
}

func newTestServer(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	cfg := testConfig(t)
	store, err := highscore.Open(cfg.HighScoreFile)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	ts := httptest.NewServer(New(cfg, store))
	t.Cleanup(ts.Close)
	return ts, cfg
}

func postScore(t *testing.T, baseURL, body string) types.SubmitResponse {
	t.Helper()
	resp, err := http.Post(baseURL+"/api/highscore", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("Failed to post score: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var out types.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func getScore(t *testing.T, baseURL string) int {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/highscore")
	if err != nil {
		t.Fatalf("Failed to get high score: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var out types.HighScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out.HighScore
}

func TestHighScoreAPIScenario(t *testing.T) {
	ts, cfg := newTestServer(t)

	if score := getScore(t, ts.URL); score != 0 {
		t.Errorf("Expected high score 0, got %d", score)
	}

	data, err := os.ReadFile(cfg.HighScoreFile)
	if err != nil {
		t.Fatalf("High score file not created: %v", err)
	}
	if string(data) != `{"highScore":0}` {
		t.Errorf("Expected initial file '{\"highScore\":0}', got '%s'", data)
	}

	resp := postScore(t, ts.URL, `{"score":50}`)
	if !resp.Success || !resp.NewHighScore || resp.HighScore != 50 {
		t.Errorf("Unexpected response to score 50: %+v", resp)
	}

	resp = postScore(t, ts.URL, `{"score":20}`)
	if !resp.Success || resp.NewHighScore || resp.HighScore != 50 {
		t.Errorf("Unexpected response to score 20: %+v", resp)
	}

	if score := getScore(t, ts.URL); score != 50 {
		t.Errorf("Expected high score 50, got %d", score)
	}
}

func TestHighScoreSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)

	store, err := highscore.Open(cfg.HighScoreFile)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	first := httptest.NewServer(New(cfg, store))
	postScore(t, first.URL, `{"score":314}`)
	first.Close()

	reopened, err := highscore.Open(cfg.HighScoreFile)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	second := httptest.NewServer(New(cfg, reopened))
	defer second.Close()

	if score := getScore(t, second.URL); score != 314 {
		t.Errorf("Expected reloaded high score 314, got %d", score)
	}
}

func TestStaticRoutes(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "<h1>home</h1>"},
		{"/game", http.StatusOK, "<h1>game</h1>"},
		{"/handtracking", http.StatusOK, "<h1>hands</h1>"},
		{"/robots.txt", http.StatusOK, "User-agent: *"},
		{"/partials-home/navbar.html", http.StatusOK, "<nav></nav>"},
		{"/services", http.StatusNotFound, ""},
		{"/does-not-exist", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("Failed to get %s: %v", tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}

			if tt.body != "" {
				var buf bytes.Buffer
				buf.ReadFrom(resp.Body)
				if buf.String() != tt.body {
					t.Errorf("Expected body '%s', got '%s'", tt.body, buf.String())
				}
			}
		})
	}
}

func TestHeadRequestOnPage(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Head(ts.URL + "/game")
	if err != nil {
		t.Fatalf("HEAD failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestCORSHeaders(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/highscore", nil)
	req.Header.Set("Origin", "https://game.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Preflight failed: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin '*', got '%s'", got)
	}
}

func TestNewHighScoreIsBroadcast(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	read := func() types.WSMessage {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Failed to read message: %v", err)
		}
		return msg
	}

	if msg := read(); msg.HighScore != 0 {
		t.Errorf("Expected initial high score 0, got %d", msg.HighScore)
	}

	// Round trip so the client is registered before the submission
	conn.WriteJSON(types.WSClientMessage{Action: "subscribe"})
	read()

	postScore(t, ts.URL, `{"score":88}`)

	if msg := read(); msg.Type != "highScore" || msg.HighScore != 88 {
		t.Errorf("Expected highScore 88 broadcast, got %+v", msg)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)

	// Reserve a free port
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	_, port, _ := net.SplitHostPort(l.Addr().String())
	l.Close()
	cfg.Port = port

	store, err := highscore.Open(cfg.HighScoreFile)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	srv := New(cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// Wait for the listener
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get("http://127.0.0.1:" + port + "/api/highscore")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Server did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned an error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
