package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"portfolio-server/internal/highscore"
	"portfolio-server/internal/types"
)

// HighScoreHandler serves the high score API on top of a store
type HighScoreHandler struct {
	store *highscore.Store
}

// NewHighScoreHandler creates a handler backed by store
func NewHighScoreHandler(store *highscore.Store) *HighScoreHandler {
	return &HighScoreHandler{store: store}
}

// Get returns the current high score
func (h *HighScoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	highScore := h.store.Get()
	logrus.WithField("highScore", highScore).Info("Sending high score")
	sendJSON(w, http.StatusOK, types.HighScoreResponse{HighScore: highScore})
}

// Submit records a score if it beats the current high score. Numbers are
// decoded as json.Number so large integers keep their exact value.
// An unreadable body or a non-numeric score is answered like a score that is
// not high enough.
func (h *HighScoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req types.ScoreRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		logrus.WithError(err).Debug("Could not decode score submission")
	}

	logrus.WithFields(logrus.Fields{
		"score":     req.Score,
		"highScore": h.store.Get(),
	}).Info("Received score")

	result, err := h.store.Submit(req.Score)
	if err != nil {
		logrus.WithError(err).WithField("file", h.store.Path()).Error("Failed to write high score file")
		sendError(w, "Write failed", http.StatusInternalServerError)
		return
	}

	if result.Accepted {
		logrus.WithField("highScore", result.HighScore).Info("New high score saved")
	} else {
		logrus.WithField("highScore", result.HighScore).Info("Score not high enough or invalid")
	}

	sendJSON(w, http.StatusOK, types.SubmitResponse{
		Success:      true,
		NewHighScore: result.Accepted,
		HighScore:    result.HighScore,
	})
}
