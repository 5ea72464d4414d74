package highscore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"portfolio-server/internal/types"
)

// Result is the outcome of a score submission
type Result struct {
	Accepted  bool
	HighScore int
}

// Store holds the high score in memory and mirrors it to a JSON file.
// The in-memory value is authoritative; the file is only read by Open.
type Store struct {
	path      string
	mutex     sync.RWMutex
	highScore int
	onRecord  []func(int)
}

// Open loads the high score from path. A missing file is created with a
// score of 0; an unreadable or malformed file is logged and the score
// defaults to 0 without touching the file.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	score, err := loadFromFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logrus.WithField("file", path).Warn("High score file not found, creating with default score 0")
		if err := saveToFile(path, 0); err != nil {
			return nil, err
		}
	case err != nil:
		logrus.WithError(err).WithField("file", path).Error("Error reading high score file, starting from 0")
	default:
		s.highScore = score
		logrus.WithField("highScore", score).Info("Loaded high score")
	}

	return s, nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Get returns the current high score
func (s *Store) Get() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.highScore
}

// OnRecord registers fn to be called with the new value whenever a
// submission raises the high score.
func (s *Store) OnRecord(fn func(int)) {
	s.mutex.Lock()
	s.onRecord = append(s.onRecord, fn)
	s.mutex.Unlock()
}

// Submit records candidate if it is a JSON number whose integer part is
// strictly greater than the current high score. Anything else, including
// non-numeric values, leaves the score unchanged and is not an error.
//
// When the new value cannot be written to disk the in-memory score is kept
// and the write error is returned along with the accepted result.
//
// Listeners run with the store locked so they observe records in order;
// they must not call back into the store.
func (s *Store) Submit(candidate interface{}) (Result, error) {
	score, ok := toScore(candidate)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !ok || score <= s.highScore {
		return Result{Accepted: false, HighScore: s.highScore}, nil
	}

	s.highScore = score
	err := saveToFile(s.path, score)

	for _, fn := range s.onRecord {
		fn(score)
	}

	return Result{Accepted: true, HighScore: score}, err
}

// toScore converts a number decoded with json.Decoder.UseNumber to a score.
// Fractions are truncated.
func toScore(candidate interface{}) (int, bool) {
	n, ok := candidate.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

func loadFromFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var file types.HighScoreFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to unmarshal high score file: %w", err)
	}

	if file.HighScore < 0 {
		return 0, fmt.Errorf("negative high score %d in file", file.HighScore)
	}
	return file.HighScore, nil
}

func saveToFile(path string, score int) error {
	data, err := json.Marshal(types.HighScoreFile{HighScore: score})
	if err != nil {
		return fmt.Errorf("failed to marshal high score: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write high score file: %w", err)
	}
	return nil
}
