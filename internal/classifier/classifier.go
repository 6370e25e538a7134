// Package classifier turns leaf images into a disease class index and a confidence.
package classifier

import (
	"errors"
	"fmt"
	"math"
)

const (
	// InputSize is the square edge, in pixels, the model was trained on.
	InputSize = 224
	channels  = 3
)

var (
	// ErrDecode means the bytes are not an image in a supported format.
	ErrDecode = errors.New("classifier: cannot decode image")
	// ErrModelUnavailable means the model could not be loaded. Fatal at startup.
	ErrModelUnavailable = errors.New("classifier: model unavailable")
	// ErrInference wraps engine failures during a forward pass.
	ErrInference = errors.New("classifier: inference failed")
)

// Engine runs one forward pass over a 1x3xHxW float32 tensor and returns the logits.
// Implementations must be safe for concurrent use.
type Engine interface {
	Infer(input []float32) ([]float32, error)
	NumClasses() int
	Close() error
}

// Prediction is the arg-max class and its softmax probability as a percentage.
type Prediction struct {
	ClassIndex int     `json:"class_index"`
	Confidence float64 `json:"confidence"`
}

// Classifier is a pure function of its input once the engine is loaded.
type Classifier struct {
	engine Engine
}

// New wraps a loaded engine.
func New(engine Engine) (*Classifier, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrModelUnavailable)
	}
	if engine.NumClasses() <= 0 {
		return nil, fmt.Errorf("%w: engine reports %d classes", ErrModelUnavailable, engine.NumClasses())
	}
	return &Classifier{engine: engine}, nil
}

// NumClasses is the model output cardinality.
func (c *Classifier) NumClasses() int { return c.engine.NumClasses() }

// Predict decodes data, runs the model and returns the most likely class.
func (c *Classifier) Predict(data []byte) (Prediction, error) {
	input, err := Preprocess(data)
	if err != nil {
		return Prediction{}, err
	}

	logits, err := c.engine.Infer(input)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(logits) != c.engine.NumClasses() {
		return Prediction{}, fmt.Errorf("%w: got %d logits, want %d", ErrInference, len(logits), c.engine.NumClasses())
	}
	for i, v := range logits {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Prediction{}, fmt.Errorf("%w: non-finite logit at class %d", ErrInference, i)
		}
	}

	idx, p := argmax(softmax(logits))
	return Prediction{ClassIndex: idx, Confidence: roundPercent(p)}, nil
}

// Close releases the engine.
func (c *Classifier) Close() error { return c.engine.Close() }

func softmax(logits []float32) []float64 {
	hi := math.Inf(-1)
	for _, v := range logits {
		if float64(v) > hi {
			hi = float64(v)
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax returns the first index of the largest value.
func argmax(probs []float64) (int, float64) {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best, probs[best]
}

// roundPercent maps a probability to a percentage with two decimals.
func roundPercent(p float64) float64 {
	return math.Round(p*100*100) / 100
}
