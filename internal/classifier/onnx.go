package classifier

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig describes how to load the exported model.
type ONNXConfig struct {
	LibraryPath string // path to libonnxruntime; empty uses the loader default
	ModelPath   string
	InputName   string // discovered from the model when empty
	OutputName  string // discovered from the model when empty
	NumClasses  int    // read from the output shape when <= 0
	PoolSize    int    // concurrent sessions; defaults to 1
}

// onnxSession owns its tensors, so one session serves one request at a time.
type onnxSession struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func (s *onnxSession) destroy() {
	if s.session != nil {
		_ = s.session.Destroy()
	}
	if s.input != nil {
		_ = s.input.Destroy()
	}
	if s.output != nil {
		_ = s.output.Destroy()
	}
}

// ONNXEngine runs the model through ONNX Runtime with a fixed pool of sessions.
type ONNXEngine struct {
	pool       chan *onnxSession
	size       int // sessions created
	numClasses int
}

// NewONNXEngine initialises the runtime and builds cfg.PoolSize sessions.
// Any failure is reported as ErrModelUnavailable.
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 1
	}

	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnxruntime: %v", ErrModelUnavailable, err)
		}
	}

	if err := resolveModelIO(&cfg); err != nil {
		_ = ort.DestroyEnvironment()
		return nil, err
	}

	e := &ONNXEngine{
		pool:       make(chan *onnxSession, cfg.PoolSize),
		numClasses: cfg.NumClasses,
	}
	for i := 0; i < cfg.PoolSize; i++ {
		s, err := newSession(cfg)
		if err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("%w: session %d: %v", ErrModelUnavailable, i, err)
		}
		e.pool <- s
		e.size++
	}

	logrus.WithFields(logrus.Fields{
		"model":       cfg.ModelPath,
		"input":       cfg.InputName,
		"output":      cfg.OutputName,
		"num_classes": cfg.NumClasses,
		"sessions":    cfg.PoolSize,
	}).Info("ONNX model loaded")
	return e, nil
}

// resolveModelIO fills in tensor names and the class count from the model metadata.
func resolveModelIO(cfg *ONNXConfig) error {
	if cfg.InputName != "" && cfg.OutputName != "" && cfg.NumClasses > 0 {
		return nil
	}
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("%w: read model metadata: %v", ErrModelUnavailable, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("%w: model has no inputs or outputs", ErrModelUnavailable)
	}
	if cfg.InputName == "" {
		cfg.InputName = inputs[0].Name
	}
	if cfg.OutputName == "" {
		cfg.OutputName = outputs[0].Name
	}
	if cfg.NumClasses <= 0 {
		dims := outputs[0].Dimensions
		if len(dims) == 0 || dims[len(dims)-1] <= 0 {
			return fmt.Errorf("%w: cannot infer class count from output shape %v", ErrModelUnavailable, dims)
		}
		cfg.NumClasses = int(dims[len(dims)-1])
	}
	return nil
}

func newSession(cfg ONNXConfig) (*onnxSession, error) {
	s := &onnxSession{}
	var err error

	s.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, channels, InputSize, InputSize))
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	s.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.NumClasses)))
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	s.session, err = ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.Value{s.input}, []ort.Value{s.output}, nil)
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// Infer borrows a session from the pool for the duration of one forward pass.
func (e *ONNXEngine) Infer(input []float32) ([]float32, error) {
	s, ok := <-e.pool
	if !ok {
		return nil, errors.New("onnx engine closed")
	}
	defer func() { e.pool <- s }()

	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, err
	}
	logits := make([]float32, e.numClasses)
	copy(logits, s.output.GetData())
	return logits, nil
}

// NumClasses is the length of the model output.
func (e *ONNXEngine) NumClasses() int { return e.numClasses }

// Close waits for in-flight passes, releases every session and the runtime.
func (e *ONNXEngine) Close() error {
	for i := 0; i < e.size; i++ {
		s := <-e.pool
		s.destroy()
	}
	close(e.pool)
	return ort.DestroyEnvironment()
}
