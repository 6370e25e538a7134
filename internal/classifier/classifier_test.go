package classifier

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

type fakeEngine struct {
	logits []float32
	err    error

	mu    sync.Mutex
	calls int
	last  []float32
}

func (f *fakeEngine) Infer(input []float32) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = input
	if f.err != nil {
		return nil, f.err
	}
	return f.logits, nil
}

func (f *fakeEngine) NumClasses() int { return len(f.logits) }
func (f *fakeEngine) Close() error    { return nil }

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func logitsPeakingAt(n, peak int) []float32 {
	out := make([]float32, n)
	out[peak] = 5
	return out
}

func TestPredict_ArgmaxAndConfidence(t *testing.T) {
	engine := &fakeEngine{logits: logitsPeakingAt(39, 17)}
	c, err := New(engine)
	require.NoError(t, err)

	pred, err := c.Predict(solidPNG(t, 64, 48, color.RGBA{R: 10, G: 200, B: 30, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, 17, pred.ClassIndex)
	assert.GreaterOrEqual(t, pred.Confidence, 0.0)
	assert.LessOrEqual(t, pred.Confidence, 100.0)
	// e^5 / (e^5 + 38) = 0.79615... -> 79.62
	assert.InDelta(t, 79.62, pred.Confidence, 1e-9)
	assert.Equal(t, 1, engine.calls)
}

func TestPredict_UniformLogits(t *testing.T) {
	c, err := New(&fakeEngine{logits: make([]float32, 4)})
	require.NoError(t, err)

	pred, err := c.Predict(solidPNG(t, 8, 8, color.White))
	require.NoError(t, err)
	assert.Equal(t, 0, pred.ClassIndex, "ties resolve to the first index")
	assert.Equal(t, 25.0, pred.Confidence)
}

func TestPredict_LargeLogitsStayFinite(t *testing.T) {
	logits := []float32{1000, 999, -1000}
	c, err := New(&fakeEngine{logits: logits})
	require.NoError(t, err)

	pred, err := c.Predict(solidPNG(t, 8, 8, color.Black))
	require.NoError(t, err)
	assert.Equal(t, 0, pred.ClassIndex)
	assert.InDelta(t, 73.11, pred.Confidence, 1e-9)
}

func TestPredict_DecodeError(t *testing.T) {
	engine := &fakeEngine{logits: logitsPeakingAt(39, 0)}
	c, err := New(engine)
	require.NoError(t, err)

	_, err = c.Predict([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Zero(t, engine.calls, "engine must not run on undecodable input")

	_, err = c.Predict(nil)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestPredict_EngineFailure(t *testing.T) {
	c, err := New(&fakeEngine{logits: make([]float32, 39), err: errors.New("boom")})
	require.NoError(t, err)

	_, err = c.Predict(solidPNG(t, 8, 8, color.White))
	assert.True(t, errors.Is(err, ErrInference))
}

func TestPredict_NonFiniteLogits(t *testing.T) {
	for name, bad := range map[string]float32{
		"nan":     float32(math.NaN()),
		"pos_inf": float32(math.Inf(1)),
		"neg_inf": float32(math.Inf(-1)),
	} {
		t.Run(name, func(t *testing.T) {
			logits := logitsPeakingAt(39, 3)
			logits[7] = bad
			c, err := New(&fakeEngine{logits: logits})
			require.NoError(t, err)

			pred, err := c.Predict(solidPNG(t, 8, 8, color.White))
			assert.True(t, errors.Is(err, ErrInference))
			assert.Equal(t, Prediction{}, pred)
		})
	}
}

func TestNew_RejectsMissingEngine(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, ErrModelUnavailable))

	_, err = New(&fakeEngine{})
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestPreprocess_LayoutAndScale(t *testing.T) {
	input, err := Preprocess(solidPNG(t, 300, 120, color.RGBA{R: 255, G: 0, B: 51, A: 255}))
	require.NoError(t, err)

	const plane = InputSize * InputSize
	require.Len(t, input, 3*plane)
	// Channel-major: all red values first, then green, then blue.
	assert.InDelta(t, 1.0, input[0], 1e-6)
	assert.InDelta(t, 1.0, input[plane-1], 1e-6)
	assert.InDelta(t, 0.0, input[plane], 1e-6)
	assert.InDelta(t, 0.2, input[2*plane], 1e-6)
	for _, v := range input {
		assert.True(t, v >= 0 && v <= 1)
	}
}

func TestPreprocess_BMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))

	input, err := Preprocess(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, input, 3*InputSize*InputSize)
}

func TestPredict_Concurrent(t *testing.T) {
	c, err := New(&fakeEngine{logits: logitsPeakingAt(39, 5)})
	require.NoError(t, err)
	data := solidPNG(t, 32, 32, color.White)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pred, err := c.Predict(data)
			assert.NoError(t, err)
			assert.Equal(t, 5, pred.ClassIndex)
		}()
	}
	wg.Wait()
}
