package detections

import (
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// sessionRunner is the part of *ort.AdvancedSession the detector uses.
type sessionRunner interface {
	Run() error
	Destroy() error
}

// ModelSession is one runnable session with its tensors bound. Input and
// Output alias the tensors' memory.
type ModelSession struct {
	runner  sessionRunner
	Input   []float32
	Output  []float32
	tensors []ort.ArbitraryTensor
}

func (m *ModelSession) Run() error {
	if m.runner == nil {
		return errors.New("session not initialized")
	}
	return m.runner.Run()
}

func (m *ModelSession) Destroy() {
	if m == nil {
		return
	}
	if m.runner != nil {
		m.runner.Destroy()
	}
	for _, t := range m.tensors {
		t.Destroy()
	}
}

// sessionConfig is everything needed to open one more session on the same model.
type sessionConfig struct {
	modelPath   string
	inputName   string
	outputName  string
	inputShape  ort.Shape
	outputShape ort.Shape
	threads     int
}

func newModelSession(cfg sessionConfig) (*ModelSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(cfg.threads); err != nil {
		return nil, fmt.Errorf("error setting intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("error setting inter-op threads: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](cfg.inputShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](cfg.outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.modelPath,
		[]string{cfg.inputName},
		[]string{cfg.outputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &ModelSession{
		runner:  session,
		Input:   inputTensor.GetData(),
		Output:  outputTensor.GetData(),
		tensors: []ort.ArbitraryTensor{inputTensor, outputTensor},
	}, nil
}
