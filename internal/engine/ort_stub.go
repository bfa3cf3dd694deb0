//go:build !ortgenai

package engine

// This file provides a no-CGO stub for the ONNX Runtime GenAI binding. It is
// compiled when the 'ortgenai' build tag is NOT set, keeping default builds
// and CI CGO-free. The real binding lives in ort.go (tagged 'ortgenai').

// Built reports whether this binary carries the native binding.
const Built = false

const notBuilt = "onnxruntime-genai support not built (missing 'ortgenai' build tag)"

type stubEngine struct{}

// New returns the engine compiled into this binary.
func New() Engine { return stubEngine{} }

func (stubEngine) CreateModel(string) (Model, error)   { return nil, ErrUnavailable(notBuilt) }
func (stubEngine) CreateConfig(string) (Config, error) { return nil, ErrUnavailable(notBuilt) }
func (stubEngine) CreateModelFromConfig(Config) (Model, error) {
	return nil, ErrUnavailable(notBuilt)
}
func (stubEngine) CreateTokenizer(Model) (Tokenizer, error) { return nil, ErrUnavailable(notBuilt) }
func (stubEngine) CreateProcessor(Model) (Processor, error) { return nil, ErrUnavailable(notBuilt) }
func (stubEngine) LoadImages([]string) (Images, error)      { return nil, ErrUnavailable(notBuilt) }
func (stubEngine) CreateGeneratorParams(Model) (GeneratorParams, error) {
	return nil, ErrUnavailable(notBuilt)
}
func (stubEngine) CreateGenerator(Model, GeneratorParams) (Generator, error) {
	return nil, ErrUnavailable(notBuilt)
}
func (stubEngine) Binding() Binding { return BindGenerator }
func (stubEngine) Shutdown()        {}
func (stubEngine) Version() string  { return "" }
