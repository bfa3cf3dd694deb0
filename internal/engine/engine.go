// Package engine defines the capability contract the bridge consumes from the
// native generative-model runtime, plus the ONNX Runtime GenAI binding.
//
// Build tags:
//
//   - default: CGO-free stub. Every constructor fails with ErrUnavailable so
//     binaries built without the native library never pretend to run a model.
//   - ortgenai: cgo binding against libonnxruntime-genai built from the
//     upstream ort_genai_c.h of v0.6.0 or later. Fused inputs are bound to
//     the generator after it is created (OgaGenerator_SetInputs,
//     OgaGenerator_AppendTokenSequences).
//   - ortgenai,ortgenai_legacy: the v0.5.x header, where inputs are bound to
//     the generator parameters (OgaGeneratorParamsSetInputs,
//     OgaGeneratorParamsSetInputSequences) and OgaGenerator_ComputeLogits
//     runs before every OgaGenerator_GenerateNextToken.
//
// Both tags use only calls present in both header versions for everything
// else: OgaConfig*, OgaCreateModelFromConfig, OgaStringArray +
// OgaLoadImages, OgaProcessorProcessImages, OgaCreateSequences +
// OgaTokenizerEncode, and OgaGenerator_GetSequenceCount/GetSequenceData for
// the last token. Place the matching header and library under bin/ (see
// ort_cgo.go) or point CGO_CFLAGS/CGO_LDFLAGS at them.
//
// Every object returned by an Engine is owned by the caller and must be
// released exactly once with Destroy.
package engine

// Binding reports where a fused input (named tensors or token sequences)
// must be attached for the engine build in use.
type Binding int

const (
	// BindParams attaches inputs to GeneratorParams before the generator exists.
	BindParams Binding = iota
	// BindGenerator attaches inputs to the Generator right after creation.
	BindGenerator
)

func (b Binding) String() string {
	switch b {
	case BindParams:
		return "params"
	case BindGenerator:
		return "generator"
	default:
		return "unknown"
	}
}

// Engine is the fixed capability interface over the native runtime.
type Engine interface {
	CreateModel(path string) (Model, error)
	CreateConfig(path string) (Config, error)
	CreateModelFromConfig(cfg Config) (Model, error)
	CreateTokenizer(m Model) (Tokenizer, error)
	CreateProcessor(m Model) (Processor, error)
	// LoadImages loads every path or none of them.
	LoadImages(paths []string) (Images, error)
	CreateGeneratorParams(m Model) (GeneratorParams, error)
	CreateGenerator(m Model, p GeneratorParams) (Generator, error)

	// Binding is fixed for the lifetime of the process.
	Binding() Binding
	// Shutdown frees global runtime state. Callers guarantee it runs once.
	Shutdown()
	// Version of the native runtime binding, empty when unknown.
	Version() string
}

// Destroyer is implemented by every native object.
type Destroyer interface {
	Destroy()
}

type Model interface {
	Destroyer
}

// Config describes execution providers and their options. It outlives the
// models built from it.
type Config interface {
	Destroyer
	ClearProviders() error
	AppendProvider(name string) error
	SetProviderOption(provider, key, value string) error
}

type Tokenizer interface {
	Destroyer
	Encode(text string) (Sequences, error)
	CreateStream() (TokenStream, error)
}

// Processor fuses a prompt and zero or more images into named tensors.
type Processor interface {
	Destroyer
	CreateTokenizer() (Tokenizer, error)
	// Process accepts a nil Images for text-only prompts.
	Process(prompt string, images Images) (NamedTensors, error)
}

type Images interface {
	Destroyer
	Count() int
}

type NamedTensors interface {
	Destroyer
}

type Sequences interface {
	Destroyer
}

type GeneratorParams interface {
	Destroyer
	SetSearchNumber(name string, value float64) error
	// SetInputs and SetInputSequences are only valid when Binding is BindParams.
	SetInputs(t NamedTensors) error
	SetInputSequences(s Sequences) error
}

type Generator interface {
	Destroyer
	IsDone() bool
	GenerateNextToken() error
	// LastToken returns the newest token id of the given sequence.
	LastToken(sequence int) int32
	// SetInputs and AppendTokenSequences are only valid when Binding is BindGenerator.
	SetInputs(t NamedTensors) error
	AppendTokenSequences(s Sequences) error
}

// TokenStream decodes one token at a time, buffering partial UTF-8 sequences.
type TokenStream interface {
	Destroyer
	Decode(token int32) (string, error)
}
