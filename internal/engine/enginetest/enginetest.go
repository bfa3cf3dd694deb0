// Package enginetest provides a scriptable in-memory engine.Engine that
// journals every acquisition and release, so tests can assert ordering and
// leak-freedom without the native runtime.
package enginetest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"genaibridge/internal/engine"
)

// Operation names accepted by Engine.Fail.
const (
	OpCreateModel           = "CreateModel"
	OpCreateConfig          = "CreateConfig"
	OpCreateModelFromConfig = "CreateModelFromConfig"
	OpCreateTokenizer       = "CreateTokenizer"
	OpCreateProcessor       = "CreateProcessor"
	OpProcessorTokenizer    = "ProcessorTokenizer"
	OpLoadImages            = "LoadImages"
	OpCreateGeneratorParams = "CreateGeneratorParams"
	OpSetSearchNumber       = "SetSearchNumber"
	OpProcess               = "Process"
	OpEncode                = "Encode"
	OpParamsSetInputs       = "ParamsSetInputs"
	OpParamsSetSequences    = "ParamsSetInputSequences"
	OpCreateGenerator       = "CreateGenerator"
	OpGeneratorSetInputs    = "GeneratorSetInputs"
	OpAppendTokenSequences  = "AppendTokenSequences"
	OpCreateStream          = "CreateStream"
	OpClearProviders        = "ClearProviders"
	OpAppendProvider        = "AppendProvider"
	OpSetProviderOption     = "SetProviderOption"
)

// Token scripts one generation step. GenErr fails GenerateNextToken before
// the token is produced; DecodeErr fails only the decode of this token.
type Token struct {
	Text      string
	GenErr    error
	DecodeErr error
}

// ProcessCall records one Processor.Process invocation.
type ProcessCall struct {
	Prompt     string
	ImageCount int
	NilImages  bool
}

// ProviderCall records one configuration mutation.
type ProviderCall struct {
	Op    string
	Args  []string
	Error bool
}

// Engine is a fake engine.Engine. Configure the exported fields before use;
// the recorded state is safe to read concurrently through the accessors.
type Engine struct {
	// Bind selects where fused inputs must be attached. Zero is BindParams.
	Bind engine.Binding
	// Tokens is the script replayed by every generator.
	Tokens []Token
	// Fail makes the named operation return the given error.
	Fail map[string]error
	// MissingImages are paths LoadImages refuses, failing the whole batch.
	MissingImages map[string]bool

	mu        sync.Mutex
	calls     int
	journal   []string
	live      map[string]int
	search    map[string]float64
	processed []ProcessCall
	loaded    [][]string
	providers []ProviderCall
	shutdowns int
}

// New returns a fake bound at the generator, the current runtime default.
func New(tokens ...string) *Engine {
	e := &Engine{Bind: engine.BindGenerator}
	for _, t := range tokens {
		e.Tokens = append(e.Tokens, Token{Text: t})
	}
	return e
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) enter(op string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if err := e.Fail[op]; err != nil {
		return err
	}
	return nil
}

func (e *Engine) acquire(kind string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live == nil {
		e.live = map[string]int{}
	}
	e.live[kind]++
	e.journal = append(e.journal, "acquire:"+kind)
}

func (e *Engine) release(kind string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.live[kind]--
	e.journal = append(e.journal, "release:"+kind)
}

// Calls is the number of engine operations attempted so far.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Journal returns the acquire/release log in order.
func (e *Engine) Journal() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.journal...)
}

// Acquired returns only the acquire entries, without the prefix.
func (e *Engine) Acquired() []string { return e.filter("acquire:") }

// Released returns only the release entries, without the prefix.
func (e *Engine) Released() []string { return e.filter("release:") }

func (e *Engine) filter(prefix string) []string {
	var out []string
	for _, j := range e.Journal() {
		if s, ok := strings.CutPrefix(j, prefix); ok {
			out = append(out, s)
		}
	}
	return out
}

// Live reports the number of outstanding objects of each kind, omitting zeros.
func (e *Engine) Live() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := map[string]int{}
	for k, v := range e.live {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// Reset clears recorded state but keeps the configuration fields.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = 0
	e.journal = nil
	e.search = nil
	e.processed = nil
	e.loaded = nil
	e.providers = nil
}

// SearchNumbers returns the last value set for each search option.
func (e *Engine) SearchNumbers() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := map[string]float64{}
	for k, v := range e.search {
		out[k] = v
	}
	return out
}

// Processed returns every Processor.Process call.
func (e *Engine) Processed() []ProcessCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ProcessCall(nil), e.processed...)
}

// Loaded returns the path batches passed to LoadImages.
func (e *Engine) Loaded() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.loaded...)
}

// ProviderCalls returns every configuration mutation.
func (e *Engine) ProviderCalls() []ProviderCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ProviderCall(nil), e.providers...)
}

// Shutdowns is the number of times Shutdown ran.
func (e *Engine) Shutdowns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdowns
}

func (e *Engine) CreateModel(path string) (engine.Model, error) {
	if err := e.enter(OpCreateModel); err != nil {
		return nil, err
	}
	e.acquire("model")
	return &object{e: e, kind: "model"}, nil
}

func (e *Engine) CreateConfig(path string) (engine.Config, error) {
	if err := e.enter(OpCreateConfig); err != nil {
		return nil, err
	}
	e.acquire("config")
	return &config{object: object{e: e, kind: "config"}}, nil
}

func (e *Engine) CreateModelFromConfig(cfg engine.Config) (engine.Model, error) {
	if err := e.enter(OpCreateModelFromConfig); err != nil {
		return nil, err
	}
	c, ok := cfg.(*config)
	if !ok || c.destroyed {
		return nil, errors.New("enginetest: invalid config")
	}
	e.acquire("model")
	return &object{e: e, kind: "model"}, nil
}

func (e *Engine) CreateTokenizer(engine.Model) (engine.Tokenizer, error) {
	if err := e.enter(OpCreateTokenizer); err != nil {
		return nil, err
	}
	e.acquire("tokenizer")
	return &tokenizer{object: object{e: e, kind: "tokenizer"}}, nil
}

func (e *Engine) CreateProcessor(engine.Model) (engine.Processor, error) {
	if err := e.enter(OpCreateProcessor); err != nil {
		return nil, err
	}
	e.acquire("processor")
	return &processor{object: object{e: e, kind: "processor"}}, nil
}

func (e *Engine) LoadImages(paths []string) (engine.Images, error) {
	if err := e.enter(OpLoadImages); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.loaded = append(e.loaded, append([]string(nil), paths...))
	e.mu.Unlock()
	for _, p := range paths {
		if e.MissingImages[p] {
			return nil, &engine.NativeError{Msg: fmt.Sprintf("image file not found: %s", p)}
		}
	}
	e.acquire("images")
	return &images{object: object{e: e, kind: "images"}, n: len(paths)}, nil
}

func (e *Engine) CreateGeneratorParams(engine.Model) (engine.GeneratorParams, error) {
	if err := e.enter(OpCreateGeneratorParams); err != nil {
		return nil, err
	}
	e.acquire("params")
	return &params{object: object{e: e, kind: "params"}}, nil
}

func (e *Engine) CreateGenerator(engine.Model, engine.GeneratorParams) (engine.Generator, error) {
	if err := e.enter(OpCreateGenerator); err != nil {
		return nil, err
	}
	e.acquire("generator")
	return &generator{object: object{e: e, kind: "generator"}}, nil
}

func (e *Engine) Binding() engine.Binding { return e.Bind }

func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdowns++
}

func (e *Engine) Version() string { return "enginetest" }

type object struct {
	e         *Engine
	kind      string
	destroyed bool
}

func (o *object) Destroy() {
	if o.destroyed {
		panic("enginetest: double destroy of " + o.kind)
	}
	o.destroyed = true
	o.e.release(o.kind)
}

type config struct{ object }

func (c *config) record(op string, err error, args ...string) error {
	c.e.mu.Lock()
	c.e.providers = append(c.e.providers, ProviderCall{Op: op, Args: args, Error: err != nil})
	c.e.mu.Unlock()
	return err
}

func (c *config) ClearProviders() error {
	return c.record(OpClearProviders, c.e.enter(OpClearProviders))
}

func (c *config) AppendProvider(name string) error {
	return c.record(OpAppendProvider, c.e.enter(OpAppendProvider), name)
}

func (c *config) SetProviderOption(provider, key, value string) error {
	return c.record(OpSetProviderOption, c.e.enter(OpSetProviderOption), provider, key, value)
}

type tokenizer struct{ object }

func (t *tokenizer) Encode(string) (engine.Sequences, error) {
	if err := t.e.enter(OpEncode); err != nil {
		return nil, err
	}
	t.e.acquire("sequences")
	return &object{e: t.e, kind: "sequences"}, nil
}

func (t *tokenizer) CreateStream() (engine.TokenStream, error) {
	if err := t.e.enter(OpCreateStream); err != nil {
		return nil, err
	}
	t.e.acquire("stream")
	return &stream{object: object{e: t.e, kind: "stream"}}, nil
}

type processor struct{ object }

func (p *processor) CreateTokenizer() (engine.Tokenizer, error) {
	if err := p.e.enter(OpProcessorTokenizer); err != nil {
		return nil, err
	}
	p.e.acquire("tokenizer")
	return &tokenizer{object: object{e: p.e, kind: "tokenizer"}}, nil
}

func (p *processor) Process(prompt string, imgs engine.Images) (engine.NamedTensors, error) {
	if err := p.e.enter(OpProcess); err != nil {
		return nil, err
	}
	call := ProcessCall{Prompt: prompt, NilImages: imgs == nil}
	if imgs != nil {
		call.ImageCount = imgs.Count()
	}
	p.e.mu.Lock()
	p.e.processed = append(p.e.processed, call)
	p.e.mu.Unlock()
	p.e.acquire("tensors")
	return &object{e: p.e, kind: "tensors"}, nil
}

type images struct {
	object
	n int
}

func (i *images) Count() int { return i.n }

var errWrongBinding = errors.New("enginetest: input bound at the wrong point")

type params struct{ object }

func (p *params) SetSearchNumber(name string, value float64) error {
	if err := p.e.enter(OpSetSearchNumber); err != nil {
		return err
	}
	p.e.mu.Lock()
	defer p.e.mu.Unlock()
	if p.e.search == nil {
		p.e.search = map[string]float64{}
	}
	p.e.search[name] = value
	return nil
}

func (p *params) SetInputs(engine.NamedTensors) error {
	if err := p.e.enter(OpParamsSetInputs); err != nil {
		return err
	}
	if p.e.Bind != engine.BindParams {
		return errWrongBinding
	}
	return nil
}

func (p *params) SetInputSequences(engine.Sequences) error {
	if err := p.e.enter(OpParamsSetSequences); err != nil {
		return err
	}
	if p.e.Bind != engine.BindParams {
		return errWrongBinding
	}
	return nil
}

type generator struct {
	object
	next int
	dead bool
}

func (g *generator) IsDone() bool { return g.dead || g.next >= len(g.e.Tokens) }

func (g *generator) GenerateNextToken() error {
	if g.IsDone() {
		return errors.New("enginetest: generator is done")
	}
	if err := g.e.Tokens[g.next].GenErr; err != nil {
		g.dead = true
		return err
	}
	g.next++
	return nil
}

func (g *generator) LastToken(sequence int) int32 {
	if sequence != 0 {
		return -1
	}
	return int32(g.next - 1)
}

func (g *generator) SetInputs(engine.NamedTensors) error {
	if err := g.e.enter(OpGeneratorSetInputs); err != nil {
		return err
	}
	if g.e.Bind != engine.BindGenerator {
		return errWrongBinding
	}
	return nil
}

func (g *generator) AppendTokenSequences(engine.Sequences) error {
	if err := g.e.enter(OpAppendTokenSequences); err != nil {
		return err
	}
	if g.e.Bind != engine.BindGenerator {
		return errWrongBinding
	}
	return nil
}

type stream struct{ object }

func (s *stream) Decode(token int32) (string, error) {
	if token < 0 || int(token) >= len(s.e.Tokens) {
		return "", fmt.Errorf("enginetest: unknown token %d", token)
	}
	t := s.e.Tokens[token]
	if t.DecodeErr != nil {
		return "", t.DecodeErr
	}
	return t.Text, nil
}
