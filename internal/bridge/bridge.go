package bridge

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"genaibridge/internal/engine"
)

// Version of the bridge call surface.
const Version = "0.1.0"

// DefaultMultimodalMaxLength bounds multimodal generation when the caller
// gives no budget.
const DefaultMultimodalMaxLength = 2048

// Health check return codes.
const (
	HealthOK              = 1
	HealthBadInput        = -1
	HealthModelFailed     = -2
	HealthTokenizerFailed = -3
)

// Status codes returned by configuration mutations.
const (
	StatusOK            = 1
	StatusInvalidInput  = -1
	StatusUnknownHandle = -2
	StatusEngineFailure = -3
)

// Options configures a Bridge. Zero values select defaults.
type Options struct {
	Engine engine.Engine
	Logger *zerolog.Logger
	// MultimodalMaxLength is pre-set on multimodal calls without a caller
	// budget. Zero selects DefaultMultimodalMaxLength; negative disables it.
	MultimodalMaxLength int
	Publisher           EventPublisher
}

// Bridge runs synchronous inference calls against one engine. All methods
// are safe for concurrent use as long as each thread passes its own Session.
type Bridge struct {
	eng   engine.Engine
	log   zerolog.Logger
	mmMax int
	pub   EventPublisher
	reg   *Registry
	life  lifecycle
}

// New constructs a Bridge. A nil Engine selects the engine compiled into the
// binary.
func New(opts Options) *Bridge {
	b := &Bridge{
		eng:   opts.Engine,
		log:   zerolog.Nop(),
		mmMax: opts.MultimodalMaxLength,
		pub:   opts.Publisher,
		reg:   NewRegistry(),
	}
	if b.eng == nil {
		b.eng = engine.New()
	}
	if opts.Logger != nil {
		b.log = *opts.Logger
	}
	if b.mmMax == 0 {
		b.mmMax = DefaultMultimodalMaxLength
	}
	if b.pub == nil {
		b.pub = noopPublisher{}
	}
	return b
}

// Registry exposes the configuration handle table.
func (b *Bridge) Registry() *Registry { return b.reg }

// Request describes one generation call.
type Request struct {
	// ModelPath is ignored when Config is set.
	ModelPath string
	Config    Handle
	Prompt    string
	// Multimodal routes the prompt through the processor. It is implied by
	// any image.
	Multimodal bool
	Images     []string
	// MaxLength <= 0 keeps the model default.
	MaxLength int
	// OnFragment, when set, receives each decoded fragment as it is produced.
	OnFragment func(string)
}

// Result of a generation call that got as far as the loop.
type Result struct {
	Text          string
	Tokens        int
	DecodeSkipped int
	// Err is set when generation stopped early; Text holds the fragments
	// decoded before the failure.
	Err error
}

func (b *Bridge) sessionLog(s *Session, op string) zerolog.Logger {
	return b.log.With().Str("session", s.ID).Str("op", op).Logger()
}

func unavailable(err error) error { return &StepError{Step: CtxUnavailable, Err: err} }

// Generate runs one call end to end and records the outcome in s. The
// returned error covers everything before the loop; loop failures are
// reported in Result.Err.
func (b *Bridge) Generate(s *Session, req Request) (res Result, err error) {
	start := time.Now()
	log := b.sessionLog(s, opGenerate)
	defer func() {
		oerr := err
		if oerr == nil {
			oerr = res.Err
		}
		observe(opGenerate, start, oerr)
	}()

	spec, err := b.prepare(req)
	if err != nil {
		s.Fail(err)
		b.publishFailure(s, err)
		return Result{}, err
	}
	if err := b.life.enter(); err != nil {
		err = unavailable(err)
		s.Fail(err)
		return Result{}, err
	}
	if req.Config != 0 {
		cfg, err := b.reg.Lookup(req.Config)
		if err != nil {
			s.Fail(err)
			b.publishFailure(s, err)
			return Result{}, err
		}
		spec.config = cfg
	}

	c, err := buildChain(b.eng, spec, log)
	if err != nil {
		log.Debug().Err(err).Msg("acquisition failed")
		s.Fail(err)
		b.publishFailure(s, err)
		return Result{}, err
	}
	defer c.close()

	lr := generate(c.generator, c.stream, req.OnFragment, log)
	tokensTotal.Add(float64(lr.tokens))
	decodeSkippedTotal.Add(float64(lr.skipped))
	res = Result{Text: lr.text, Tokens: lr.tokens, DecodeSkipped: lr.skipped, Err: lr.err}
	s.SetResult(res.Text)
	if res.Err != nil {
		s.Fail(res.Err)
	}
	b.pub.Publish(Event{Name: EventGenerateDone, Session: s.ID, Fields: map[string]any{
		"tokens": res.Tokens, "decode_skipped": res.DecodeSkipped, "stopped_early": res.Err != nil,
	}})
	return res, nil
}

// prepare validates a request without touching the engine.
func (b *Bridge) prepare(req Request) (chainSpec, error) {
	spec := chainSpec{
		modelPath:  req.ModelPath,
		prompt:     req.Prompt,
		multimodal: req.Multimodal || len(req.Images) > 0,
		maxLength:  req.MaxLength,
	}
	if req.Config == 0 && strings.TrimSpace(req.ModelPath) == "" {
		return spec, errInput("null or empty model path")
	}
	if req.Prompt == "" {
		return spec, errInput("null or empty prompt")
	}
	imgs, err := normalizeImages(req.Images)
	if err != nil {
		return spec, err
	}
	spec.images = imgs
	if spec.multimodal && b.mmMax > 0 {
		spec.defaultMaxLength = b.mmMax
	}
	return spec, nil
}

func (b *Bridge) publishFailure(s *Session, err error) {
	b.pub.Publish(Event{Name: EventGenerateFailed, Session: s.ID, Fields: map[string]any{"error": err.Error()}})
}

// text returns what a string-returning entry point hands back: the
// generated (possibly partial) text, or the recorded error.
func (b *Bridge) text(s *Session, req Request) string {
	res, err := b.Generate(s, req)
	if err != nil {
		return s.LastError()
	}
	return res.Text
}

// GenerateText runs the text-only path. maxLength <= 0 keeps the model default.
func (b *Bridge) GenerateText(s *Session, modelPath, prompt string, maxLength int) string {
	return b.text(s, Request{ModelPath: modelPath, Prompt: prompt, MaxLength: maxLength})
}

// GenerateMultimodal runs the processor path with zero, one or many images.
// The prompt is expected to carry one placeholder per image, in order.
func (b *Bridge) GenerateMultimodal(s *Session, modelPath, prompt string, images []string) string {
	return b.text(s, Request{ModelPath: modelPath, Prompt: prompt, Multimodal: true, Images: images})
}

// GenerateWithConfig runs the processor path on a model built from a
// registered configuration.
func (b *Bridge) GenerateWithConfig(s *Session, h Handle, prompt string, images []string) string {
	if h == 0 {
		err := &HandleError{Handle: h, Reason: "null handle"}
		observe(opGenerate, time.Now(), err)
		return s.Fail(err)
	}
	return b.text(s, Request{Config: h, Prompt: prompt, Multimodal: true, Images: images})
}

// Health loads the model and its tokenizer and releases both.
func (b *Bridge) Health(s *Session, modelPath string) (code int) {
	start := time.Now()
	var err error
	defer func() { observe(opHealth, start, err) }()

	if strings.TrimSpace(modelPath) == "" {
		err = errInput("null or empty model path")
		s.Fail(err)
		return HealthBadInput
	}
	if err = b.life.enter(); err != nil {
		err = unavailable(err)
		s.Fail(err)
		return HealthModelFailed
	}
	own := ownership{log: b.sessionLog(s, opHealth)}
	defer own.release()

	var model engine.Model
	model, err = acquire(&own, "model", CtxModel, func() (engine.Model, error) {
		return b.eng.CreateModel(modelPath)
	})
	if err != nil {
		s.Fail(err)
		return HealthModelFailed
	}
	_, err = acquire(&own, "tokenizer", CtxTokenizer, func() (engine.Tokenizer, error) {
		return b.eng.CreateTokenizer(model)
	})
	if err != nil {
		s.Fail(err)
		return HealthTokenizerFailed
	}
	return HealthOK
}

// CreateConfig builds a configuration from a model directory and registers
// it. It returns 0 on failure.
func (b *Bridge) CreateConfig(s *Session, modelPath string) (h Handle) {
	start := time.Now()
	var err error
	defer func() { observe(opCreateConfig, start, err) }()

	if strings.TrimSpace(modelPath) == "" {
		err = errInput("null or empty model path")
		s.Fail(err)
		return 0
	}
	if err = b.life.enter(); err != nil {
		err = unavailable(err)
		s.Fail(err)
		return 0
	}
	cfg, cerr := b.eng.CreateConfig(modelPath)
	if cerr == nil && cfg == nil {
		cerr = errors.New("engine returned no config")
	}
	if cerr != nil {
		err = &StepError{Step: CtxConfig, Err: cerr}
		s.Fail(err)
		return 0
	}
	h = b.reg.Insert(cfg)
	configsLive.Set(float64(b.reg.Len()))
	b.log.Debug().Str("session", s.ID).Stringer("handle", h).Msg("config created")
	b.pub.Publish(Event{Name: EventConfigCreated, Session: s.ID, Fields: map[string]any{"handle": uint64(h)}})
	return h
}

// DestroyConfig releases a registered configuration. Zero is a no-op.
func (b *Bridge) DestroyConfig(s *Session, h Handle) {
	start := time.Now()
	var err error
	defer func() { observe(opDestroyConfig, start, err) }()

	if h == 0 {
		b.log.Debug().Str("session", s.ID).Msg("destroy of null config handle ignored")
		return
	}
	var cfg engine.Config
	cfg, err = b.reg.Remove(h)
	if err != nil {
		b.log.Warn().Str("session", s.ID).Err(err).Msg("destroy config")
		s.Fail(err)
		return
	}
	cfg.Destroy()
	configsLive.Set(float64(b.reg.Len()))
	b.pub.Publish(Event{Name: EventConfigDestroyed, Session: s.ID, Fields: map[string]any{"handle": uint64(h)}})
}

// ClearProviders removes every execution provider from the configuration.
func (b *Bridge) ClearProviders(s *Session, h Handle) int {
	return b.mutate(s, h, CtxClearProviders, nil, func(c engine.Config) error {
		return c.ClearProviders()
	})
}

// AppendProvider appends an execution provider by name.
func (b *Bridge) AppendProvider(s *Session, h Handle, name string) int {
	var bad error
	if strings.TrimSpace(name) == "" {
		bad = errInput("empty provider name")
	}
	return b.mutate(s, h, CtxAppendProvider, bad, func(c engine.Config) error {
		return c.AppendProvider(name)
	})
}

// SetProviderOption sets one key/value option on a provider.
func (b *Bridge) SetProviderOption(s *Session, h Handle, provider, key, value string) int {
	var bad error
	switch {
	case strings.TrimSpace(provider) == "":
		bad = errInput("empty provider name")
	case strings.TrimSpace(key) == "":
		bad = errInput("empty option key")
	}
	return b.mutate(s, h, CtxProviderOption, bad, func(c engine.Config) error {
		return c.SetProviderOption(provider, key, value)
	})
}

func (b *Bridge) mutate(s *Session, h Handle, step string, bad error, fn func(engine.Config) error) (code int) {
	start := time.Now()
	var err error
	defer func() { observe(opProviders, start, err) }()

	if bad != nil {
		err = bad
		s.Fail(err)
		return StatusInvalidInput
	}
	if b.life.isClosed() {
		err = unavailable(ErrShutdown)
		s.Fail(err)
		return StatusEngineFailure
	}
	cfg, err := b.reg.Lookup(h)
	if err != nil {
		s.Fail(err)
		return StatusUnknownHandle
	}
	if ferr := fn(cfg); ferr != nil {
		err = &StepError{Step: step, Err: ferr}
		s.Fail(err)
		return StatusEngineFailure
	}
	return StatusOK
}

// LastError returns the session's last recorded error, or "".
func (b *Bridge) LastError(s *Session) string { return s.LastError() }

// Version returns the bridge version.
func (b *Bridge) Version() string { return Version }

// EngineVersion describes the compiled engine binding, empty for the stub.
func (b *Bridge) EngineVersion() string { return b.eng.Version() }

// Shutdown releases every registered configuration and frees the engine's
// global state. It is idempotent; later calls fail with ErrShutdown.
func (b *Bridge) Shutdown() {
	ran := b.life.shutdown(func() {
		cfgs := b.reg.Drain()
		for _, c := range cfgs {
			c.Destroy()
		}
		configsLive.Set(0)
		if len(cfgs) > 0 {
			b.log.Info().Int("configs", len(cfgs)).Msg("released live configurations")
		}
		b.eng.Shutdown()
	})
	if ran {
		b.log.Info().Msg("engine shut down")
		b.pub.Publish(Event{Name: EventShutdown})
	}
}
