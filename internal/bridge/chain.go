package bridge

import (
	"errors"

	"github.com/rs/zerolog"

	"genaibridge/internal/engine"
)

// held is one entry on the ownership stack.
type held struct {
	name string
	obj  engine.Destroyer
}

// ownership records resources in acquisition order and releases them in
// exact reverse order. Each resource is released once.
type ownership struct {
	items []held
	log   zerolog.Logger
}

func (o *ownership) push(name string, d engine.Destroyer) {
	o.items = append(o.items, held{name: name, obj: d})
	o.log.Debug().Str("resource", name).Msg("acquired")
}

func (o *ownership) release() {
	for i := len(o.items) - 1; i >= 0; i-- {
		h := o.items[i]
		h.obj.Destroy()
		o.log.Debug().Str("resource", h.name).Msg("released")
	}
	o.items = nil
}

// acquire runs fn, wraps a failure in the step context, and pushes the
// result so later failures release it.
func acquire[T engine.Destroyer](o *ownership, name, step string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err != nil {
		var zero T
		return zero, &StepError{Step: step, Err: err}
	}
	if any(v) == nil {
		var zero T
		return zero, &StepError{Step: step, Err: errors.New("engine returned no " + name)}
	}
	o.push(name, v)
	return v, nil
}

// chainSpec is everything one generation call needs to build its resources.
type chainSpec struct {
	modelPath string
	config    engine.Config // set when entering from the registry; never released here
	prompt    string
	// multimodal routes the prompt through a Processor even with no images.
	multimodal bool
	images     []string
	// maxLength is the caller budget; failure to apply it is fatal.
	maxLength int
	// defaultMaxLength is applied first on the multimodal path; failure only warns.
	defaultMaxLength int
}

// chain holds the acquired resources of one call.
type chain struct {
	own       ownership
	generator engine.Generator
	stream    engine.TokenStream
}

func (c *chain) close() { c.own.release() }

// buildChain acquires, in order: model, (processor), tokenizer, (images),
// params, fused input, generator, stream. Input is bound to the params or to
// the generator depending on the engine build. On error everything already
// acquired has been released.
func buildChain(eng engine.Engine, spec chainSpec, log zerolog.Logger) (_ *chain, err error) {
	c := &chain{own: ownership{log: log}}
	defer func() {
		if err != nil {
			c.close()
		}
	}()

	var model engine.Model
	if spec.config != nil {
		model, err = acquire(&c.own, "model", CtxModel, func() (engine.Model, error) {
			return eng.CreateModelFromConfig(spec.config)
		})
	} else {
		model, err = acquire(&c.own, "model", CtxModel, func() (engine.Model, error) {
			return eng.CreateModel(spec.modelPath)
		})
	}
	if err != nil {
		return nil, err
	}

	var (
		processor engine.Processor
		tokenizer engine.Tokenizer
	)
	if spec.multimodal {
		processor, err = acquire(&c.own, "processor", CtxProcessor, func() (engine.Processor, error) {
			return eng.CreateProcessor(model)
		})
		if err != nil {
			return nil, err
		}
		tokenizer, err = acquire(&c.own, "tokenizer", CtxTokenizer, processor.CreateTokenizer)
	} else {
		tokenizer, err = acquire(&c.own, "tokenizer", CtxTokenizer, func() (engine.Tokenizer, error) {
			return eng.CreateTokenizer(model)
		})
	}
	if err != nil {
		return nil, err
	}

	var images engine.Images
	if spec.multimodal && len(spec.images) > 0 {
		images, err = acquire(&c.own, "images", CtxImages, func() (engine.Images, error) {
			return eng.LoadImages(spec.images)
		})
		if err != nil {
			return nil, err
		}
	}

	params, err := acquire(&c.own, "params", CtxParams, func() (engine.GeneratorParams, error) {
		return eng.CreateGeneratorParams(model)
	})
	if err != nil {
		return nil, err
	}
	if spec.multimodal && spec.defaultMaxLength > 0 {
		if serr := params.SetSearchNumber("max_length", float64(spec.defaultMaxLength)); serr != nil {
			log.Warn().Err(serr).Int("max_length", spec.defaultMaxLength).Msg("default max_length not applied")
		}
	}
	if spec.maxLength > 0 {
		if serr := params.SetSearchNumber("max_length", float64(spec.maxLength)); serr != nil {
			return nil, &StepError{Step: CtxMaxLength, Err: serr}
		}
	}

	bindLater, err := assembleInput(&c.own, eng.Binding(), params, processor, tokenizer, images, spec)
	if err != nil {
		return nil, err
	}

	c.generator, err = acquire(&c.own, "generator", CtxGenerator, func() (engine.Generator, error) {
		return eng.CreateGenerator(model, params)
	})
	if err != nil {
		return nil, err
	}
	if bindLater != nil {
		if err = bindLater(c.generator); err != nil {
			return nil, err
		}
	}

	c.stream, err = acquire(&c.own, "stream", CtxStream, tokenizer.CreateStream)
	if err != nil {
		return nil, err
	}
	return c, nil
}
