package bridge

import (
	"strings"

	"genaibridge/internal/engine"
)

// normalizeImages turns the caller's image arguments into one list. Nil and
// empty both mean "no images"; blank entries are rejected so a partial batch
// never reaches the engine.
func normalizeImages(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			return nil, errInput("empty image path at index %d", i)
		}
		out[i] = p
	}
	return out, nil
}

// assembleInput fuses the prompt into generator input. On the multimodal
// path the processor always runs, with nil images when none were given; on
// the text path the tokenizer encodes the prompt. When the engine binds at
// the generator, the returned func must be applied right after the
// generator is created.
func assembleInput(
	own *ownership,
	bind engine.Binding,
	params engine.GeneratorParams,
	processor engine.Processor,
	tokenizer engine.Tokenizer,
	images engine.Images,
	spec chainSpec,
) (func(engine.Generator) error, error) {
	if spec.multimodal {
		tensors, err := acquire(own, "tensors", CtxProcess, func() (engine.NamedTensors, error) {
			return processor.Process(spec.prompt, images)
		})
		if err != nil {
			return nil, err
		}
		if bind == engine.BindParams {
			if err := params.SetInputs(tensors); err != nil {
				return nil, &StepError{Step: CtxSetTensors, Err: err}
			}
			return nil, nil
		}
		return func(g engine.Generator) error {
			if err := g.SetInputs(tensors); err != nil {
				return &StepError{Step: CtxSetTensors, Err: err}
			}
			return nil
		}, nil
	}

	seqs, err := acquire(own, "sequences", CtxTokenize, func() (engine.Sequences, error) {
		return tokenizer.Encode(spec.prompt)
	})
	if err != nil {
		return nil, err
	}
	if bind == engine.BindParams {
		if err := params.SetInputSequences(seqs); err != nil {
			return nil, &StepError{Step: CtxSetSequences, Err: err}
		}
		return nil, nil
	}
	return func(g engine.Generator) error {
		if err := g.AppendTokenSequences(seqs); err != nil {
			return &StepError{Step: CtxSetSequences, Err: err}
		}
		return nil
	}, nil
}
