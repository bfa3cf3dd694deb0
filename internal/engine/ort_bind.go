//go:build ortgenai && !ortgenai_legacy

package engine

/*
#include "ort_genai_c.h"
*/
import "C"

import "errors"

// Current runtimes take fused inputs on the generator and fold logit
// computation into GenerateNextToken.
const binding = BindGenerator

var errParamsBinding = errors.New("engine: this runtime binds inputs on the generator, not the params")

func paramsSetInputs(*ortParams, *ortTensors) error           { return errParamsBinding }
func paramsSetInputSequences(*ortParams, *ortSequences) error { return errParamsBinding }

func generatorSetInputs(g *ortGenerator, t *ortTensors) error {
	return check(C.OgaGenerator_SetInputs(g.p, t.p))
}

func generatorAppendSequences(g *ortGenerator, s *ortSequences) error {
	return check(C.OgaGenerator_AppendTokenSequences(g.p, s.p))
}

func generateNext(g *ortGenerator) error {
	return check(C.OgaGenerator_GenerateNextToken(g.p))
}
