//go:build ortgenai && ortgenai_legacy

package engine

/*
#include "ort_genai_c.h"
*/
import "C"

import "errors"

// Older runtimes take fused inputs on the generator params and require an
// explicit ComputeLogits before every GenerateNextToken.
const binding = BindParams

var errGeneratorBinding = errors.New("engine: this runtime binds inputs on the params, not the generator")

func paramsSetInputs(gp *ortParams, t *ortTensors) error {
	return check(C.OgaGeneratorParamsSetInputs(gp.p, t.p))
}

func paramsSetInputSequences(gp *ortParams, s *ortSequences) error {
	return check(C.OgaGeneratorParamsSetInputSequences(gp.p, s.p))
}

func generatorSetInputs(*ortGenerator, *ortTensors) error         { return errGeneratorBinding }
func generatorAppendSequences(*ortGenerator, *ortSequences) error { return errGeneratorBinding }

func generateNext(g *ortGenerator) error {
	if err := check(C.OgaGenerator_ComputeLogits(g.p)); err != nil {
		return err
	}
	return check(C.OgaGenerator_GenerateNextToken(g.p))
}
