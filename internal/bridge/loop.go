package bridge

import (
	"strings"

	"github.com/rs/zerolog"

	"genaibridge/internal/engine"
)

type loopResult struct {
	text    string
	tokens  int
	skipped int
	// err is set when next-token generation failed; text holds what came before.
	err error
}

// generate drives the generator to completion, decoding each new token of
// sequence 0 and appending it. A decode failure drops that fragment only.
func generate(gen engine.Generator, stream engine.TokenStream, onFragment func(string), log zerolog.Logger) loopResult {
	var (
		sb  strings.Builder
		res loopResult
	)
	for !gen.IsDone() {
		if err := gen.GenerateNextToken(); err != nil {
			res.err = &StepError{Step: CtxGenerateNext, Err: err}
			log.Warn().Err(err).Int("tokens", res.tokens).Msg("generation stopped early")
			break
		}
		res.tokens++
		tok := gen.LastToken(0)
		frag, err := stream.Decode(tok)
		if err != nil {
			res.skipped++
			log.Debug().Err(err).Int32("token", tok).Msg(CtxDecode)
			continue
		}
		if frag == "" {
			continue
		}
		sb.WriteString(frag)
		if onFragment != nil {
			onFragment(frag)
		}
	}
	res.text = sb.String()
	return res
}
