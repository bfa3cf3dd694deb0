//go:build ortgenai

package engine

/*
#include <stdlib.h>
#include "ort_genai_c.h"

// OgaGenerator_IsDone is declared bool in current headers and int in some
// older ones; normalize to int here so Go sees one type.
static inline int oga_is_done(const OgaGenerator* g) {
	return OgaGenerator_IsDone(g) ? 1 : 0;
}

// oga_last_token reads the newest token of one sequence, or -1 when the
// sequence is empty.
static inline int32_t oga_last_token(const OgaGenerator* g, size_t seq) {
	size_t n = OgaGenerator_GetSequenceCount(g, seq);
	if (n == 0) {
		return -1;
	}
	const int32_t* data = OgaGenerator_GetSequenceData(g, seq);
	return data == NULL ? -1 : data[n - 1];
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Built reports whether this binary carries the native binding.
const Built = true

type ortEngine struct{}

// New returns the engine compiled into this binary.
func New() Engine { return ortEngine{} }

// check converts an OgaResult into a Go error and always frees the result.
func check(r *C.OgaResult) error {
	if r == nil {
		return nil
	}
	defer C.OgaDestroyResult(r)
	msg := C.OgaResultGetError(r)
	if msg == nil {
		return nil
	}
	return &NativeError{Msg: C.GoString(msg)}
}

func errWrongType(want string, got any) error {
	return fmt.Errorf("engine: expected %s, got %T", want, got)
}

func (ortEngine) CreateModel(path string) (Model, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	var p *C.OgaModel
	if err := check(C.OgaCreateModel(cpath, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no model"}
	}
	return &ortModel{p: p}, nil
}

func (ortEngine) CreateConfig(path string) (Config, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	var p *C.OgaConfig
	if err := check(C.OgaCreateConfig(cpath, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no config"}
	}
	return &ortConfig{p: p}, nil
}

func (ortEngine) CreateModelFromConfig(cfg Config) (Model, error) {
	c, ok := cfg.(*ortConfig)
	if !ok {
		return nil, errWrongType("*ortConfig", cfg)
	}
	var p *C.OgaModel
	if err := check(C.OgaCreateModelFromConfig(c.p, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no model"}
	}
	return &ortModel{p: p}, nil
}

func (ortEngine) CreateTokenizer(m Model) (Tokenizer, error) {
	om, ok := m.(*ortModel)
	if !ok {
		return nil, errWrongType("*ortModel", m)
	}
	var p *C.OgaTokenizer
	if err := check(C.OgaCreateTokenizer(om.p, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no tokenizer"}
	}
	return &ortTokenizer{p: p}, nil
}

func (ortEngine) CreateProcessor(m Model) (Processor, error) {
	om, ok := m.(*ortModel)
	if !ok {
		return nil, errWrongType("*ortModel", m)
	}
	var p *C.OgaMultiModalProcessor
	if err := check(C.OgaCreateMultiModalProcessor(om.p, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no processor"}
	}
	return &ortProcessor{p: p, model: om.p}, nil
}

func (ortEngine) LoadImages(paths []string) (Images, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("engine: no image paths")
	}
	var arr *C.OgaStringArray
	if err := check(C.OgaCreateStringArray(&arr)); err != nil {
		return nil, err
	}
	defer C.OgaDestroyStringArray(arr)
	for _, path := range paths {
		cp := C.CString(path)
		err := check(C.OgaStringArrayAddString(arr, cp))
		C.free(unsafe.Pointer(cp))
		if err != nil {
			return nil, err
		}
	}
	var p *C.OgaImages
	if err := check(C.OgaLoadImages(arr, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no images"}
	}
	return &ortImages{p: p, n: len(paths)}, nil
}

func (ortEngine) CreateGeneratorParams(m Model) (GeneratorParams, error) {
	om, ok := m.(*ortModel)
	if !ok {
		return nil, errWrongType("*ortModel", m)
	}
	var p *C.OgaGeneratorParams
	if err := check(C.OgaCreateGeneratorParams(om.p, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no generator params"}
	}
	return &ortParams{p: p}, nil
}

func (ortEngine) CreateGenerator(m Model, gp GeneratorParams) (Generator, error) {
	om, ok := m.(*ortModel)
	if !ok {
		return nil, errWrongType("*ortModel", m)
	}
	op, ok := gp.(*ortParams)
	if !ok {
		return nil, errWrongType("*ortParams", gp)
	}
	var p *C.OgaGenerator
	if err := check(C.OgaCreateGenerator(om.p, op.p, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no generator"}
	}
	return &ortGenerator{p: p}, nil
}

func (ortEngine) Binding() Binding { return binding }

func (ortEngine) Shutdown() { C.OgaShutdown() }

func (ortEngine) Version() string { return "onnxruntime-genai (" + binding.String() + " binding)" }

type ortModel struct{ p *C.OgaModel }

func (m *ortModel) Destroy() {
	if m.p != nil {
		C.OgaDestroyModel(m.p)
		m.p = nil
	}
}

type ortConfig struct{ p *C.OgaConfig }

func (c *ortConfig) Destroy() {
	if c.p != nil {
		C.OgaDestroyConfig(c.p)
		c.p = nil
	}
}

func (c *ortConfig) ClearProviders() error {
	return check(C.OgaConfigClearProviders(c.p))
}

func (c *ortConfig) AppendProvider(name string) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return check(C.OgaConfigAppendProvider(c.p, cname))
}

func (c *ortConfig) SetProviderOption(provider, key, value string) error {
	cp, ck, cv := C.CString(provider), C.CString(key), C.CString(value)
	defer C.free(unsafe.Pointer(cp))
	defer C.free(unsafe.Pointer(ck))
	defer C.free(unsafe.Pointer(cv))
	return check(C.OgaConfigSetProviderOption(c.p, cp, ck, cv))
}

type ortTokenizer struct{ p *C.OgaTokenizer }

func (t *ortTokenizer) Destroy() {
	if t.p != nil {
		C.OgaDestroyTokenizer(t.p)
		t.p = nil
	}
}

func (t *ortTokenizer) Encode(text string) (Sequences, error) {
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	var p *C.OgaSequences
	if err := check(C.OgaCreateSequences(&p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no sequences"}
	}
	if err := check(C.OgaTokenizerEncode(t.p, ctext, p)); err != nil {
		C.OgaDestroySequences(p)
		return nil, err
	}
	return &ortSequences{p: p}, nil
}

func (t *ortTokenizer) CreateStream() (TokenStream, error) {
	var p *C.OgaTokenizerStream
	if err := check(C.OgaCreateTokenizerStream(t.p, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no tokenizer stream"}
	}
	return &ortStream{p: p}, nil
}

// ortProcessor keeps the model it was built from; the model outlives it in
// every chain.
type ortProcessor struct {
	p     *C.OgaMultiModalProcessor
	model *C.OgaModel
}

func (pr *ortProcessor) Destroy() {
	if pr.p != nil {
		C.OgaDestroyMultiModalProcessor(pr.p)
		pr.p = nil
	}
}

func (pr *ortProcessor) CreateTokenizer() (Tokenizer, error) {
	var p *C.OgaTokenizer
	if err := check(C.OgaCreateTokenizer(pr.model, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no tokenizer"}
	}
	return &ortTokenizer{p: p}, nil
}

func (pr *ortProcessor) Process(prompt string, images Images) (NamedTensors, error) {
	var imgs *C.OgaImages
	if images != nil {
		oi, ok := images.(*ortImages)
		if !ok {
			return nil, errWrongType("*ortImages", images)
		}
		imgs = oi.p
	}
	cprompt := C.CString(prompt)
	defer C.free(unsafe.Pointer(cprompt))
	var p *C.OgaNamedTensors
	if err := check(C.OgaProcessorProcessImages(pr.p, cprompt, imgs, &p)); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NativeError{Msg: "runtime returned no named tensors"}
	}
	return &ortTensors{p: p}, nil
}

type ortImages struct {
	p *C.OgaImages
	n int
}

func (i *ortImages) Count() int { return i.n }

func (i *ortImages) Destroy() {
	if i.p != nil {
		C.OgaDestroyImages(i.p)
		i.p = nil
	}
}

type ortTensors struct{ p *C.OgaNamedTensors }

func (t *ortTensors) Destroy() {
	if t.p != nil {
		C.OgaDestroyNamedTensors(t.p)
		t.p = nil
	}
}

type ortSequences struct{ p *C.OgaSequences }

func (s *ortSequences) Destroy() {
	if s.p != nil {
		C.OgaDestroySequences(s.p)
		s.p = nil
	}
}

type ortParams struct{ p *C.OgaGeneratorParams }

func (gp *ortParams) Destroy() {
	if gp.p != nil {
		C.OgaDestroyGeneratorParams(gp.p)
		gp.p = nil
	}
}

func (gp *ortParams) SetSearchNumber(name string, value float64) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return check(C.OgaGeneratorParamsSetSearchNumber(gp.p, cname, C.double(value)))
}

func (gp *ortParams) SetInputs(t NamedTensors) error {
	ot, ok := t.(*ortTensors)
	if !ok {
		return errWrongType("*ortTensors", t)
	}
	return paramsSetInputs(gp, ot)
}

func (gp *ortParams) SetInputSequences(s Sequences) error {
	os, ok := s.(*ortSequences)
	if !ok {
		return errWrongType("*ortSequences", s)
	}
	return paramsSetInputSequences(gp, os)
}

type ortGenerator struct{ p *C.OgaGenerator }

func (g *ortGenerator) Destroy() {
	if g.p != nil {
		C.OgaDestroyGenerator(g.p)
		g.p = nil
	}
}

func (g *ortGenerator) IsDone() bool { return C.oga_is_done(g.p) != 0 }

func (g *ortGenerator) GenerateNextToken() error { return generateNext(g) }

func (g *ortGenerator) LastToken(sequence int) int32 {
	return int32(C.oga_last_token(g.p, C.size_t(sequence)))
}

func (g *ortGenerator) SetInputs(t NamedTensors) error {
	ot, ok := t.(*ortTensors)
	if !ok {
		return errWrongType("*ortTensors", t)
	}
	return generatorSetInputs(g, ot)
}

func (g *ortGenerator) AppendTokenSequences(s Sequences) error {
	os, ok := s.(*ortSequences)
	if !ok {
		return errWrongType("*ortSequences", s)
	}
	return generatorAppendSequences(g, os)
}

type ortStream struct{ p *C.OgaTokenizerStream }

func (s *ortStream) Destroy() {
	if s.p != nil {
		C.OgaDestroyTokenizerStream(s.p)
		s.p = nil
	}
}

// Decode copies the fragment out; the runtime owns the returned buffer only
// until the next call on the same stream.
func (s *ortStream) Decode(token int32) (string, error) {
	var out *C.char
	if err := check(C.OgaTokenizerStreamDecode(s.p, C.int32_t(token), &out)); err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return C.GoString(out), nil
}
