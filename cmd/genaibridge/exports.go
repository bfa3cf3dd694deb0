//go:build cgo && (linux || windows || darwin)

package main

/*
#include <stdint.h>
*/
import "C"

import "genaibridge/internal/bridge"

//export check_native_health
func check_native_health(modelPath *C.char) C.int32_t {
	s, _ := lib.session()
	return C.int32_t(lib.bridge.Health(s, goString(modelPath)))
}

//export get_library_version
func get_library_version() *C.char {
	lib.init()
	return lib.version
}

//export shutdown_onnx_genai
func shutdown_onnx_genai() {
	lib.shutdown()
}

//export run_text_inference
func run_text_inference(modelPath, prompt *C.char, maxLength C.int32_t) *C.char {
	s, tid := lib.session()
	return lib.result(tid, lib.bridge.GenerateText(s, goString(modelPath), goString(prompt), int(maxLength)))
}

//export run_inference
func run_inference(modelPath, prompt, imagePath *C.char) *C.char {
	s, tid := lib.session()
	return lib.result(tid, lib.bridge.GenerateMultimodal(s, goString(modelPath), goString(prompt), optionalImage(goString(imagePath))))
}

//export run_inference_multi
func run_inference_multi(modelPath, prompt *C.char, imagePaths **C.char, imageCount C.int32_t) *C.char {
	s, tid := lib.session()
	images, err := goStrings(imagePaths, imageCount)
	if err != nil {
		return lib.result(tid, s.SetError(bridge.CtxInvalidInput, err.Error()))
	}
	return lib.result(tid, lib.bridge.GenerateMultimodal(s, goString(modelPath), goString(prompt), images))
}

//export create_config
func create_config(modelPath *C.char) C.int64_t {
	s, _ := lib.session()
	return C.int64_t(lib.bridge.CreateConfig(s, goString(modelPath)))
}

//export destroy_config
func destroy_config(handle C.int64_t) {
	s, _ := lib.session()
	lib.bridge.DestroyConfig(s, bridge.Handle(handle))
}

//export config_clear_providers
func config_clear_providers(handle C.int64_t) C.int32_t {
	s, _ := lib.session()
	return C.int32_t(lib.bridge.ClearProviders(s, bridge.Handle(handle)))
}

//export config_append_provider
func config_append_provider(handle C.int64_t, provider *C.char) C.int32_t {
	s, _ := lib.session()
	return C.int32_t(lib.bridge.AppendProvider(s, bridge.Handle(handle), goString(provider)))
}

//export config_set_provider_option
func config_set_provider_option(handle C.int64_t, provider, key, value *C.char) C.int32_t {
	s, _ := lib.session()
	return C.int32_t(lib.bridge.SetProviderOption(s, bridge.Handle(handle),
		goString(provider), goString(key), goString(value)))
}

//export run_inference_with_config
func run_inference_with_config(handle C.int64_t, prompt, imagePath *C.char) *C.char {
	s, tid := lib.session()
	return lib.result(tid, lib.bridge.GenerateWithConfig(s, bridge.Handle(handle), goString(prompt), optionalImage(goString(imagePath))))
}

//export run_inference_multi_with_config
func run_inference_multi_with_config(handle C.int64_t, prompt *C.char, imagePaths **C.char, imageCount C.int32_t) *C.char {
	s, tid := lib.session()
	images, err := goStrings(imagePaths, imageCount)
	if err != nil {
		return lib.result(tid, s.SetError(bridge.CtxInvalidInput, err.Error()))
	}
	return lib.result(tid, lib.bridge.GenerateWithConfig(s, bridge.Handle(handle), goString(prompt), images))
}

//export release_thread_state
func release_thread_state() {
	lib.release()
}

//export get_last_error
func get_last_error() *C.char {
	s, tid := lib.session()
	return lib.lastError(tid, s.LastError())
}
