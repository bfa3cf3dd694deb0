package types

// GenerateResult is printed by `genaictl generate --json` and per item by
// `genaictl batch`.
type GenerateResult struct {
	// Model folder used for the call.
	// example: /models/phi-3.5-vision
	Model string `json:"model"`
	// Generated text; partial when Error is set and Partial is true.
	// example: A cat sitting on a windowsill.
	Text string `json:"text"`
	// Number of tokens produced by the loop.
	// example: 12
	Tokens int `json:"tokens"`
	// Tokens whose decoded fragment was dropped.
	DecodeSkipped int `json:"decode_skipped,omitempty"`
	// Images fused with the prompt.
	Images []string `json:"images,omitempty"`
	// Wall time in milliseconds.
	// example: 842
	DurationMS int64 `json:"duration_ms"`
	// True when generation stopped early and Text holds what came before.
	Partial bool `json:"partial,omitempty"`
	// Error channel message, "ERROR: {context}: {detail}".
	// example: ERROR: Image loading failed: file not found
	Error string `json:"error,omitempty"`
}

// HealthResult is printed by `genaictl health --json`.
type HealthResult struct {
	Model string `json:"model"`
	// 1 ok, -1 empty path, -2 model failed, -3 tokenizer failed.
	// example: 1
	Code  int    `json:"code"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BatchRequest is one line of a `genaictl batch` input file (JSON lines).
type BatchRequest struct {
	// Optional model folder; the configured default is used when empty.
	Model string `json:"model,omitempty"`
	// Required prompt. Multimodal prompts carry one placeholder per image.
	// example: <|image_1|>\nWhat is shown here?
	Prompt string `json:"prompt"`
	// Image paths, in placeholder order.
	Images []string `json:"images,omitempty"`
	// Forces the processor path even without images.
	Multimodal bool `json:"multimodal,omitempty"`
	// Token budget; 0 keeps the default.
	MaxLength int `json:"max_length,omitempty"`
}

// DoctorReport is printed by `genaictl doctor --json`.
type DoctorReport struct {
	BridgeVersion string `json:"bridge_version"`
	// Empty when the binary was built without the native binding.
	EngineVersion string `json:"engine_version,omitempty"`
	// Whether the binary was built with the ortgenai tag.
	NativeBuilt bool `json:"native_built"`
	// Location of the GenAI shared library, if found.
	Library       string `json:"library,omitempty"`
	LibrarySource string `json:"library_source,omitempty"`
	ModelsDir     string `json:"models_dir"`
	ModelsFound   int    `json:"models_found"`
	// Human-readable problems; empty when everything looks usable.
	Problems []string `json:"problems,omitempty"`
}

// ModelsResponse wraps the list printed by `genaictl models --json`.
type ModelsResponse struct {
	// List of discovered models.
	Models []Model `json:"models"`
}
