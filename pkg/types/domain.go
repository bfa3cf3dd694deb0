package types

// Model represents an ONNX Runtime GenAI model folder on disk.
type Model struct {
	// Stable identifier: path of the folder relative to the models dir, with
	// forward slashes.
	// example: microsoft/phi-3.5-vision
	ID string `json:"id" example:"microsoft/phi-3.5-vision"`
	// Absolute path to the folder holding genai_config.json.
	// example: /home/user/models/genai/microsoft/phi-3.5-vision/cpu-int4
	Path string `json:"path" example:"/home/user/models/genai/microsoft/phi-3.5-vision/cpu-int4"`
	// Model type reported by genai_config.json.
	// example: phi3v
	Type string `json:"type,omitempty" example:"phi3v"`
	// Context window in tokens, 0 when not declared.
	// example: 131072
	ContextLength int `json:"context_length,omitempty" example:"131072"`
	// Default search max_length, 0 when not declared.
	// example: 4096
	MaxLength int `json:"max_length,omitempty" example:"4096"`
	// True when the model declares a vision (or speech) encoder and must be
	// driven through the multimodal processor.
	// example: true
	Multimodal bool `json:"multimodal" example:"true"`
	// Execution providers listed in the model's session options.
	// example: ["cuda"]
	Providers []string `json:"providers,omitempty" example:"[\"cuda\"]"`
}
