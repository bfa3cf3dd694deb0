// Package models discovers ONNX Runtime GenAI model folders under a models
// directory. A folder is a model when it contains genai_config.json; the
// scanner also looks one level down into the variant subfolders that model
// releases ship (cpu-int4, cuda-fp16, ...).
package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"genaibridge/internal/common/fsutil"
	"genaibridge/pkg/types"
)

// ConfigFile is the file that marks a model folder.
const ConfigFile = "genai_config.json"

// maxDepth bounds the walk below the models dir (owner/model/variant).
const maxDepth = 3

// genaiConfig is the subset of genai_config.json the scanner reads.
type genaiConfig struct {
	Model struct {
		Type          string          `json:"type"`
		ContextLength int             `json:"context_length"`
		Vision        json.RawMessage `json:"vision"`
		Speech        json.RawMessage `json:"speech"`
		Decoder       struct {
			SessionOptions struct {
				ProviderOptions []map[string]json.RawMessage `json:"provider_options"`
			} `json:"session_options"`
		} `json:"decoder"`
	} `json:"model"`
	Search struct {
		MaxLength int `json:"max_length"`
	} `json:"search"`
}

// IsModelDir reports whether dir holds a genai_config.json.
func IsModelDir(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, ConfigFile))
	return err == nil && !fi.IsDir()
}

// Inspect reads the model folder at dir.
func Inspect(dir string) (types.Model, error) {
	abs, err := fsutil.Resolve(dir)
	if err != nil {
		return types.Model{}, err
	}
	b, err := os.ReadFile(filepath.Join(abs, ConfigFile))
	if err != nil {
		return types.Model{}, err
	}
	var gc genaiConfig
	if err := json.Unmarshal(b, &gc); err != nil {
		return types.Model{}, fmt.Errorf("%s: %w", ConfigFile, err)
	}
	m := types.Model{
		ID:            filepath.Base(abs),
		Path:          abs,
		Type:          gc.Model.Type,
		ContextLength: gc.Model.ContextLength,
		MaxLength:     gc.Search.MaxLength,
		Multimodal:    present(gc.Model.Vision) || present(gc.Model.Speech),
	}
	for _, po := range gc.Model.Decoder.SessionOptions.ProviderOptions {
		for name := range po {
			m.Providers = append(m.Providers, name)
		}
	}
	sort.Strings(m.Providers)
	return m, nil
}

func present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// Scan walks dir and returns every model folder found, sorted by ID. IDs are
// slash-separated paths relative to dir. A folder that is a model is not
// descended into. Unreadable configs are skipped and reported in skipped.
func Scan(dir string) (found []types.Model, skipped map[string]error, err error) {
	root, err := fsutil.Resolve(dir)
	if err != nil {
		return nil, nil, err
	}
	if !fsutil.IsDir(root) {
		return nil, nil, fmt.Errorf("read dir: %s is not a directory", root)
	}
	skipped = map[string]error{}
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, werr error) error {
		if werr != nil {
			if p == root {
				return werr
			}
			skipped[p] = werr
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		depth := 0
		if rel != "." {
			depth = len(strings.Split(filepath.ToSlash(rel), "/"))
		}
		if depth > 0 && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !IsModelDir(p) {
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		m, ierr := Inspect(p)
		if ierr != nil {
			skipped[p] = ierr
			return filepath.SkipDir
		}
		if rel != "." {
			m.ID = filepath.ToSlash(rel)
		}
		found = append(found, m)
		return filepath.SkipDir
	})
	if err != nil {
		return nil, nil, fmt.Errorf("read dir: %w", err)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, skipped, nil
}

// Resolve maps a CLI model argument to a folder. An existing path is used
// as is; otherwise name is matched against model IDs under modelsDir, first
// exactly, then as the ID's leading segment (an owner/model prefix that has
// a single variant).
func Resolve(modelsDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("no model given and no default_model configured")
	}
	if p, err := fsutil.Resolve(name); err == nil && IsModelDir(p) {
		return p, nil
	}
	found, _, err := Scan(modelsDir)
	if err != nil {
		return "", err
	}
	var prefixed []types.Model
	for _, m := range found {
		if m.ID == name {
			return m.Path, nil
		}
		if strings.HasPrefix(m.ID, name+"/") {
			prefixed = append(prefixed, m)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0].Path, nil
	case 0:
		return "", fmt.Errorf("model not found: %s", name)
	default:
		ids := make([]string, len(prefixed))
		for i, m := range prefixed {
			ids[i] = m.ID
		}
		return "", fmt.Errorf("model %q is ambiguous: %s", name, strings.Join(ids, ", "))
	}
}
