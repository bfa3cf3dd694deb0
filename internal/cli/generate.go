package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"genaibridge/internal/bridge"
	"genaibridge/internal/common/fsutil"
	"genaibridge/internal/config"
	"genaibridge/internal/models"
	"genaibridge/pkg/types"
)

type generateFlags struct {
	prompt      string
	maxLength   int
	images      []string
	multimodal  bool
	providers   []string
	providerOpt []string
	stream      bool
}

func (a *app) generateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate [model]",
		Short: "Generate text from a prompt and optional images",
		Example: "  genaictl generate ./phi-3.5-vision -p '<|image_1|>\\nDescribe it' --image cat.png\n" +
			"  genaictl generate phi3 -p 'Hello' --max-length 64 --stream",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.prompt, "prompt", "p", "", "Prompt text (\"-\" reads stdin)")
	fl.IntVar(&f.maxLength, "max-length", 0, "Maximum length in tokens (0 = config max_length or model default)")
	fl.StringArrayVar(&f.images, "image", nil, "Image path; repeat for several images, in placeholder order")
	fl.BoolVar(&f.multimodal, "multimodal", false, "Route through the multimodal processor even without images")
	fl.StringArrayVar(&f.providers, "provider", nil, "Execution provider to append (repeatable, replaces configured providers)")
	fl.StringArrayVar(&f.providerOpt, "provider-opt", nil, "Provider option as provider:key=value (repeatable)")
	fl.BoolVar(&f.stream, "stream", false, "Print fragments as they are decoded")
	return cmd
}

func (a *app) modelPath(args []string) (string, error) {
	name := a.cfg.DefaultModel
	if len(args) > 0 {
		name = args[0]
	}
	return models.Resolve(a.cfg.ModelsDir, name)
}

func (a *app) runGenerate(cmd *cobra.Command, args []string, f generateFlags) error {
	path, err := a.modelPath(args)
	if err != nil {
		return err
	}
	prompt := f.prompt
	if prompt == "-" {
		b, err := io.ReadAll(a.env.Stdin)
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}
		prompt = strings.TrimRight(string(b), "\n")
	}
	if missing := fsutil.MissingFiles(f.images); len(missing) > 0 {
		a.log.Warn().Strs("images", missing).Msg("image files not found; the engine will reject them")
	}
	providers, err := mergeProviders(a.cfg.Providers, f.providers, f.providerOpt)
	if err != nil {
		return err
	}
	maxLength := f.maxLength
	if maxLength == 0 {
		maxLength = a.cfg.MaxLength
	}

	req := bridge.Request{
		ModelPath:  path,
		Prompt:     prompt,
		Multimodal: f.multimodal,
		Images:     f.images,
		MaxLength:  maxLength,
	}
	if info, err := models.Inspect(path); err == nil && info.Multimodal {
		req.Multimodal = true
	}
	out := cmd.OutOrStdout()
	if f.stream && !a.jsonOut {
		req.OnFragment = func(s string) { fmt.Fprint(out, s) }
	}

	if len(providers) > 0 {
		h, err := a.configure(path, providers)
		if err != nil {
			return err
		}
		defer a.bridge.DestroyConfig(a.session, h)
		req.Config = h
	}

	start := time.Now()
	res, gerr := a.bridge.Generate(a.session, req)
	result := types.GenerateResult{
		Model:         path,
		Text:          res.Text,
		Tokens:        res.Tokens,
		DecodeSkipped: res.DecodeSkipped,
		Images:        f.images,
		DurationMS:    time.Since(start).Milliseconds(),
	}
	switch {
	case gerr != nil:
		result.Error = a.session.LastError()
	case res.Err != nil:
		result.Partial = true
		result.Error = a.session.LastError()
	}

	if a.jsonOut {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else if gerr == nil {
		if !f.stream {
			fmt.Fprint(out, res.Text)
		}
		fmt.Fprintln(out)
	}
	if result.Error != "" {
		return fmt.Errorf("%s", strings.TrimPrefix(result.Error, "ERROR: "))
	}
	return nil
}

// mergeProviders returns the configured providers, replaced by --provider
// when given, with --provider-opt values layered on top.
func mergeProviders(cfg []config.Provider, names, opts []string) ([]config.Provider, error) {
	out := make([]config.Provider, 0, len(cfg))
	if len(names) > 0 {
		for _, n := range names {
			out = append(out, config.Provider{Name: n})
		}
	} else {
		for _, p := range cfg {
			cp := config.Provider{Name: p.Name, Options: map[string]string{}}
			for k, v := range p.Options {
				cp.Options[k] = v
			}
			out = append(out, cp)
		}
	}
	for _, o := range opts {
		prov, kv, ok := strings.Cut(o, ":")
		if !ok || prov == "" {
			return nil, fmt.Errorf("invalid --provider-opt %q, want provider:key=value", o)
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --provider-opt %q, want provider:key=value", o)
		}
		idx := -1
		for i := range out {
			if out[i].Name == prov {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("--provider-opt %q names provider %q which is not selected", o, prov)
		}
		if out[idx].Options == nil {
			out[idx].Options = map[string]string{}
		}
		out[idx].Options[k] = v
	}
	return out, nil
}

// configure builds a configuration handle with exactly the given providers.
func (a *app) configure(path string, providers []config.Provider) (bridge.Handle, error) {
	s := a.session
	h := a.bridge.CreateConfig(s, path)
	if h == 0 {
		return 0, fmt.Errorf("%s", strings.TrimPrefix(s.LastError(), "ERROR: "))
	}
	fail := func() (bridge.Handle, error) {
		a.bridge.DestroyConfig(s, h)
		return 0, fmt.Errorf("%s", strings.TrimPrefix(s.LastError(), "ERROR: "))
	}
	if a.bridge.ClearProviders(s, h) != bridge.StatusOK {
		return fail()
	}
	for _, p := range providers {
		if a.bridge.AppendProvider(s, h, p.Name) != bridge.StatusOK {
			return fail()
		}
		for _, k := range p.OptionKeys() {
			if a.bridge.SetProviderOption(s, h, p.Name, k, p.Options[k]) != bridge.StatusOK {
				return fail()
			}
		}
		a.log.Debug().Str("provider", p.Name).Int("options", len(p.Options)).Msg("provider configured")
	}
	return h, nil
}
