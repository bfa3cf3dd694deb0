package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"genaibridge/internal/bridge"
	"genaibridge/internal/models"
	"genaibridge/pkg/types"
)

func (a *app) batchCmd() *cobra.Command {
	var (
		input    string
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run JSON-lines generation requests, printing one result per line",
		Long: "Each input line is an object with prompt and optional model, images, multimodal\n" +
			"and max_length. Results are printed in input order. The command fails when any\n" +
			"item failed, after every item has run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = a.env.Stdin
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			reqs, err := readBatch(r)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("parallel") {
				parallel = a.cfg.Parallel
			}
			results := a.runBatch(reqs, parallel)
			failed := 0
			out := cmd.OutOrStdout()
			for _, res := range results {
				if res.Error != "" {
					failed++
				}
				if err := writeJSON(out, res); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d requests failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON-lines request file (\"-\" reads stdin)")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Requests run concurrently (default from config parallel)")
	return cmd
}

// readBatch parses JSON lines, skipping blank ones.
func readBatch(r io.Reader) ([]types.BatchRequest, error) {
	var reqs []types.BatchRequest
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var req types.BatchRequest
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		reqs = append(reqs, req)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}

// runBatch runs every request on its own session so error channels never
// mix, and returns results in input order.
func (a *app) runBatch(reqs []types.BatchRequest, parallel int) []types.GenerateResult {
	if parallel < 1 {
		parallel = 1
	}
	results := make([]types.GenerateResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = a.runOne(req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *app) runOne(req types.BatchRequest) types.GenerateResult {
	s := bridge.NewSession()
	start := time.Now()
	res := types.GenerateResult{Model: req.Model, Images: req.Images}
	name := req.Model
	if name == "" {
		name = a.cfg.DefaultModel
	}
	path, err := models.Resolve(a.cfg.ModelsDir, name)
	if err != nil {
		res.Error = s.SetError(bridge.CtxInvalidInput, err.Error())
		return res
	}
	res.Model = path
	maxLength := req.MaxLength
	if maxLength == 0 {
		maxLength = a.cfg.MaxLength
	}
	out, gerr := a.bridge.Generate(s, bridge.Request{
		ModelPath:  path,
		Prompt:     req.Prompt,
		Multimodal: req.Multimodal,
		Images:     req.Images,
		MaxLength:  maxLength,
	})
	res.Text = out.Text
	res.Tokens = out.Tokens
	res.DecodeSkipped = out.DecodeSkipped
	res.DurationMS = time.Since(start).Milliseconds()
	if gerr != nil || out.Err != nil {
		res.Error = s.LastError()
		res.Partial = gerr == nil
	}
	a.log.Debug().Str("session", s.ID).Str("model", path).Int("tokens", out.Tokens).
		Bool("failed", res.Error != "").Msg("batch item done")
	return res
}
