package cli

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"genaibridge/internal/bridge"
	"genaibridge/internal/common/fsutil"
	"genaibridge/internal/engine"
	"genaibridge/internal/models"
	"genaibridge/pkg/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health [model]",
		Short: "Load a model and its tokenizer, then release both",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.modelPath(args)
			if err != nil {
				return err
			}
			code := a.bridge.Health(a.session, path)
			res := types.HealthResult{Model: path, Code: code, OK: code == bridge.HealthOK}
			if !res.OK {
				res.Error = a.session.LastError()
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				if err := writeJSON(out, res); err != nil {
					return err
				}
			} else if res.OK {
				fmt.Fprintf(out, "ok %s\n", path)
			}
			if !res.OK {
				return fmt.Errorf("health check failed (%d): %s", code, res.Error)
			}
			return nil
		},
	}
}

func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List model folders under the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := fsutil.Resolve(a.cfg.ModelsDir)
			if err != nil {
				return err
			}
			found, skipped, err := models.Scan(dir)
			if err != nil {
				return err
			}
			for p, serr := range skipped {
				a.log.Warn().Str("path", p).Err(serr).Msg("skipping model folder")
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				if found == nil {
					found = []types.Model{}
				}
				return writeJSON(out, types.ModelsResponse{Models: found})
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tMULTIMODAL\tMAX LENGTH\tPROVIDERS")
			for _, m := range found {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%v\n", m.ID, m.Type, m.Multimodal, m.MaxLength, m.Providers)
			}
			return tw.Flush()
		},
	}
}

func (a *app) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the native binding, shared library and models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := a.doctor()
			out := cmd.OutOrStdout()
			if a.jsonOut {
				if err := writeJSON(out, rep); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "bridge:   %s\n", rep.BridgeVersion)
				fmt.Fprintf(out, "native:   %t %s\n", rep.NativeBuilt, rep.EngineVersion)
				fmt.Fprintf(out, "library:  %s (%s)\n", rep.Library, rep.LibrarySource)
				fmt.Fprintf(out, "models:   %s (%d found)\n", rep.ModelsDir, rep.ModelsFound)
				for _, p := range rep.Problems {
					fmt.Fprintf(out, "problem:  %s\n", p)
				}
			}
			if len(rep.Problems) > 0 {
				return fmt.Errorf("%d problem(s) found", len(rep.Problems))
			}
			return nil
		},
	}
}

func (a *app) doctor() types.DoctorReport {
	rep := types.DoctorReport{
		BridgeVersion: a.bridge.Version(),
		EngineVersion: a.bridge.EngineVersion(),
		NativeBuilt:   engine.Built,
	}
	if !rep.NativeBuilt {
		rep.Problems = append(rep.Problems, "built without the ortgenai tag; generation is unavailable")
	}
	if lib, ok := engine.DiscoverLibrary(); ok {
		rep.Library, rep.LibrarySource = lib.Path, lib.Source
	} else if rep.NativeBuilt {
		rep.Problems = append(rep.Problems, engine.LibraryName(runtime.GOOS)+" not found; set ORTGENAI_DYLIB_PATH or ONNXRUNTIME_ROOT")
	}
	dir, err := fsutil.Resolve(a.cfg.ModelsDir)
	if err != nil {
		rep.Problems = append(rep.Problems, err.Error())
		return rep
	}
	rep.ModelsDir = dir
	found, skipped, err := models.Scan(dir)
	if err != nil {
		rep.Problems = append(rep.Problems, "models dir: "+err.Error())
		return rep
	}
	rep.ModelsFound = len(found)
	paths := make([]string, 0, len(skipped))
	for p := range skipped {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		rep.Problems = append(rep.Problems, fmt.Sprintf("%s: %v", p, skipped[p]))
	}
	return rep
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print bridge and engine versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := a.bridge.EngineVersion()
			if ev == "" {
				ev = "unavailable"
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return writeJSON(out, map[string]string{"bridge": a.bridge.Version(), "engine": ev})
			}
			fmt.Fprintf(out, "genaictl %s\nengine   %s\n", a.bridge.Version(), ev)
			return nil
		},
	}
}
