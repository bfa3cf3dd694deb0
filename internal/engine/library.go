package engine

import (
	"os"
	"path/filepath"
	"runtime"
)

// LibraryName returns the platform file name of the GenAI shared library.
func LibraryName(goos string) string {
	switch goos {
	case "windows":
		return "onnxruntime-genai.dll"
	case "darwin":
		return "libonnxruntime-genai.dylib"
	default:
		return "libonnxruntime-genai.so"
	}
}

// Library describes where the GenAI shared library was found.
type Library struct {
	Path   string // full path to the library file
	Source string // env var or location that produced Path
}

// DiscoverLibrary looks for the GenAI shared library using the process
// environment. It returns ok=false when nothing is found.
func DiscoverLibrary() (Library, bool) {
	exe, _ := os.Executable()
	return discoverLibrary(os.Getenv, runtime.GOOS, runtime.GOARCH, filepath.Dir(exe))
}

// discoverLibrary checks, in order: ORTGENAI_DYLIB_PATH, ONNXRUNTIME_ROOT
// (platform subdir, then lib/), the loader search path, then the executable
// directory (the $ORIGIN rpath baked into ortgenai builds).
func discoverLibrary(getenv func(string) string, goos, goarch, exeDir string) (Library, bool) {
	name := LibraryName(goos)

	if p := getenv("ORTGENAI_DYLIB_PATH"); p != "" {
		if fileExists(p) {
			return Library{Path: p, Source: "ORTGENAI_DYLIB_PATH"}, true
		}
	}

	if root := getenv("ONNXRUNTIME_ROOT"); root != "" {
		for _, dir := range []string{
			filepath.Join(root, goos+"-"+goarch, "lib"),
			filepath.Join(root, "lib"),
		} {
			if p := filepath.Join(dir, name); fileExists(p) {
				return Library{Path: p, Source: "ONNXRUNTIME_ROOT"}, true
			}
		}
	}

	envVar := "LD_LIBRARY_PATH"
	switch goos {
	case "darwin":
		envVar = "DYLD_LIBRARY_PATH"
	case "windows":
		envVar = "PATH"
	}
	for _, dir := range filepath.SplitList(getenv(envVar)) {
		if dir == "" {
			continue
		}
		if p := filepath.Join(dir, name); fileExists(p) {
			return Library{Path: p, Source: envVar}, true
		}
	}

	if exeDir != "" {
		if p := filepath.Join(exeDir, name); fileExists(p) {
			return Library{Path: p, Source: "executable directory"}, true
		}
	}
	return Library{}, false
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
