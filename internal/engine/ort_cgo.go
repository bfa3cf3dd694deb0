//go:build ortgenai

package engine

// cgo link directives for the in-process ONNX Runtime GenAI binding.
// - We set an rpath of $ORIGIN so the runtime loader finds
//   libonnxruntime-genai.so and libonnxruntime.so next to the built binary.
// - -L/-I point at ${SRCDIR}/../../bin so a locally unpacked release links
//   without extra flags; CGO_CFLAGS/CGO_LDFLAGS still take precedence.
/*
#cgo CFLAGS: -I${SRCDIR}/../../bin/include
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lonnxruntime-genai
*/
import "C"
