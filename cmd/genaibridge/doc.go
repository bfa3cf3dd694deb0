// Command genaibridge builds the C shared library loaded by host
// applications through FFI on Linux, Windows, macOS and iOS:
//
//	go build -tags ortgenai -buildmode=c-shared -o libgenaibridge.so ./cmd/genaibridge
//
// Exported functions keep the C names host bindings already use
// (run_inference, create_config, get_last_error, ...). Returned strings are
// owned by the library and stay valid until the next call of the same kind
// on the same OS thread; callers must not free them. Results and errors are
// kept per OS thread, so hosts running inference on several threads never
// see each other's output.
//
// Per-thread state is keyed by the OS thread id and is not dropped when a
// thread exits. Operating systems reuse thread ids, so a host that retires
// worker threads must call release_thread_state on each thread before it
// ends; otherwise a later thread with the same id would see the old
// thread's last error.
//
// Configuration comes from the environment: GENAIBRIDGE_LOG_LEVEL,
// GENAIBRIDGE_METRICS_FILE (written on shutdown_onnx_genai).
package main

func main() {}
