// Package bridge is the inference-session lifecycle controller. It builds
// the chain of native resources for one call, drives token generation, and
// releases everything in reverse order on every path. It is structured into
// small files by concern:
//
//   - bridge.go: Bridge, Options, and the public operations.
//   - session.go: Session (per-thread error channel) and SessionTable.
//   - registry.go: generation-tagged configuration handles.
//   - chain.go: ownership stack and ordered acquisition.
//   - input.go: image normalization and prompt fusion.
//   - loop.go: the generation loop.
//   - lifecycle.go: process-wide init/shutdown state.
//   - errors.go: step contexts and error types (IsInput, IsStep, IsHandle).
//   - events.go, metrics.go: event publishing and Prometheus collectors.
//
// Every failing operation writes "ERROR: {context}: {detail}" into the
// caller's Session before returning its sentinel. Calls are synchronous and
// never cancelled.
package bridge
