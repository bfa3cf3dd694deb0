//go:build cgo && linux

package main

import "golang.org/x/sys/unix"

// threadID identifies the calling OS thread. Exported functions run on the
// thread the host called them from.
func threadID() uint64 { return uint64(unix.Gettid()) }
