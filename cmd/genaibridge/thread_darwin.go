//go:build cgo && darwin

package main

/*
#include <pthread.h>
#include <stdint.h>

static inline uint64_t current_thread_id(void) {
	uint64_t id = 0;
	pthread_threadid_np(NULL, &id);
	return id;
}
*/
import "C"

func threadID() uint64 { return uint64(C.current_thread_id()) }
