// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the core poll-mode event reactor abstraction and
// cross-platform implementations: epoll (Linux), kqueue (Darwin/BSD), and
// IOCP (Windows). The reactor is single-threaded and cooperative: Run owns
// the calling goroutine until Close, and every registered interest resumes
// at most one waiting coroutine (see package coroutine) per event.
package reactor
