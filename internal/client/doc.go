// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ledgerkeep Authors

// Package client implements the sync daemon runtime.
//
// It wires client services and background workers into a single process
// lifecycle: hydrate an empty local store, run an initial full cycle, then
// keep syncing on a timer until the process is signalled to stop.
package client
