// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ledgerkeep Authors

// Package adapter provides transport-layer abstractions for communicating
// with the ledgerkeep sync server.
//
// The primary abstraction is [RemoteStore], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPRemoteStore]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrVersionConflict] for 409, [ErrUnauthorized] for
// 401).
package adapter

import (
	"context"

	"github.com/ledgerkeep/ledgerkeep/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RemoteStore defines transport-agnostic communication with the sync server.
// Implementations are responsible for serialisation, authentication header
// management, and mapping transport-level errors to the sentinel values
// defined in this package.
type RemoteStore interface {
	// SetToken stores the bearer token attached to all subsequent requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Upsert submits one batch of staged records for one table and returns
	// the server's verdict for every id.
	Upsert(ctx context.Context, table models.Table, req models.UpsertRequest) (models.UpsertResponse, error)

	// Changes fetches one page of records newer than req.SinceVersion,
	// decoded for req.Table. Tombstones are included.
	Changes(ctx context.Context, req models.ChangesRequest) ([]models.WireRecord, error)

	// Summary is the cheap pre-pull probe: it reports the server's latest
	// version and whether anything is newer than since.
	Summary(ctx context.Context, since int64) (models.SummaryResponse, error)

	// Snapshot fetches one page of a table's live records for initial
	// hydration.
	Snapshot(ctx context.Context, table models.Table, req models.SnapshotRequest) ([]models.WireRecord, error)

	// Fetch loads specific records by id, tombstones included. Used to
	// capture the server side of a version conflict.
	Fetch(ctx context.Context, table models.Table, req models.FetchRequest) ([]models.WireRecord, error)
}
