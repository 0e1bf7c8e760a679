package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// WireRecord is a record as it crosses the network: the payload's wire
// columns flattened into one JSON object together with the envelope fields
// id, version and deleted_at. Monetary columns travel as integer cents; the
// [Amount] decoder rejects anything else.
type WireRecord struct {
	ID        string
	Version   int64
	DeletedAt *time.Time
	Payload   Payload
}

// MarshalJSON flattens the payload's columns and the envelope into a single
// object.
func (w WireRecord) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(w.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal wire payload: %w", err)
	}

	flat := make(map[string]json.RawMessage)
	if err = json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("flatten wire payload: %w", err)
	}

	idJSON, _ := json.Marshal(w.ID)
	versionJSON, _ := json.Marshal(w.Version)
	deletedJSON, _ := json.Marshal(w.DeletedAt)
	flat["id"] = idJSON
	flat["version"] = versionJSON
	flat["deleted_at"] = deletedJSON

	return json.Marshal(flat)
}

// DecodeWireRecord parses one flat wire object for the given table. The
// payload variant is chosen by table; decoding fails on unknown tables, on a
// missing id, and on fractional monetary values (wrapping
// [ErrFractionalAmount]).
func DecodeWireRecord(table Table, data []byte) (WireRecord, error) {
	var envelope struct {
		ID        string     `json:"id"`
		Version   int64      `json:"version"`
		DeletedAt *time.Time `json:"deleted_at"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return WireRecord{}, fmt.Errorf("decode wire envelope: %w", err)
	}
	if envelope.ID == "" {
		return WireRecord{}, fmt.Errorf("wire record for table %q has no id", table)
	}

	payload, err := decodePayload(table, data)
	if err != nil {
		return WireRecord{}, err
	}

	return WireRecord{
		ID:        envelope.ID,
		Version:   envelope.Version,
		DeletedAt: envelope.DeletedAt,
		Payload:   payload,
	}, nil
}

func decodePayload(table Table, data []byte) (Payload, error) {
	switch table {
	case TableCurrencies:
		var p Currency
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", table, err)
		}
		return p, nil
	case TableCategories:
		var p Category
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", table, err)
		}
		return p, nil
	case TableAccounts:
		var p Account
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", table, err)
		}
		return p, nil
	case TableBudgets:
		var p Budget
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", table, err)
		}
		return p, nil
	case TableTransactions:
		var p Transaction
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", table, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown syncable table %q", table)
	}
}

// DecodeWireRecords decodes a page of raw wire objects for one table.
// Decoding is per record: the first failure aborts the page so a partially
// validated batch is never applied.
func DecodeWireRecords(table Table, raw []json.RawMessage) ([]WireRecord, error) {
	records := make([]WireRecord, 0, len(raw))
	for i, item := range raw {
		rec, err := DecodeWireRecord(table, item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// UpsertRequest is the client-side body of the per-table batch upsert
// procedure: one network call carries every staged record for the table.
type UpsertRequest struct {
	UserID  int64        `json:"user_id"`
	Records []WireRecord `json:"records"`
}

// RawUpsertRequest is the server-side decode shape of [UpsertRequest]; the
// records stay raw until the table-aware payload decode runs.
type RawUpsertRequest struct {
	UserID  int64             `json:"user_id"`
	Records []json.RawMessage `json:"records"`
}

// UpsertResponse reports the fate of every submitted id in three disjoint
// sets. NewVersions carries the authoritative version assigned to each
// accepted record so the client can apply it without waiting for the next
// pull.
type UpsertResponse struct {
	SyncedIDs   []string          `json:"synced_ids"`
	ConflictIDs []string          `json:"conflict_ids"`
	ErrorMap    map[string]string `json:"error_map"`
	NewVersions map[string]int64  `json:"new_versions"`
}

// ChangesRequest asks for one page of server-side changes newer than the
// table's local high-water mark.
type ChangesRequest struct {
	UserID       int64 `json:"user_id"`
	Table        Table `json:"table"`
	SinceVersion int64 `json:"since_version"`
	Limit        int   `json:"limit"`
}

// RecordPage is a page of raw wire records as received by the client from
// the changes, snapshot and fetch procedures.
type RecordPage struct {
	Records []json.RawMessage `json:"records"`
}

// WireRecordList is the server-side encode shape of [RecordPage].
type WireRecordList struct {
	Records []WireRecord `json:"records"`
}

// SummaryResponse is the cheap "anything changed" probe consulted before a
// full incremental pull.
type SummaryResponse struct {
	HasChanges          bool  `json:"has_changes"`
	LatestServerVersion int64 `json:"latest_server_version"`
}

// SnapshotRequest asks for one page of a table's full active dataset during
// initial hydration.
type SnapshotRequest struct {
	UserID int64 `json:"user_id"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

// FetchRequest asks for specific records by id, used to capture the server
// side of a version conflict.
type FetchRequest struct {
	UserID int64    `json:"user_id"`
	IDs    []string `json:"ids"`
}
