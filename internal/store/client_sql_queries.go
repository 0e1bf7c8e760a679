package store

import (
	"fmt"
	"strings"

	"github.com/ledgerkeep/ledgerkeep/models"
)

const (
	getSyncMetadata = `SELECT table_name, last_synced_version, last_error, updated_at
		FROM sync_metadata
		WHERE table_name = ?;`

	getAllSyncMetadata = `SELECT table_name, last_synced_version, last_error, updated_at
		FROM sync_metadata
		ORDER BY table_name;`

	upsertSyncMetadata = `INSERT INTO sync_metadata (table_name, last_synced_version, last_error, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (table_name) DO UPDATE SET
			last_synced_version = excluded.last_synced_version,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at;`

	setSyncMetadataError = `UPDATE sync_metadata
		SET last_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE table_name = ?;`

	countSyncMetadata = `SELECT COUNT(*) FROM sync_metadata;`

	clearSyncMetadata = `DELETE FROM sync_metadata;`

	saveSyncConflict = `INSERT INTO sync_conflicts (
			record_id,
			table_name,
			local_version,
			server_version,
			local_payload,
			server_payload,
			reason,
			detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (record_id) DO UPDATE SET
			table_name = excluded.table_name,
			local_version = excluded.local_version,
			server_version = excluded.server_version,
			local_payload = excluded.local_payload,
			server_payload = excluded.server_payload,
			reason = excluded.reason,
			detected_at = excluded.detected_at;`

	listSyncConflicts = `SELECT record_id, table_name, local_version, server_version,
			local_payload, server_payload, reason, detected_at
		FROM sync_conflicts
		ORDER BY detected_at;`

	getSyncConflict = `SELECT record_id, table_name, local_version, server_version,
			local_payload, server_payload, reason, detected_at
		FROM sync_conflicts
		WHERE record_id = ?;`

	deleteSyncConflict = `DELETE FROM sync_conflicts WHERE record_id = ?;`
)

// localEnvelopeColumns trail the payload columns in every local record query.
var localEnvelopeColumns = []string{"version", "deleted_at", "sync_status", "updated_at"}

// buildLocalUpsert builds the full-record upsert for one table. The version
// guard on the update arm keeps a stored version from ever decreasing.
func buildLocalUpsert(table models.Table) (string, error) {
	cols, err := payloadColumns(table)
	if err != nil {
		return "", err
	}

	all := append(append([]string{}, cols...), localEnvelopeColumns...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")

	sets := make([]string, 0, len(all))
	for _, col := range all {
		if col == "id" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT (id) DO UPDATE SET %s
		WHERE excluded.version >= %s.version;`,
		table, strings.Join(all, ", "), placeholders,
		strings.Join(sets, ", "), table)

	return query, nil
}

// buildLocalSelect builds the column list shared by every local record
// select.
func buildLocalSelect(table models.Table) (string, error) {
	cols, err := payloadColumns(table)
	if err != nil {
		return "", err
	}

	all := append(append([]string{}, cols...), localEnvelopeColumns...)
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(all, ", "), table), nil
}
