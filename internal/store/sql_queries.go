package store

import (
	"fmt"
	"strings"

	"github.com/ledgerkeep/ledgerkeep/models"
)

// serverEnvelopeColumns trail the payload columns in every server record
// query.
var serverEnvelopeColumns = []string{"version", "deleted_at"}

// buildServerSelectVersion builds the stored-version lookup used by the
// optimistic version check. The row is locked so two concurrent pushes of
// the same record serialize.
func buildServerSelectVersion(table models.Table) (string, error) {
	if !table.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	return fmt.Sprintf(
		`SELECT version FROM %s WHERE user_id = $1 AND id = $2 FOR UPDATE;`, table), nil
}

// buildServerInsert builds the insert for a record the user has never
// synced. The version comes from the per-user global sequence so versions
// stay comparable across tables.
func buildServerInsert(table models.Table) (string, error) {
	cols, err := payloadColumns(table)
	if err != nil {
		return "", err
	}

	all := append([]string{"user_id"}, cols...)
	all = append(all, "deleted_at")

	placeholders := make([]string, 0, len(all))
	for i := range all {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, version)
		VALUES (%s, nextval('sync_version_seq'))
		RETURNING version;`,
		table, strings.Join(all, ", "), strings.Join(placeholders, ", "))

	return query, nil
}

// buildServerUpdate builds the accepted-update statement: payload and
// tombstone are overwritten and a fresh version is assigned.
func buildServerUpdate(table models.Table) (string, error) {
	cols, err := payloadColumns(table)
	if err != nil {
		return "", err
	}

	sets := make([]string, 0, len(cols)+1)
	arg := 3
	for _, col := range cols {
		if col == "id" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, arg))
		arg++
	}
	sets = append(sets, fmt.Sprintf("deleted_at = $%d", arg))

	query := fmt.Sprintf(`UPDATE %s
		SET %s, version = nextval('sync_version_seq')
		WHERE user_id = $1 AND id = $2
		RETURNING version;`,
		table, strings.Join(sets, ", "))

	return query, nil
}

// buildServerSelectRow builds the single-record load used by the idempotency
// check before an accepted update.
func buildServerSelectRow(table models.Table) (string, error) {
	cols, err := payloadColumns(table)
	if err != nil {
		return "", err
	}

	all := append(append([]string{}, cols...), serverEnvelopeColumns...)

	return fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 AND id = $2;`,
		strings.Join(all, ", "), table), nil
}

// buildServerSelectChanges builds the incremental change feed query.
func buildServerSelectChanges(table models.Table) (string, error) {
	cols, err := payloadColumns(table)
	if err != nil {
		return "", err
	}

	all := append(append([]string{}, cols...), serverEnvelopeColumns...)

	return fmt.Sprintf(`SELECT %s FROM %s
		WHERE user_id = $1 AND version > $2
		ORDER BY version
		LIMIT $3;`,
		strings.Join(all, ", "), table), nil
}

// buildServerSelectSnapshot builds the hydration page query over live
// records only, in stable id order.
func buildServerSelectSnapshot(table models.Table) (string, error) {
	cols, err := payloadColumns(table)
	if err != nil {
		return "", err
	}

	all := append(append([]string{}, cols...), serverEnvelopeColumns...)

	return fmt.Sprintf(`SELECT %s FROM %s
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY id
		LIMIT $2 OFFSET $3;`,
		strings.Join(all, ", "), table), nil
}

// buildServerSelectByIDs builds the targeted fetch over an id set,
// tombstones included.
func buildServerSelectByIDs(table models.Table) (string, error) {
	cols, err := payloadColumns(table)
	if err != nil {
		return "", err
	}

	all := append(append([]string{}, cols...), serverEnvelopeColumns...)

	return fmt.Sprintf(`SELECT %s FROM %s
		WHERE user_id = $1 AND id = ANY($2)
		ORDER BY id;`,
		strings.Join(all, ", "), table), nil
}

// buildServerLatestVersion builds the per-user high-water query as a UNION
// over every syncable table.
func buildServerLatestVersion() string {
	parts := make([]string, 0, len(models.AllTables))
	for _, table := range models.AllTables {
		parts = append(parts,
			fmt.Sprintf("SELECT COALESCE(MAX(version), 0) AS v FROM %s WHERE user_id = $1", table))
	}

	return fmt.Sprintf(`SELECT MAX(v) FROM (%s) AS versions;`, strings.Join(parts, " UNION ALL "))
}
