package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/internal/mock"
	"github.com/ledgerkeep/ledgerkeep/models"
)

func newTestHydrationSvc(
	t *testing.T,
	ctrl *gomock.Controller,
	records *stubRecordRepo,
	metadata *stubMetadataRepo,
) (*hydrationService, *mock.MockRemoteStore) {
	t.Helper()

	remote := mock.NewMockRemoteStore(ctrl)
	svc := NewHydrationService(records, metadata, remote, config.Sync{PullBatchSize: 2}, logger.Nop()).(*hydrationService)

	return svc, remote
}

// expectEmptySnapshots wires zero-record snapshot pages for every table
// except the listed ones.
func expectEmptySnapshots(remote *mock.MockRemoteStore, except ...models.Table) {
	skip := make(map[models.Table]bool, len(except))
	for _, table := range except {
		skip[table] = true
	}
	for _, table := range models.AllTables {
		if skip[table] {
			continue
		}
		remote.EXPECT().
			Snapshot(gomock.Any(), table, gomock.Any()).
			Return(nil, nil)
	}
}

func TestIsHydrationNeeded(t *testing.T) {
	tests := []struct {
		name      string
		metaCount int
		accounts  int
		want      bool
	}{
		{name: "fresh store", metaCount: 0, accounts: 0, want: true},
		{name: "metadata present", metaCount: 3, accounts: 0, want: false},
		{name: "accounts present", metaCount: 0, accounts: 2, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			records := &stubRecordRepo{
				countActive: func(_ context.Context, table models.Table) (int, error) {
					assert.Equal(t, models.TableAccounts, table)
					return tt.accounts, nil
				},
			}
			metadata := &stubMetadataRepo{
				countMetadata: func(context.Context) (int, error) { return tt.metaCount, nil },
			}

			svc, _ := newTestHydrationSvc(t, ctrl, records, metadata)

			needed, err := svc.IsHydrationNeeded(testContext())
			require.NoError(t, err)
			assert.Equal(t, tt.want, needed)
		})
	}
}

func TestHydrate_NotNeeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	metadata := &stubMetadataRepo{
		countMetadata: func(context.Context) (int, error) { return 5, nil },
	}

	svc, _ := newTestHydrationSvc(t, ctrl, &stubRecordRepo{}, metadata)

	result, err := svc.Hydrate(testContext(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.HydrationNotNeeded, result.Status)
}

func TestHydrate_PagesSnapshotsAndSeedsMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var saved []models.Record
	records := &stubRecordRepo{
		saveRecords: func(_ context.Context, recs ...models.Record) error {
			saved = append(saved, recs...)
			return nil
		},
	}

	var seeded []models.SyncMetadata
	metadata := &stubMetadataRepo{
		saveMetadata: func(_ context.Context, meta models.SyncMetadata) error {
			seeded = append(seeded, meta)
			return nil
		},
	}

	svc, remote := newTestHydrationSvc(t, ctrl, records, metadata)

	remote.EXPECT().
		Summary(gomock.Any(), int64(0)).
		Return(models.SummaryResponse{HasChanges: true, LatestServerVersion: 77}, nil)

	// currencies needs two pages (full then short); everything else is empty
	gomock.InOrder(
		remote.EXPECT().
			Snapshot(gomock.Any(), models.TableCurrencies, models.SnapshotRequest{UserID: 1, Offset: 0, Limit: 2}).
			Return([]models.WireRecord{wireCurrency("c1", 3), wireCurrency("c2", 5)}, nil),
		remote.EXPECT().
			Snapshot(gomock.Any(), models.TableCurrencies, models.SnapshotRequest{UserID: 1, Offset: 2, Limit: 2}).
			Return([]models.WireRecord{wireCurrency("c3", 9)}, nil),
	)
	expectEmptySnapshots(remote, models.TableCurrencies)

	result, err := svc.Hydrate(testContext(), 1)
	require.NoError(t, err)

	assert.Equal(t, models.HydrationCompleted, result.Status)
	assert.Equal(t, 3, result.PerTableCounts[models.TableCurrencies])

	require.Len(t, saved, 3)
	for _, rec := range saved {
		assert.Equal(t, models.StatusSynced, rec.Status)
	}

	// one metadata row per table, all seeded at the pre-hydration latest
	// version so the next pull re-fetches concurrent writes
	require.Len(t, seeded, len(models.AllTables))
	for _, meta := range seeded {
		assert.Equal(t, int64(77), meta.LastSyncedVersion)
	}
}

func TestHydrate_TableFailureTurnsPartial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var seededTables []models.Table
	metadata := &stubMetadataRepo{
		saveMetadata: func(_ context.Context, meta models.SyncMetadata) error {
			seededTables = append(seededTables, meta.Table)
			return nil
		},
	}

	svc, remote := newTestHydrationSvc(t, ctrl, &stubRecordRepo{}, metadata)

	remote.EXPECT().
		Summary(gomock.Any(), int64(0)).
		Return(models.SummaryResponse{LatestServerVersion: 10}, nil)

	remote.EXPECT().
		Snapshot(gomock.Any(), models.TableBudgets, gomock.Any()).
		Return(nil, errors.New("timeout"))
	expectEmptySnapshots(remote, models.TableBudgets)

	result, err := svc.Hydrate(testContext(), 1)
	require.NoError(t, err)

	assert.Equal(t, models.HydrationPartial, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "budgets")

	// the failed table gets no metadata row, so the next pull starts it
	// from scratch
	assert.NotContains(t, seededTables, models.TableBudgets)
	assert.Len(t, seededTables, len(models.AllTables)-1)
}

func TestHydrate_SummaryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, remote := newTestHydrationSvc(t, ctrl, &stubRecordRepo{}, &stubMetadataRepo{})

	remote.EXPECT().
		Summary(gomock.Any(), int64(0)).
		Return(models.SummaryResponse{}, errors.New("unavailable"))

	result, err := svc.Hydrate(testContext(), 1)
	require.Error(t, err)
	assert.Equal(t, models.HydrationFailed, result.Status)
}

func TestForceRehydrate_ClearsChildrenBeforeParents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var cleared []models.Table
	metadataCleared := false

	records := &stubRecordRepo{
		clearTable: func(_ context.Context, table models.Table) error {
			cleared = append(cleared, table)
			return nil
		},
	}
	metadata := &stubMetadataRepo{
		clearMetadata: func(context.Context) error {
			metadataCleared = true
			return nil
		},
	}

	svc, remote := newTestHydrationSvc(t, ctrl, records, metadata)

	remote.EXPECT().
		Summary(gomock.Any(), int64(0)).
		Return(models.SummaryResponse{LatestServerVersion: 1}, nil)
	expectEmptySnapshots(remote)

	result, err := svc.ForceRehydrate(testContext(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.HydrationCompleted, result.Status)
	assert.True(t, metadataCleared)

	want := []models.Table{
		models.TableTransactions,
		models.TableBudgets,
		models.TableCategories,
		models.TableAccounts,
		models.TableCurrencies,
	}
	assert.Equal(t, want, cleared)
}

func TestHydrationService_NilLocalStore(t *testing.T) {
	svc := NewHydrationService(nil, nil, nil, config.Sync{}, logger.Nop())

	_, err := svc.IsHydrationNeeded(testContext())
	assert.ErrorIs(t, err, ErrNoLocalStore)

	result, err := svc.Hydrate(testContext(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.HydrationSkipped, result.Status)
}
