package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logger"
	"github.com/ledgerkeep/ledgerkeep/models"
)

type httpRemoteStore struct {
	client *resty.Client
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPRemoteStore constructs the HTTP/REST implementation of
// [RemoteStore]. Transient failures (network errors and 5xx responses) are
// retried with exponential backoff per the sync configuration; 4xx
// responses, including version conflicts, are never retried.
func NewHTTPRemoteStore(remoteCfg config.Remote, syncCfg config.Sync, log *logger.Logger) (RemoteStore, error) {
	baseURL, err := normalizeBaseURL(remoteCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote address: %w", err)
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(remoteCfg.RequestTimeout).
		SetRetryCount(syncCfg.MaxRetries).
		SetRetryWaitTime(syncCfg.InitialRetryDelay).
		SetRetryMaxWaitTime(syncCfg.MaxRetryDelay).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() >= http.StatusInternalServerError
		})

	store := &httpRemoteStore{client: cli, logger: log}
	store.SetToken(remoteCfg.Token)

	return store, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	return strings.TrimRight(raw, "/"), nil
}

func (h *httpRemoteStore) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpRemoteStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpRemoteStore) Upsert(ctx context.Context, table models.Table, req models.UpsertRequest) (models.UpsertResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(fmt.Sprintf("/api/sync/%s/upsert", table))
	if err != nil {
		return models.UpsertResponse{}, fmt.Errorf("%w: upsert request: %w", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.UpsertResponse{}, err
	}

	var result models.UpsertResponse
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.UpsertResponse{}, fmt.Errorf("decode upsert response: %w", err)
	}

	return result, nil
}

func (h *httpRemoteStore) Changes(ctx context.Context, req models.ChangesRequest) ([]models.WireRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/sync/changes")
	if err != nil {
		return nil, fmt.Errorf("%w: changes request: %w", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return decodeRecordPage(req.Table, resp.Body())
}

func (h *httpRemoteStore) Summary(ctx context.Context, since int64) (models.SummaryResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetQueryParam("since", strconv.FormatInt(since, 10)).
		Get("/api/sync/summary")
	if err != nil {
		return models.SummaryResponse{}, fmt.Errorf("%w: summary request: %w", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SummaryResponse{}, err
	}

	var result models.SummaryResponse
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.SummaryResponse{}, fmt.Errorf("decode summary response: %w", err)
	}

	return result, nil
}

func (h *httpRemoteStore) Snapshot(ctx context.Context, table models.Table, req models.SnapshotRequest) ([]models.WireRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(fmt.Sprintf("/api/sync/%s/snapshot", table))
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot request: %w", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return decodeRecordPage(table, resp.Body())
}

func (h *httpRemoteStore) Fetch(ctx context.Context, table models.Table, req models.FetchRequest) ([]models.WireRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(fmt.Sprintf("/api/sync/%s/fetch", table))
	if err != nil {
		return nil, fmt.Errorf("%w: fetch request: %w", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return decodeRecordPage(table, resp.Body())
}

func (h *httpRemoteStore) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func decodeRecordPage(table models.Table, body []byte) ([]models.WireRecord, error) {
	var page models.RecordPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode record page: %w", err)
	}

	records, err := models.DecodeWireRecords(table, page.Records)
	if err != nil {
		return nil, fmt.Errorf("decode %s records: %w", table, err)
	}

	return records, nil
}
