package http

import (
	"errors"
	"net/http"

	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/models"
)

var errorStatusMap = map[error]int{
	store.ErrUnknownTable:      http.StatusBadRequest,
	store.ErrRecordNotFound:    http.StatusNotFound,
	store.ErrMetadataNotFound:  http.StatusNotFound,
	store.ErrConflictNotFound:  http.StatusNotFound,
	store.ErrVersionRegression: http.StatusConflict,

	models.ErrFractionalAmount: http.StatusBadRequest,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
