package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
)

func TestExportHistoryWorkbook(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.intake(t, "TH1", "101")
	h.intake(t, "TH2", "102")
	_, err := h.svc.Collect(ctx, first.ID, h.staff.ID, CollectInput{})
	require.NoError(t, err)

	data, err := h.svc.ExportHistory(ctx, repository.ParcelFilter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, historyExportHeader, rows[0])
	assert.Equal(t, "TH2", rows[1][1])
	assert.Equal(t, "102", rows[1][3])
	assert.Equal(t, string(domain.ParcelStatusPending), rows[1][6])
	assert.Equal(t, string(domain.ParcelStatusCollected), rows[2][6])
	assert.Equal(t, "staff01", rows[2][10])
}

func TestExportHistoryFiltered(t *testing.T) {
	h := newHarness(t)
	h.intake(t, "TH1", "101")

	data, err := h.svc.ExportHistory(context.Background(), repository.ParcelFilter{RoomNumber: strPtr("999")})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(historySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
