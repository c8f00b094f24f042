package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
)

func TestRunBillIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves ids through the raw dataset", func(t *testing.T) {
		store := newTestStore(t)
		saveRawBills(t, store, "ct_bills_2025", []core.BillRecord{
			{BillID: 101, BillNumber: "SB001", Title: "An Act Concerning Hospice Care"},
			{BillID: 202, BillNumber: "HB450", Title: "An Act Concerning Palliative Training"},
		})
		saveFilteredBills(t, store, "ct_bills_2025", []core.FilteredBill{
			{BillNumber: "SB001", URL: "https://legiscan.com/CT/bill/SB001/2025"},
			{BillNumber: "HB450", URL: "https://legiscan.com/CT/bill/HB450/2025"},
		})

		ids, err := RunBillIDs(ctx, store, "ct_bills_2025", "")
		require.NoError(t, err)
		assert.Equal(t, []int64{101, 202}, ids)
	})

	t.Run("omits bills the dataset does not know", func(t *testing.T) {
		store := newTestStore(t)
		saveRawBills(t, store, "ct_bills_2025", []core.BillRecord{
			{BillID: 101, BillNumber: "SB001", Title: "An Act Concerning Hospice Care"},
		})
		saveFilteredBills(t, store, "ct_bills_2025", []core.FilteredBill{
			{BillNumber: "SB001", URL: "https://legiscan.com/CT/bill/SB001/2025"},
			{BillNumber: "HB999", URL: "https://legiscan.com/CT/bill/HB999/2025"},
		})

		ids, err := RunBillIDs(ctx, store, "ct_bills_2025", "")
		require.NoError(t, err)
		assert.Equal(t, []int64{101}, ids)
	})

	t.Run("pins the source dataset", func(t *testing.T) {
		store := newTestStore(t)
		saveRawBills(t, store, "mi_bills_2024", []core.BillRecord{
			{BillID: 301, BillNumber: "SB001", Title: "An Act Concerning Hospice Care"},
		})
		saveFilteredBills(t, store, "hand_picked", []core.FilteredBill{
			{BillNumber: "SB001"},
		})

		ids, err := RunBillIDs(ctx, store, "hand_picked", "mi_bills_2024.json")
		require.NoError(t, err)
		assert.Equal(t, []int64{301}, ids)
	})

	t.Run("a missing run propagates not found", func(t *testing.T) {
		_, err := RunBillIDs(ctx, newTestStore(t), "absent_run", "")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("empty filter results fail", func(t *testing.T) {
		store := newTestStore(t)
		saveFilteredBills(t, store, "empty_run", []core.FilteredBill{})

		_, err := RunBillIDs(ctx, store, "empty_run", "")
		assert.ErrorIs(t, err, ErrNoBills)
	})

	t.Run("requires storage", func(t *testing.T) {
		_, err := RunBillIDs(ctx, nil, "ct_bills_2025", "")
		assert.ErrorIs(t, err, ErrStorageRequired)
	})
}
