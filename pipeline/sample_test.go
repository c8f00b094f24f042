package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/core"
)

func TestSelectSample(t *testing.T) {
	bills := []core.NormalizedBill{
		{BillNumber: "SB001", Title: "An Act Concerning Road Maintenance", Reason: "Mentions payment rates"},
		{BillNumber: "SB002", Title: "An Act Establishing Pediatric Hospice Facilities", Reason: "Creates pediatric hospice capacity"},
		{BillNumber: "SB003", Title: "An Act Concerning Palliative Care Training", Reason: "Expands the care workforce"},
		{BillNumber: "SB004", Title: "An Act On Licensing", Reason: "Addresses pain management prescribing"},
		{BillNumber: "SB005", Title: "An Act Concerning Nursing", Reason: "Nurse workforce and loan forgiveness"},
		{BillNumber: "SB006", Title: "An Act Concerning Parks", Reason: "Trail funding"},
	}

	t.Run("prefers the keyword tiers in order", func(t *testing.T) {
		sample := SelectSample(bills, 4)
		require.Len(t, sample, 4)
		assert.Equal(t, "SB002", sample[0].BillNumber)
		assert.Equal(t, "SB003", sample[1].BillNumber)
		assert.Equal(t, "SB004", sample[2].BillNumber)
		assert.Equal(t, "SB005", sample[3].BillNumber)
	})

	t.Run("fills remaining slots in input order", func(t *testing.T) {
		plain := []core.NormalizedBill{
			{BillNumber: "HB001", Title: "An Act Concerning Bridges", Reason: "Infrastructure"},
			{BillNumber: "HB002", Title: "An Act Establishing Pediatric Hospice Beds", Reason: "Capacity"},
			{BillNumber: "HB003", Title: "An Act Concerning Schools", Reason: "Curriculum"},
		}

		sample := SelectSample(plain, 2)
		require.Len(t, sample, 2)
		assert.Equal(t, "HB002", sample[0].BillNumber)
		assert.Equal(t, "HB001", sample[1].BillNumber)
	})

	t.Run("never selects the same bill twice", func(t *testing.T) {
		sample := SelectSample(bills, 5)
		require.Len(t, sample, 5)
		seen := map[string]bool{}
		for _, bill := range sample {
			assert.False(t, seen[bill.BillNumber], "bill %s selected twice", bill.BillNumber)
			seen[bill.BillNumber] = true
		}
	})

	t.Run("returns the input unchanged when it fits", func(t *testing.T) {
		assert.Equal(t, bills, SelectSample(bills, len(bills)))
		assert.Equal(t, bills, SelectSample(bills, 100))
		assert.Equal(t, bills, SelectSample(bills, 0))
	})
}
