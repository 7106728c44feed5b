package memory

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"timesheet/internal/core"
)

const (
	mockEntryCount = 50
	mockDaySpread  = 30
)

var mockUsers = []string{"1", "2", "3"}

// MockEntries generates demo entries spread over the mockDaySpread days up to
// now. The same seed always yields the same entries for a given now.
func MockEntries(now time.Time, tax core.Taxonomy, seed int64) []core.TimeEntry {
	if len(tax.Mains) == 0 {
		return nil
	}
	rnd := rand.New(rand.NewSource(seed))
	out := make([]core.TimeEntry, 0, mockEntryCount)
	for i := 0; i < mockEntryCount; i++ {
		main := tax.Mains[rnd.Intn(len(tax.Mains))]
		subs := tax.SubsOf(main.ID)
		if len(subs) == 0 {
			continue
		}
		sub := subs[rnd.Intn(len(subs))]

		startHour := 8 + rnd.Intn(8)
		hours := 1 + rnd.Intn(4)
		out = append(out, core.TimeEntry{
			ID:             strconv.Itoa(i + 1),
			UserID:         mockUsers[rnd.Intn(len(mockUsers))],
			Date:           now.AddDate(0, 0, -rnd.Intn(mockDaySpread)).Format(core.DateLayout),
			StartTime:      fmt.Sprintf("%02d:00", startHour),
			EndTime:        fmt.Sprintf("%02d:00", startHour+hours),
			MainCategoryID: main.ID,
			SubCategoryID:  sub.ID,
			Description:    fmt.Sprintf("Mock entry %d", i+1),
			Duration:       hours * 60,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return out
}
