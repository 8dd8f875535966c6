package director

import (
	"strconv"

	"github.com/Seintian/postoffice/internal/shm"
)

// reportDay logs the structured end-of-day summary from the difference
// between the day's opening and closing counters.
func (d *Director) reportDay(day int, before, after shm.Stats) {
	snap := d.Snapshot()

	args := []any{
		"day", day,
		"issued", after.Issued - before.Issued,
		"served", after.Served - before.Served,
		"unserved", after.Unserved - before.Unserved,
		"visits", after.Visits - before.Visits,
		"vip_visits", after.VIPVisits - before.VIPVisits,
		"reassigned", after.Reassigned - before.Reassigned,
		"task_drops", d.tasks.Dropped(),
	}
	for _, q := range snap.Queues {
		args = append(args, "served_"+q.Service.String(), q.Served)
	}
	d.logger.Info("day report", args...)
}

// reportFinal logs the cumulative run summary at shutdown.
func (d *Director) reportFinal(reason string) {
	stats := d.block.Stats().Snapshot()
	snap := d.Snapshot()

	args := []any{
		"reason", reason,
		"days", snap.Clock.Day,
		"issued", stats.Issued,
		"served", stats.Served,
		"unserved", stats.Unserved,
		"visits", stats.Visits,
		"vip_visits", stats.VIPVisits,
		"reassigned", stats.Reassigned,
		"task_drops", d.tasks.Dropped(),
		"tasks_run", d.tasks.Executed(),
	}
	for _, q := range snap.Queues {
		args = append(args, "served_"+q.Service.String(), q.Served)
	}
	d.logger.Info("final report", args...)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
