package leave

import "sort"

// MonthlyByStatus groups leaves by start month and status, ordered by month
// then status.
func MonthlyByStatus(leaves []Leave) []MonthStatusStat {
	type key struct {
		month  int
		status Status
	}
	grouped := make(map[key]*MonthStatusStat)
	for _, l := range leaves {
		k := key{int(l.StartDate.Month()), l.Status}
		st, ok := grouped[k]
		if !ok {
			st = &MonthStatusStat{Month: k.month, Status: string(k.status)}
			grouped[k] = st
		}
		st.Count++
		st.TotalDays += l.TotalDays
	}

	stats := make([]MonthStatusStat, 0, len(grouped))
	for _, st := range grouped {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Month != stats[j].Month {
			return stats[i].Month < stats[j].Month
		}
		return stats[i].Status < stats[j].Status
	})
	return stats
}

// StartingIn keeps the leaves whose start date falls in year.
func StartingIn(leaves []Leave, year int) []Leave {
	out := make([]Leave, 0, len(leaves))
	for _, l := range leaves {
		if l.StartDate.Year() == year {
			out = append(out, l)
		}
	}
	return out
}
