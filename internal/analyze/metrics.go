package analyze

// metrics.go - Pure derived-metric calculators over reconciled records

import "time"

// StatusSummary tallies model statuses across a record set.
type StatusSummary struct {
	Total   int            `json:"total"`
	Reused  int            `json:"reused"`
	Success int            `json:"success"`
	Errors  int            `json:"errors"`
	ByStat  map[string]int `json:"by_status"`
}

// Summarize tallies the statuses of a flattened record set. Reused counts
// both "reused" and "skipped" statuses.
func Summarize(records []ModelStatusRecord) StatusSummary {
	summary := StatusSummary{ByStat: make(map[string]int)}
	for _, r := range records {
		summary.Total++
		summary.ByStat[r.Status]++
		switch {
		case IsReuse(r.Status):
			summary.Reused++
		case r.Status == StatusSuccess:
			summary.Success++
		case r.Status == StatusError:
			summary.Errors++
		}
	}
	return summary
}

// ReuseRate returns the share of reused/skipped executions, in percent.
func (s StatusSummary) ReuseRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Reused) / float64(s.Total) * 100
}

// ExpectedHours converts a build_after threshold to hours. Only "day" and
// "hour" periods are defined; any other period leaves the expectation
// undetermined (nil).
func ExpectedHours(count *int, period *string) *float64 {
	if count == nil || period == nil {
		return nil
	}
	var hours float64
	switch *period {
	case "day":
		hours = float64(*count) * 24
	case "hour":
		hours = float64(*count)
	default:
		return nil
	}
	return &hours
}

// IsOutsideSLO reports whether hoursElapsed exceeds the expected interval.
// An undetermined expectation never breaches.
func IsOutsideSLO(hoursElapsed float64, expectedHours *float64) bool {
	if expectedHours == nil {
		return false
	}
	return hoursElapsed > *expectedHours
}

// HoursSince returns the hours elapsed from an RFC3339 timestamp to now,
// or nil when the timestamp is absent or unparseable.
func HoursSince(timestamp string, now time.Time) *float64 {
	if timestamp == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil
	}
	hours := now.Sub(t).Hours()
	return &hours
}

// CostRow is the costed view of one model execution.
type CostRow struct {
	UniqueID string  `json:"unique_id"`
	Name     string  `json:"name"`
	RunID    int64   `json:"run_id"`
	JobName  string  `json:"job_name"`
	Status   string  `json:"status"`
	RunAt    string  `json:"run_at"`
	Seconds  float64 `json:"execution_time"`
	// ExpectedSeconds is the actual time for executed models, and the mean
	// successful time for reused models (falling back to their own time when
	// the model never executed within the batch)
	ExpectedSeconds float64 `json:"expected_execution_time"`
	Cost            float64 `json:"cost"`
	ExpectedCost    float64 `json:"expected_cost"`
	Savings         float64 `json:"savings"`
}

// CostReport aggregates costed rows.
type CostReport struct {
	Rows         []CostRow `json:"rows"`
	TotalCost    float64   `json:"total_cost"`
	TotalSavings float64   `json:"total_savings"`
}

// ROI returns savings relative to actual spend, in percent. Zero spend with
// zero savings yields zero.
func (c *CostReport) ROI() float64 {
	if c.TotalCost == 0 {
		if c.TotalSavings > 0 {
			return 100
		}
		return 0
	}
	return c.TotalSavings / c.TotalCost * 100
}

// CalculateCosts prices every execution in the batch at costPerHour.
// Successful executions cost their measured time; reused executions cost
// nothing and their savings are priced at the model's mean successful time
// across the batch.
func CalculateCosts(result *BatchResult, costPerHour float64) *CostReport {
	// Mean successful execution time per model.
	successTotal := make(map[string]float64)
	successCount := make(map[string]int)
	for _, record := range result.Records {
		for _, m := range record.Models {
			if m.Status == StatusSuccess {
				successTotal[m.UniqueID] += m.ExecutionTime
				successCount[m.UniqueID]++
			}
		}
	}

	report := &CostReport{}
	for _, record := range result.Records {
		for _, m := range record.Models {
			expected := m.ExecutionTime
			if m.Status != StatusSuccess {
				if n := successCount[m.UniqueID]; n > 0 {
					expected = successTotal[m.UniqueID] / float64(n)
				}
			}

			row := CostRow{
				UniqueID:        m.UniqueID,
				Name:            m.Name,
				RunID:           record.RunID,
				JobName:         record.JobName,
				Status:          m.Status,
				RunAt:           record.CreatedAt,
				Seconds:         m.ExecutionTime,
				ExpectedSeconds: expected,
				ExpectedCost:    expected / 3600 * costPerHour,
			}
			if m.Status == StatusSuccess {
				row.Cost = m.ExecutionTime / 3600 * costPerHour
			}
			row.Savings = row.ExpectedCost - row.Cost

			report.Rows = append(report.Rows, row)
			report.TotalCost += row.Cost
			report.TotalSavings += row.Savings
		}
	}
	return report
}
