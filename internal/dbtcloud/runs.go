package dbtcloud

// runs.go - Run listing with offset pagination

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// apiMaxPageSize is the largest page the Admin API serves per request.
const apiMaxPageSize = 100

// ListRunsOptions filters a run listing.
type ListRunsOptions struct {
	// JobID restricts the listing to one job definition (0 for all jobs)
	JobID int64
	// Statuses filters by run status code; the API accepts a single status
	// per request, so multiple statuses issue one paginated listing each
	Statuses []int
	// Limit caps the total number of runs returned (0 means apiMaxPageSize)
	Limit int
	// IncludeRelated names related objects to embed (e.g. "job", "environment")
	IncludeRelated []string
}

// ListRuns fetches runs ordered by descending id, paginating by offset until
// the requested limit is reached or a short page signals exhaustion.
func (c *Client) ListRuns(ctx context.Context, opts ListRunsOptions) ([]Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = apiMaxPageSize
	}

	if len(opts.Statuses) <= 1 {
		status := 0
		if len(opts.Statuses) == 1 {
			status = opts.Statuses[0]
		}
		return c.listRunsByStatus(ctx, opts, status, limit)
	}

	// One paginated listing per status, de-duplicated and re-sorted.
	var all []Run
	seen := make(map[int64]bool)
	for _, status := range opts.Statuses {
		runs, err := c.listRunsByStatus(ctx, opts, status, limit)
		if err != nil {
			return nil, err
		}
		for _, run := range runs {
			if !seen[run.ID] {
				seen[run.ID] = true
				all = append(all, run)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// listRunsByStatus pages through the run listing for a single status filter
// (status 0 means unfiltered).
func (c *Client) listRunsByStatus(ctx context.Context, opts ListRunsOptions, status, limit int) ([]Run, error) {
	var all []Run
	offset := 0

	for len(all) < limit {
		pageLimit := limit - len(all)
		if pageLimit > apiMaxPageSize {
			pageLimit = apiMaxPageSize
		}

		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", pageLimit))
		params.Set("offset", fmt.Sprintf("%d", offset))
		params.Set("order_by", "-id")
		if opts.JobID != 0 {
			params.Set("job_definition_id", fmt.Sprintf("%d", opts.JobID))
		}
		if status != 0 {
			params.Set("status", fmt.Sprintf("%d", status))
		}
		if len(opts.IncludeRelated) > 0 {
			params.Set("include_related", encodeRelated(opts.IncludeRelated))
		}

		var envelope runListEnvelope
		if err := c.getJSON(ctx, c.accountURL("runs/", params), &envelope); err != nil {
			return nil, fmt.Errorf("list runs (offset %d): %w", offset, err)
		}

		page := envelope.Data
		if len(page) == 0 {
			break
		}
		all = append(all, page...)

		// Short page means the listing is exhausted.
		if len(page) < pageLimit {
			break
		}
		offset += len(page)
	}

	return all, nil
}

// LatestRun returns the job's most recent run regardless of status,
// or nil when the job has no runs.
func (c *Client) LatestRun(ctx context.Context, jobID int64) (*Run, error) {
	runs, err := c.ListRuns(ctx, ListRunsOptions{JobID: jobID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// LatestSuccessfulRun returns the job's most recent successful run,
// or nil when the job has never succeeded.
func (c *Client) LatestSuccessfulRun(ctx context.Context, jobID int64) (*Run, error) {
	runs, err := c.ListRuns(ctx, ListRunsOptions{JobID: jobID, Statuses: []int{RunStatusSuccess}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// encodeRelated renders include_related the way the Admin API expects:
// a JSON-ish list of quoted names.
func encodeRelated(related []string) string {
	out := "["
	for i, r := range related {
		if i > 0 {
			out += ","
		}
		out += `"` + r + `"`
	}
	return out + "]"
}
