package dbtcloud

// artifacts.go - Run artifact retrieval (manifest.json, run_results.json, run steps)

import (
	"context"
	"fmt"
	"net/url"
)

// FetchManifest retrieves the manifest.json artifact for a run.
func (c *Client) FetchManifest(ctx context.Context, runID int64) (*Manifest, error) {
	u := c.accountURL(fmt.Sprintf("runs/%d/artifacts/manifest.json", runID), nil)

	var manifest Manifest
	if err := c.getJSON(ctx, u, &manifest); err != nil {
		return nil, fmt.Errorf("fetch manifest for run %d: %w", runID, err)
	}
	return &manifest, nil
}

// FetchRunResults retrieves the run_results.json artifact for a run.
// A non-negative step fetches the artifact produced by that step; a negative
// step fetches the run's default (last-step) artifact.
func (c *Client) FetchRunResults(ctx context.Context, runID int64, step int) (*RunResults, error) {
	params := url.Values{}
	if step >= 0 {
		params.Set("step", fmt.Sprintf("%d", step))
	}
	u := c.accountURL(fmt.Sprintf("runs/%d/artifacts/run_results.json", runID), params)

	var results RunResults
	if err := c.getJSON(ctx, u, &results); err != nil {
		return nil, fmt.Errorf("fetch run results for run %d: %w", runID, err)
	}
	return &results, nil
}

// FetchRunSteps retrieves the run with its related step list.
func (c *Client) FetchRunSteps(ctx context.Context, runID int64) ([]RunStep, error) {
	params := url.Values{}
	params.Set("include_related", `["run_steps"]`)
	u := c.accountURL(fmt.Sprintf("runs/%d/", runID), params)

	var envelope runEnvelope
	if err := c.getJSON(ctx, u, &envelope); err != nil {
		return nil, fmt.Errorf("fetch run steps for run %d: %w", runID, err)
	}
	return envelope.Data.RunSteps, nil
}
