package analyze

import (
	"encoding/json"
	"testing"

	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFreshnessFields_NilAndEmptyAreEqual(t *testing.T) {
	fromNil := ExtractFreshnessFields(nil)
	fromNull := ExtractFreshnessFields(json.RawMessage("null"))
	fromEmpty := ExtractFreshnessFields(json.RawMessage("{}"))

	assert.Equal(t, FreshnessFields{}, fromNil)
	assert.Equal(t, fromNil, fromNull)
	assert.Equal(t, fromNil, fromEmpty)
}

func TestExtractFreshnessFields_AllFields(t *testing.T) {
	raw := json.RawMessage(`{
		"warn_after": {"count": 1, "period": "day"},
		"error_after": {"count": 2, "period": "day"},
		"build_after": {"count": 4, "period": "hour"},
		"updates_on": "any"
	}`)

	fields := ExtractFreshnessFields(raw)
	require.NotNil(t, fields.WarnAfterCount)
	assert.Equal(t, 1, *fields.WarnAfterCount)
	assert.Equal(t, "day", *fields.WarnAfterPeriod)
	assert.Equal(t, 2, *fields.ErrorAfterCount)
	assert.Equal(t, 4, *fields.BuildAfterCount)
	assert.Equal(t, "hour", *fields.BuildAfterPeriod)
	assert.Equal(t, "any", *fields.UpdatesOn)
}

func TestExtractFreshnessFields_PartialConfig(t *testing.T) {
	raw := json.RawMessage(`{"warn_after": {"period": "day"}}`)

	fields := ExtractFreshnessFields(raw)
	assert.Nil(t, fields.WarnAfterCount)
	require.NotNil(t, fields.WarnAfterPeriod)
	assert.Equal(t, "day", *fields.WarnAfterPeriod)
	assert.Nil(t, fields.ErrorAfterCount)
	assert.Nil(t, fields.BuildAfterCount)
	assert.Nil(t, fields.UpdatesOn)
}

func TestExtractFreshnessFields_NestedUpdatesOn(t *testing.T) {
	raw := json.RawMessage(`{"build_after": {"count": 1, "period": "day", "updates_on": "all"}}`)

	fields := ExtractFreshnessFields(raw)
	require.NotNil(t, fields.UpdatesOn)
	assert.Equal(t, "all", *fields.UpdatesOn)
}

func TestFreshnessReport_ModelConfiguredByAnyNonEmptyConfig(t *testing.T) {
	// A model with only updates_on, no counts anywhere, still counts as
	// configured. Sources are held to the stricter count-based rule.
	manifest := &dbtcloud.Manifest{
		Nodes: map[string]dbtcloud.ManifestNode{
			"model.proj.orders": {
				UniqueID:     "model.proj.orders",
				Name:         "orders",
				ResourceType: "model",
				Config:       dbtcloud.NodeConfig{Freshness: json.RawMessage(`{"updates_on": "any"}`)},
			},
		},
	}

	rows := FreshnessReport(manifest)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsConfigured)
	assert.Equal(t, "any", *rows[0].UpdatesOn)
	assert.Nil(t, rows[0].BuildAfterCount)
}

func TestFreshnessReport_TopLevelFreshnessFallback(t *testing.T) {
	manifest := &dbtcloud.Manifest{
		Nodes: map[string]dbtcloud.ManifestNode{
			"model.proj.orders": {
				UniqueID:     "model.proj.orders",
				Name:         "orders",
				ResourceType: "model",
				Freshness:    json.RawMessage(`{"build_after": {"count": 1, "period": "day"}}`),
			},
		},
	}

	rows := FreshnessReport(manifest)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsConfigured)
	require.NotNil(t, rows[0].BuildAfterCount)
	assert.Equal(t, 1, *rows[0].BuildAfterCount)
}

func TestFreshnessReport_SourceRequiresCount(t *testing.T) {
	manifest := &dbtcloud.Manifest{
		Sources: map[string]dbtcloud.SourceNode{
			"source.proj.raw.orders": {
				UniqueID:  "source.proj.raw.orders",
				Name:      "orders",
				Freshness: json.RawMessage(`{"warn_after": {"count": 1, "period": "day"}}`),
			},
			"source.proj.raw.events": {
				UniqueID:  "source.proj.raw.events",
				Name:      "events",
				Freshness: json.RawMessage(`{"warn_after": {"period": "day"}}`),
			},
		},
	}

	rows := FreshnessReport(manifest)
	require.Len(t, rows, 2)

	byID := make(map[string]FreshnessRow)
	for _, r := range rows {
		byID[r.UniqueID] = r
	}

	configured := byID["source.proj.raw.orders"]
	assert.True(t, configured.IsConfigured)
	assert.Equal(t, "source", configured.ResourceType)
	require.NotNil(t, configured.WarnAfterCount)

	// Count-less source config is discarded, fields included.
	unconfigured := byID["source.proj.raw.events"]
	assert.False(t, unconfigured.IsConfigured)
	assert.Nil(t, unconfigured.WarnAfterPeriod)
}

func TestFreshnessReport_SkipsExcludedNodeTypes(t *testing.T) {
	manifest := &dbtcloud.Manifest{
		Nodes: map[string]dbtcloud.ManifestNode{
			"model.proj.orders": {UniqueID: "model.proj.orders", Name: "orders", ResourceType: "model"},
			"seed.proj.codes":   {UniqueID: "seed.proj.codes", Name: "codes", ResourceType: "seed"},
			"test.proj.t":       {UniqueID: "test.proj.t", Name: "t", ResourceType: "test"},
		},
	}

	rows := FreshnessReport(manifest)
	require.Len(t, rows, 1)
	assert.Equal(t, "model.proj.orders", rows[0].UniqueID)
	assert.False(t, rows[0].IsConfigured)
}
