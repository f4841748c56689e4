package analyze

// freshness.go - Freshness configuration extraction and coverage rows

import (
	"encoding/json"

	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
)

// freshnessConfig mirrors the freshness object as it appears on manifest
// nodes, sources, and Discovery API model configs. Every field is optional.
type freshnessConfig struct {
	WarnAfter  *freshnessThreshold `json:"warn_after"`
	ErrorAfter *freshnessThreshold `json:"error_after"`
	BuildAfter *freshnessThreshold `json:"build_after"`
	UpdatesOn  *string             `json:"updates_on"`
}

// freshnessThreshold is a count/period pair; either half may be absent.
type freshnessThreshold struct {
	Count  *int    `json:"count"`
	Period *string `json:"period"`

	// build_after sometimes nests updates_on under the threshold
	UpdatesOn *string `json:"updates_on"`
}

// empty reports whether the config carries no fields at all.
func (f *freshnessConfig) empty() bool {
	return f.WarnAfter == nil && f.ErrorAfter == nil && f.BuildAfter == nil && f.UpdatesOn == nil
}

// hasCount reports whether a warn or error count is present. Sources are
// only considered freshness-configured when this holds.
func (f *freshnessConfig) hasCount() bool {
	if f.WarnAfter != nil && f.WarnAfter.Count != nil {
		return true
	}
	if f.ErrorAfter != nil && f.ErrorAfter.Count != nil {
		return true
	}
	return false
}

// decodeFreshness parses a raw freshness config. Absent, null, or malformed
// configs decode to nil; upstream artifacts are heterogeneous enough that
// malformed shapes are defaulted rather than surfaced.
func decodeFreshness(raw json.RawMessage) *freshnessConfig {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var cfg freshnessConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil
	}
	return &cfg
}

// fields flattens the config into FreshnessFields. A nil config yields
// all-null fields.
func (f *freshnessConfig) fields() FreshnessFields {
	var out FreshnessFields
	if f == nil {
		return out
	}
	if f.WarnAfter != nil {
		out.WarnAfterCount = f.WarnAfter.Count
		out.WarnAfterPeriod = f.WarnAfter.Period
	}
	if f.ErrorAfter != nil {
		out.ErrorAfterCount = f.ErrorAfter.Count
		out.ErrorAfterPeriod = f.ErrorAfter.Period
	}
	if f.BuildAfter != nil {
		out.BuildAfterCount = f.BuildAfter.Count
		out.BuildAfterPeriod = f.BuildAfter.Period
		if out.UpdatesOn == nil {
			out.UpdatesOn = f.BuildAfter.UpdatesOn
		}
	}
	if f.UpdatesOn != nil {
		out.UpdatesOn = f.UpdatesOn
	}
	return out
}

// ExtractFreshnessFields normalizes a raw freshness config into its
// individual fields. Missing sub-objects and fields become nil, never errors.
func ExtractFreshnessFields(raw json.RawMessage) FreshnessFields {
	return decodeFreshness(raw).fields()
}

// FreshnessReport builds the freshness coverage rows for one manifest:
// every non-excluded node plus every source.
//
// "Configured" is deliberately asymmetric between resource types. A model
// counts as configured whenever its freshness object is present and
// non-empty, whichever fields it carries. A source counts as configured only
// when a warn_after or error_after count is set; a present but count-less
// source config is discarded entirely. This mirrors how the platform applies
// the two config shapes and must not be unified.
func FreshnessReport(manifest *dbtcloud.Manifest) []FreshnessRow {
	var rows []FreshnessRow

	for uniqueID, node := range manifest.Nodes {
		if excludedResourceTypes[node.ResourceType] {
			continue
		}

		// config.freshness is the common location; top-level freshness is
		// the alternative.
		cfg := decodeFreshness(node.Config.Freshness)
		if cfg == nil || cfg.empty() {
			cfg = decodeFreshness(node.Freshness)
		}

		rows = append(rows, FreshnessRow{
			UniqueID:        uniqueID,
			ResourceType:    node.ResourceType,
			Name:            node.Name,
			IsConfigured:    cfg != nil && !cfg.empty(),
			FreshnessFields: cfg.fields(),
		})
	}

	for uniqueID, source := range manifest.Sources {
		cfg := decodeFreshness(source.Freshness)
		configured := cfg != nil && cfg.hasCount()
		if !configured {
			cfg = nil
		}

		resourceType := source.ResourceType
		if resourceType == "" {
			resourceType = "source"
		}

		rows = append(rows, FreshnessRow{
			UniqueID:        uniqueID,
			ResourceType:    resourceType,
			Name:            source.Name,
			IsConfigured:    configured,
			FreshnessFields: cfg.fields(),
		})
	}

	return rows
}
