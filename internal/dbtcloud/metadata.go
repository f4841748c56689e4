package dbtcloud

// metadata.go - Discovery (GraphQL) API client for environment-scoped model metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultMetadataURL is the Discovery API endpoint for the multi-tenant instance.
const DefaultMetadataURL = "https://metadata.cloud.getdbt.com/graphql"

// DefaultPageSize is how many models one Discovery API page requests.
const DefaultPageSize = 500

// environmentModelsQuery pages through the applied models of an environment.
const environmentModelsQuery = `
query Environment($environmentId: BigInt!, $first: Int, $after: String) {
  environment(id: $environmentId) {
    applied {
      models(first: $first, after: $after) {
        pageInfo {
          startCursor
          endCursor
          hasNextPage
        }
        edges {
          node {
            config
            name
            packageName
            resourceType
            executionInfo {
              lastRunGeneratedAt
              lastRunStatus
              lastSuccessJobDefinitionId
              lastSuccessRunId
              lastRunError
              executeCompletedAt
            }
          }
        }
      }
    }
  }
}
`

// EnvironmentModel is one model node from the Discovery API.
type EnvironmentModel struct {
	Name          string          `json:"name"`
	PackageName   string          `json:"packageName"`
	ResourceType  string          `json:"resourceType"`
	Config        json.RawMessage `json:"config"`
	ExecutionInfo *ExecutionInfo  `json:"executionInfo"`
}

// ExecutionInfo summarizes a model's most recent executions.
type ExecutionInfo struct {
	LastRunGeneratedAt         string `json:"lastRunGeneratedAt"`
	LastRunStatus              string `json:"lastRunStatus"`
	LastSuccessJobDefinitionID int64  `json:"lastSuccessJobDefinitionId"`
	LastSuccessRunID           int64  `json:"lastSuccessRunId"`
	LastRunError               string `json:"lastRunError"`
	ExecuteCompletedAt         string `json:"executeCompletedAt"`
}

// graphqlResponse is the Discovery API response shape for environmentModelsQuery.
type graphqlResponse struct {
	Data struct {
		Environment struct {
			Applied struct {
				Models struct {
					PageInfo struct {
						StartCursor string `json:"startCursor"`
						EndCursor   string `json:"endCursor"`
						HasNextPage bool   `json:"hasNextPage"`
					} `json:"pageInfo"`
					Edges []struct {
						Node EnvironmentModel `json:"node"`
					} `json:"edges"`
				} `json:"models"`
			} `json:"applied"`
		} `json:"environment"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// MetadataClient issues paginated queries against the Discovery API.
type MetadataClient struct {
	client   *Client
	endpoint string
	pageSize int
}

// NewMetadataClient creates a Discovery API client sharing the parent
// client's credentials and HTTP transport. An empty endpoint uses
// DefaultMetadataURL; a non-positive pageSize uses DefaultPageSize.
func NewMetadataClient(client *Client, endpoint string, pageSize int) *MetadataClient {
	if endpoint == "" {
		endpoint = DefaultMetadataURL
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MetadataClient{client: client, endpoint: endpoint, pageSize: pageSize}
}

// ListEnvironmentModels fetches every applied model in the environment,
// following hasNextPage/endCursor until exhaustion.
func (m *MetadataClient) ListEnvironmentModels(ctx context.Context, environmentID int64) ([]EnvironmentModel, error) {
	var all []EnvironmentModel
	cursor := ""
	page := 0

	for {
		page++
		m.client.logger.Debug("fetching environment models page", "environment_id", environmentID, "page", page)

		resp, err := m.queryPage(ctx, environmentID, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch models page %d: %w", page, err)
		}
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("discovery API error: %s", resp.Errors[0].Message)
		}

		models := resp.Data.Environment.Applied.Models
		for _, edge := range models.Edges {
			all = append(all, edge.Node)
		}

		if !models.PageInfo.HasNextPage {
			break
		}
		cursor = models.PageInfo.EndCursor
	}

	return all, nil
}

// queryPage issues one GraphQL request for a single page of models.
func (m *MetadataClient) queryPage(ctx context.Context, environmentID int64, cursor string) (*graphqlResponse, error) {
	variables := map[string]any{
		"environmentId": environmentID,
		"first":         m.pageSize,
	}
	if cursor != "" {
		variables["after"] = cursor
	}

	payload, err := json.Marshal(map[string]any{
		"query":     environmentModelsQuery,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.client.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body), URL: m.endpoint}
	}

	var decoded graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &decoded, nil
}
