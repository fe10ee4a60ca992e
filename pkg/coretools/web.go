package coretools

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	tavilygo "github.com/diverged/tavily-go"
	tavilymodels "github.com/diverged/tavily-go/models"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

const maxResponseBytes = 1 << 20 // 1MB

func httpRequestTool(opts Options) toolexec.ToolDefinition {
	return toolexec.ToolDefinition{
		Name:        "http_request",
		Description: "Perform an HTTP request and return status, headers and body.",
		Category:    toolexec.CategoryNetwork,
		Parameters: []toolexec.ToolParameter{
			{Name: "url", Type: "string", Description: "Target URL (http or https)", Required: true},
			{Name: "method", Type: "string", Description: "HTTP method (default GET)", Required: false, Default: "GET"},
			{Name: "headers", Type: "object", Description: "Request headers", Required: false},
			{Name: "body", Type: "string", Description: "Request body", Required: false},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			rawURL, _ := params["url"].(string)
			rawURL = strings.TrimSpace(rawURL)
			if rawURL == "" {
				return nil, toolexec.Argumentf("url is required")
			}
			if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
				return nil, toolexec.Argumentf("url must start with http:// or https://")
			}

			method := "GET"
			if raw, ok := params["method"].(string); ok && raw != "" {
				method = strings.ToUpper(strings.TrimSpace(raw))
			}
			switch method {
			case "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD":
			default:
				return nil, toolexec.Argumentf("unsupported method %q", method)
			}

			var bodyReader io.Reader
			if body, ok := params["body"].(string); ok && body != "" {
				bodyReader = strings.NewReader(body)
			}

			req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
			if err != nil {
				return nil, err
			}
			for key, value := range toStringMap(params["headers"]) {
				req.Header.Set(key, value)
			}

			client := &http.Client{Timeout: opts.HTTPTimeout}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			if err != nil {
				return nil, err
			}

			headers := make(map[string]string, len(resp.Header))
			for key := range resp.Header {
				headers[key] = resp.Header.Get(key)
			}

			return map[string]interface{}{
				"status":  resp.StatusCode,
				"headers": headers,
				"body":    string(data),
				"bytes":   len(data),
			}, nil
		},
	}
}

func webSearchTool(opts Options) toolexec.ToolDefinition {
	return toolexec.ToolDefinition{
		Name:        "web_search",
		Description: "Search the web via the Tavily API and return ranked results.",
		Category:    toolexec.CategoryNetwork,
		Parameters: []toolexec.ToolParameter{
			{Name: "query", Type: "string", Description: "Search query", Required: true},
			{Name: "max_results", Type: "integer", Description: "Maximum number of results (default 5)", Required: false, Default: 5},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			query, _ := params["query"].(string)
			query = strings.TrimSpace(query)
			if query == "" {
				return nil, toolexec.Argumentf("query is required")
			}

			// Tool-local configuration, validated at call time per the
			// registration contract.
			apiKey := os.Getenv("TAVILY_API_KEY")
			if apiKey == "" {
				return nil, toolexec.Configf("TAVILY_API_KEY is not set")
			}

			maxResults := 5
			switch raw := params["max_results"].(type) {
			case float64:
				if raw > 0 {
					maxResults = int(raw)
				}
			case int:
				if raw > 0 {
					maxResults = raw
				}
			}

			client := tavilygo.NewClient(apiKey)
			client.HTTPClient = &http.Client{Timeout: opts.HTTPTimeout}

			searchResp, err := tavilygo.Search(client, tavilymodels.SearchRequest{
				Query:         query,
				SearchDepth:   "basic",
				IncludeAnswer: true,
				MaxResults:    maxResults,
			})
			if err != nil {
				return nil, err
			}

			results := make([]map[string]interface{}, 0, len(searchResp.Results))
			for _, item := range searchResp.Results {
				results = append(results, map[string]interface{}{
					"title":   item.Title,
					"url":     item.URL,
					"content": item.Content,
				})
			}

			return map[string]interface{}{
				"query":   query,
				"answer":  searchResp.Answer,
				"results": results,
			}, nil
		},
	}
}
