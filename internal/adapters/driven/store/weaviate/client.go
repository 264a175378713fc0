// Package weaviate provides a store client adapter for a remote
// Weaviate instance over its REST API.
package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.StoreClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the remote store client.
type Config struct {
	// URL is the base URL of the Weaviate instance (required).
	URL string

	// APIKey authenticates requests when the instance requires it.
	APIKey string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// Headers are extra headers sent with every request, such as the
	// vectorizer module API keys the instance expects.
	Headers map[string]string
}

// Client talks to a remote Weaviate instance. It holds the single live
// connection for the process lifetime; construction fails fast when
// the instance is unreachable.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	headers map[string]string
}

// classPayload is the wire format of a class definition.
type classPayload struct {
	Class       string            `json:"class"`
	Description string            `json:"description,omitempty"`
	Vectorizer  string            `json:"vectorizer,omitempty"`
	Properties  []propertyPayload `json:"properties,omitempty"`
}

// propertyPayload is the wire format of a class property.
type propertyPayload struct {
	Name        string   `json:"name"`
	DataType    []string `json:"dataType"`
	Description string   `json:"description,omitempty"`
}

// objectPayload is the wire format of a stored object.
type objectPayload struct {
	ID         string         `json:"id,omitempty"`
	Class      string         `json:"class"`
	Properties map[string]any `json:"properties"`
	Vector     []float32      `json:"vector,omitempty"`
}

// NewClient creates a remote store client and verifies the instance is
// reachable. An unreachable instance is a fatal startup error wrapped
// in domain.ErrStoreConnection.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("weaviate: URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		headers: cfg.Headers,
	}

	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrStoreConnection, c.baseURL, err)
	}
	return c, nil
}

// Ping checks the instance readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/v1/.well-known/ready", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("readiness check returned status %d", status)
	}
	return nil
}

// ClassExists reports whether the named class exists.
func (c *Client) ClassExists(ctx context.Context, name string) (bool, error) {
	status, _, err := c.do(ctx, http.MethodGet, "/v1/schema/"+name, nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("get class %s: status %d", name, status)
	}
}

// CreateClass creates a class. A 422 from the instance means the class
// is already present and maps to domain.ErrAlreadyExists.
func (c *Client) CreateClass(ctx context.Context, schema driven.ClassSchema) error {
	// Vectors are computed client-side, so the instance itself runs no
	// vectorizer module.
	payload := classPayload{
		Class:       schema.Class,
		Description: schema.Description,
		Vectorizer:  "none",
	}
	for _, p := range schema.Properties {
		payload.Properties = append(payload.Properties, propertyPayload{
			Name:        p.Name,
			DataType:    []string{p.DataType},
			Description: p.Description,
		})
	}

	status, body, err := c.do(ctx, http.MethodPost, "/v1/schema", payload)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("class %s: %w", schema.Class, domain.ErrAlreadyExists)
	default:
		return fmt.Errorf("create class %s: status %d: %s", schema.Class, status, string(body))
	}
}

// GetClass returns the stored schema for a class. The instance does not
// record vector dimensions in its schema, so VectorDimensions is zero.
func (c *Client) GetClass(ctx context.Context, name string) (*driven.ClassSchema, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v1/schema/"+name, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("class %s: %w", name, domain.ErrNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get class %s: status %d", name, status)
	}

	var payload classPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode class: %w", err)
	}

	schema := &driven.ClassSchema{
		Class:       payload.Class,
		Description: payload.Description,
		Vectorizer:  payload.Vectorizer,
	}
	for _, p := range payload.Properties {
		dataType := ""
		if len(p.DataType) > 0 {
			dataType = p.DataType[0]
		}
		schema.Properties = append(schema.Properties, driven.Property{
			Name:        p.Name,
			DataType:    dataType,
			Description: p.Description,
		})
	}
	return schema, nil
}

// ListClasses returns the names of all existing classes.
func (c *Client) ListClasses(ctx context.Context) ([]string, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v1/schema", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list classes: status %d", status)
	}

	var payload struct {
		Classes []classPayload `json:"classes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	names := make([]string, 0, len(payload.Classes))
	for _, class := range payload.Classes {
		names = append(names, class.Class)
	}
	return names, nil
}

// DeleteClass removes a class and all its objects.
func (c *Client) DeleteClass(ctx context.Context, name string) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/v1/schema/"+name, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return fmt.Errorf("delete class %s: status %d: %s", name, status, string(body))
	}
	return nil
}

// DeleteAllClasses removes every class.
func (c *Client) DeleteAllClasses(ctx context.Context) error {
	names, err := c.ListClasses(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := c.DeleteClass(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// UpsertObjects bulk-writes objects through the batch endpoint and
// returns the assigned IDs in input order. IDs are assigned client-side
// so a retried batch overwrites rather than duplicates.
func (c *Client) UpsertObjects(ctx context.Context, class string, objects []driven.StoredObject) ([]string, error) {
	if len(objects) == 0 {
		return nil, nil
	}

	ids := make([]string, len(objects))
	payload := struct {
		Objects []objectPayload `json:"objects"`
	}{
		Objects: make([]objectPayload, len(objects)),
	}
	for i, obj := range objects {
		id := obj.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		payload.Objects[i] = objectPayload{
			ID:         id,
			Class:      class,
			Properties: obj.Properties,
			Vector:     obj.Vector,
		}
	}

	status, body, err := c.do(ctx, http.MethodPost, "/v1/batch/objects", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("batch write to %s: status %d: %s", class, status, string(body))
	}

	// The batch endpoint reports per-object outcomes in a 200 response.
	var results []struct {
		ID     string `json:"id"`
		Result struct {
			Status string `json:"status"`
			Errors *struct {
				Error []struct {
					Message string `json:"message"`
				} `json:"error"`
			} `json:"errors"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode batch result: %w", err)
	}
	for _, r := range results {
		if r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return nil, fmt.Errorf("batch write to %s: object %s: %s", class, r.ID, r.Result.Errors.Error[0].Message)
		}
	}

	return ids, nil
}

// QueryObjects returns up to limit objects from a class.
func (c *Client) QueryObjects(ctx context.Context, class string, _ []string, limit int) ([]driven.StoredObject, error) {
	path := fmt.Sprintf("/v1/objects?class=%s&include=vector&limit=%d", url.QueryEscape(class), limit)

	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("query %s: status %d", class, status)
	}

	var payload struct {
		Objects []struct {
			ID         string         `json:"id"`
			Class      string         `json:"class"`
			Properties map[string]any `json:"properties"`
			Vector     []float32      `json:"vector"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode objects: %w", err)
	}

	objects := make([]driven.StoredObject, 0, len(payload.Objects))
	for _, obj := range payload.Objects {
		objects = append(objects, driven.StoredObject{
			ID:         obj.ID,
			Class:      obj.Class,
			Properties: obj.Properties,
			Vector:     obj.Vector,
		})
	}
	return objects, nil
}

// GetObjectByID returns one object.
func (c *Client) GetObjectByID(ctx context.Context, class, id string) (*driven.StoredObject, error) {
	path := fmt.Sprintf("/v1/objects/%s/%s?include=vector", class, id)

	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("object %s/%s: %w", class, id, domain.ErrNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get object %s/%s: status %d", class, id, status)
	}

	var payload struct {
		ID         string         `json:"id"`
		Class      string         `json:"class"`
		Properties map[string]any `json:"properties"`
		Vector     []float32      `json:"vector"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}

	return &driven.StoredObject{
		ID:         payload.ID,
		Class:      payload.Class,
		Properties: payload.Properties,
		Vector:     payload.Vector,
	}, nil
}

// CountObjects returns the number of objects in a class via the
// aggregation endpoint.
func (c *Client) CountObjects(ctx context.Context, class string) (int, error) {
	query := struct {
		Query string `json:"query"`
	}{
		Query: fmt.Sprintf("{ Aggregate { %s { meta { count } } } }", class),
	}

	status, body, err := c.do(ctx, http.MethodPost, "/v1/graphql", query)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("count %s: status %d", class, status)
	}

	var payload struct {
		Data struct {
			Aggregate map[string][]struct {
				Meta struct {
					Count int `json:"count"`
				} `json:"meta"`
			} `json:"Aggregate"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode aggregate: %w", err)
	}
	if len(payload.Errors) > 0 {
		return 0, fmt.Errorf("count %s: %s", class, payload.Errors[0].Message)
	}

	results, ok := payload.Data.Aggregate[class]
	if !ok || len(results) == 0 {
		return 0, fmt.Errorf("count %s: no aggregate result", class)
	}
	return results[0].Meta.Count, nil
}

// Close releases resources.
func (c *Client) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// do sends one request and returns the status code and response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
