package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kiranshivaraju/projectlens/pkg/models"
)

// Sentinel errors for record store failures.
var (
	ErrNotFound   = errors.New("record not found")
	ErrTransport  = errors.New("record store unreachable")
	ErrValidation = errors.New("record store rejected attributes")
)

// ValidationError reports an update the store refused because an attribute
// violates the database schema. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Client is the interface to the project record store.
type Client interface {
	Fetch(ctx context.Context, id string) (models.ProjectRecord, error)
	Update(ctx context.Context, id string, props Properties) error
}

// HTTPClient implements Client using the Notion REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	version    string
	databaseID string
	client     *http.Client
}

// NewHTTPClient creates a new Notion HTTP client. Pages outside databaseID
// are reported as not found.
func NewHTTPClient(baseURL, token, version, databaseID string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		version:    version,
		databaseID: databaseID,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Fetch(ctx context.Context, id string) (models.ProjectRecord, error) {
	if strings.TrimSpace(id) == "" {
		return models.ProjectRecord{}, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(id), nil)
	if err != nil {
		return models.ProjectRecord{}, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return models.ProjectRecord{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp)
		// A malformed identifier comes back as a 400; it cannot resolve either way.
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
			return models.ProjectRecord{}, fmt.Errorf("%w: %s", ErrNotFound, apiErr.describe(resp.StatusCode))
		}
		return models.ProjectRecord{}, fmt.Errorf("%w: %s", ErrTransport, apiErr.describe(resp.StatusCode))
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return models.ProjectRecord{}, fmt.Errorf("%w: decoding page: %v", ErrTransport, err)
	}

	if page.Archived || page.InTrash {
		return models.ProjectRecord{}, fmt.Errorf("%w: page %s is archived", ErrNotFound, id)
	}
	if c.databaseID != "" && normalizeID(page.Parent.DatabaseID) != normalizeID(c.databaseID) {
		return models.ProjectRecord{}, fmt.Errorf("%w: page %s is not in the project database", ErrNotFound, id)
	}

	return toRecord(id, page), nil
}

func (c *HTTPClient) Update(ctx context.Context, id string, props Properties) error {
	if len(props) == 0 {
		return nil
	}

	payload := make(map[string]propertyPayload, len(props))
	for name, v := range props {
		payload[name] = v.encode()
	}
	body, err := json.Marshal(updateRequest{Properties: payload})
	if err != nil {
		return fmt.Errorf("encoding update: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.pageURL(id), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	apiErr := decodeAPIError(resp)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.describe(resp.StatusCode))
	case resp.StatusCode == http.StatusBadRequest && apiErr.Code == "validation_error":
		return &ValidationError{Field: matchField(apiErr.Message, props), Message: apiErr.Message}
	case resp.StatusCode == http.StatusBadRequest:
		return &ValidationError{Message: apiErr.describe(resp.StatusCode)}
	default:
		return fmt.Errorf("%w: %s", ErrTransport, apiErr.describe(resp.StatusCode))
	}
}

func (c *HTTPClient) pageURL(id string) string {
	return fmt.Sprintf("%s/v1/pages/%s", c.baseURL, url.PathEscape(id))
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
}

// toRecord maps page properties onto a ProjectRecord. The name comes from
// the "Project Name" property, or the page's title property when absent.
func toRecord(id string, page pageResponse) models.ProjectRecord {
	rec := models.ProjectRecord{ID: id, Attributes: map[string]string{}}

	var title string
	for name, prop := range page.Properties {
		text, ok := prop.plainText()
		if !ok {
			continue
		}
		switch {
		case name == PropProjectName:
			rec.Name = text
		case name == PropDescription:
			rec.Description = text
		case name == PropStage:
			rec.Stage = text
		case outputProps[name]:
		case prop.Type == "title":
			title = text
		case text != "":
			rec.Attributes[name] = text
		}
	}
	if rec.Name == "" {
		rec.Name = title
	}
	return rec
}

// matchField finds the sent property named in a validation message,
// preferring the longest name so "Risk Level" wins over "Risk".
func matchField(message string, props Properties) string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		if strings.Contains(message, name) {
			return name
		}
	}
	return ""
}

func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

func decodeAPIError(resp *http.Response) apiError {
	var apiErr apiError
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	if json.Unmarshal(data, &apiErr) != nil {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// --- Notion wire types ---

type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e apiError) describe(status int) string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("status %d: %s: %s", status, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("status %d: %s", status, e.Message)
	default:
		return fmt.Sprintf("status %d", status)
	}
}

type pageResponse struct {
	Object     string                   `json:"object"`
	ID         string                   `json:"id"`
	Archived   bool                     `json:"archived"`
	InTrash    bool                     `json:"in_trash"`
	Parent     pageParent               `json:"parent"`
	Properties map[string]propertyValue `json:"properties"`
}

type pageParent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id"`
}

type propertyValue struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       []richText     `json:"title"`
	RichText    []richText     `json:"rich_text"`
	Select      *selectOption  `json:"select"`
	Status      *selectOption  `json:"status"`
	MultiSelect []selectOption `json:"multi_select"`
	Number      *float64       `json:"number"`
	URL         *string        `json:"url"`
	Email       *string        `json:"email"`
	PhoneNumber *string        `json:"phone_number"`
}

type richText struct {
	Type      string       `json:"type"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type selectOption struct {
	Name string `json:"name"`
}

type updateRequest struct {
	Properties map[string]propertyPayload `json:"properties"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
