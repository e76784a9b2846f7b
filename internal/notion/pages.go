package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxChildBlocks is the store's limit on blocks sent with a new page.
const maxChildBlocks = 100

// ChildPage is a report page created beneath a project record. Body lines
// starting with "- " become bullets; other non-blank lines are paragraphs.
type ChildPage struct {
	Title string
	Body  string
}

// PageWriter creates report pages beneath a record.
type PageWriter interface {
	CreateChildPage(ctx context.Context, parentID string, page ChildPage) (string, error)
}

// CreateChildPage creates page under parentID and returns the new page ID.
func (c *HTTPClient) CreateChildPage(ctx context.Context, parentID string, page ChildPage) (string, error) {
	if strings.TrimSpace(parentID) == "" {
		return "", fmt.Errorf("%w: empty parent identifier", ErrNotFound)
	}

	body, err := json.Marshal(createPageRequest{
		Parent:     pageRef{PageID: parentID},
		Properties: map[string]titleProperty{"title": {Title: textSegments(page.Title)}},
		Children:   bodyBlocks(page.Body),
	})
	if err != nil {
		return "", fmt.Errorf("encoding page: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/pages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var created struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return "", fmt.Errorf("%w: decoding created page: %v", ErrTransport, err)
		}
		return created.ID, nil
	}

	apiErr := decodeAPIError(resp)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, apiErr.describe(resp.StatusCode))
	case http.StatusBadRequest:
		return "", &ValidationError{Message: apiErr.describe(resp.StatusCode)}
	default:
		return "", fmt.Errorf("%w: %s", ErrTransport, apiErr.describe(resp.StatusCode))
	}
}

// bodyBlocks turns rendered text into paragraph and bullet blocks.
func bodyBlocks(text string) []block {
	var blocks []block
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if len(blocks) == maxChildBlocks {
			break
		}
		if item, ok := strings.CutPrefix(ln, "- "); ok {
			blocks = append(blocks, block{
				Object:       "block",
				Type:         "bulleted_list_item",
				BulletedItem: &blockText{RichText: textSegments(item)},
			})
			continue
		}
		blocks = append(blocks, block{
			Object:    "block",
			Type:      "paragraph",
			Paragraph: &blockText{RichText: textSegments(ln)},
		})
	}
	return blocks
}

type createPageRequest struct {
	Parent     pageRef                  `json:"parent"`
	Properties map[string]titleProperty `json:"properties"`
	Children   []block                  `json:"children,omitempty"`
}

type pageRef struct {
	PageID string `json:"page_id"`
}

type titleProperty struct {
	Title []richText `json:"title"`
}

type block struct {
	Object       string     `json:"object"`
	Type         string     `json:"type"`
	Paragraph    *blockText `json:"paragraph,omitempty"`
	BulletedItem *blockText `json:"bulleted_list_item,omitempty"`
}

type blockText struct {
	RichText []richText `json:"rich_text"`
}

// Compile-time check that HTTPClient implements PageWriter.
var _ PageWriter = (*HTTPClient)(nil)
