package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const defaultOPSBaseURL = "https://ops.epo.org/3.2/rest-services"

// EspacenetClient 调用 Espacenet OPS REST API
type EspacenetClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewEspacenetClient 创建OPS客户端
// 自动从环境变量读取配置:
//   - ESPACENET_BASE_URL
//   - ESPACENET_API_KEY
func NewEspacenetClient(baseURL, apiKey string) *EspacenetClient {
	if baseURL == "" {
		baseURL = os.Getenv("ESPACENET_BASE_URL")
	}
	if baseURL == "" {
		baseURL = defaultOPSBaseURL
	}
	if apiKey == "" {
		apiKey = os.Getenv("ESPACENET_API_KEY")
	}

	return &EspacenetClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// opsBiblioResponse OPS著录数据响应（简化结构）
type opsBiblioResponse struct {
	PatentNumber    string   `json:"patent_number"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	FilingDate      string   `json:"filing_date"`
	PublicationDate string   `json:"publication_date"`
	Applicants      []string `json:"applicants"`
	Inventors       []string `json:"inventors"`
	IPCClasses      []string `json:"ipc_classes"`
}

// Fetch 按epodoc格式专利号获取著录数据
func (c *EspacenetClient) Fetch(ctx context.Context, patentNumber string) (*PatentRecord, error) {
	endpoint := fmt.Sprintf("%s/published-data/publication/epodoc/%s/biblio",
		c.BaseURL, url.PathEscape(patentNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: patent %s not found", ErrFetchFailed, patentNumber)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var biblio opsBiblioResponse
	if err := json.NewDecoder(resp.Body).Decode(&biblio); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrFetchFailed, err)
	}

	record := &PatentRecord{
		PatentNumber: patentNumber,
		Title:        biblio.Title,
		Abstract:     biblio.Abstract,
		Applicants:   biblio.Applicants,
		Inventors:    biblio.Inventors,
		IPCClasses:   biblio.IPCClasses,
	}
	record.FilingDate = parseOPSDate(biblio.FilingDate)
	record.PublicationDate = parseOPSDate(biblio.PublicationDate)

	return record, nil
}

// opsSearchResponse OPS检索响应（简化结构）
type opsSearchResponse struct {
	Results []struct {
		PatentNumber string  `json:"patent_number"`
		Title        string  `json:"title"`
		Abstract     string  `json:"abstract"`
		Score        float64 `json:"score"`
	} `json:"results"`
}

// Search 按关键词检索OPS
func (c *EspacenetClient) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	endpoint := fmt.Sprintf("%s/published-data/search?q=%s&Range=1-%s",
		c.BaseURL, url.QueryEscape(query), strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var payload opsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrFetchFailed, err)
	}

	results := make([]SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, SearchResult{
			PatentNumber: r.PatentNumber,
			Title:        r.Title,
			Abstract:     r.Abstract,
			Score:        r.Score,
		})
	}

	return results, nil
}

func parseOPSDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
