package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dolicat/internal"
	"dolicat/internal/config"
)

var ErrNotFound = errors.New("erp: not found")

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.ERPTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.ERPRateLimitRPS),
	}
}

// ListProducts walks every page of the product list. The ERP answers 404
// past the last page.
func (c *Client) ListProducts(ctx context.Context) ([]internal.RawRecord, error) {
	pageSize := c.cfg.ERPPageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	all := make([]internal.RawRecord, 0)
	for page := 0; ; page++ {
		body, err := c.do(ctx, http.MethodGet, "products", map[string]string{
			"limit":     strconv.Itoa(pageSize),
			"page":      strconv.Itoa(page),
			"sortfield": "t.rowid",
			"sortorder": "ASC",
		}, nil)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}

		var batch []internal.RawRecord
		if err := decodeJSON(body, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			break
		}
	}

	return all, nil
}

func (c *Client) GetProduct(ctx context.Context, id uint32) (internal.RawRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "products/"+strconv.FormatUint(uint64(id), 10), nil, nil)
	if err != nil {
		return nil, err
	}
	var out internal.RawRecord
	if err := decodeJSON(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProduct posts a new product and returns its row id.
func (c *Client) CreateProduct(ctx context.Context, payload []byte) (uint32, error) {
	body, err := c.do(ctx, http.MethodPost, "products", nil, payload)
	if err != nil {
		return 0, err
	}
	var id json.Number
	if err := decodeJSON(body, &id); err != nil {
		return 0, err
	}
	parsed, err := strconv.ParseUint(id.String(), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("erp returned row id %q: %w", id, err)
	}
	return uint32(parsed), nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uint32, payload []byte) (internal.RawRecord, error) {
	body, err := c.do(ctx, http.MethodPut, "products/"+strconv.FormatUint(uint64(id), 10), nil, payload)
	if err != nil {
		return nil, err
	}
	var out internal.RawRecord
	if err := decodeJSON(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetThirdParty(ctx context.Context, id uint32) (internal.CustomerData, error) {
	body, err := c.do(ctx, http.MethodGet, "thirdparties/"+strconv.FormatUint(uint64(id), 10), nil, nil)
	if err != nil {
		return internal.CustomerData{}, err
	}
	var out internal.CustomerData
	if err := json.Unmarshal(body, &out); err != nil {
		return internal.CustomerData{}, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id uint32) (internal.Document, error) {
	body, err := c.do(ctx, http.MethodGet, "orders/"+strconv.FormatUint(uint64(id), 10), nil, nil)
	if err != nil {
		return internal.Document{}, err
	}
	var out internal.Document
	if err := json.Unmarshal(body, &out); err != nil {
		return internal.Document{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, params map[string]string, payload []byte) ([]byte, error) {
	if strings.TrimSpace(c.cfg.ERPAPIKey) == "" {
		return nil, errors.New("missing ERP_API_KEY")
	}

	baseURL := strings.TrimRight(c.cfg.ERPAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("DOLAPIKEY", c.cfg.ERPAPIKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, endpoint)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				lastErr = fmt.Errorf("erp status %d", resp.StatusCode)
				if err := sleep(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("erp api error: %s %s status=%d body=%s", method, endpoint, resp.StatusCode, string(body))
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("erp request failed")
	}
	return nil, lastErr
}

// decodeJSON keeps numbers as json.Number so they reach the field decoders
// with their original text.
func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func backoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
