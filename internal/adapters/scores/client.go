package scores

// client.go — HTTP client del proveedor de resultados finales.
//
// El core nunca espera servicios externos dentro del grading: este adapter
// fetchea los scores por adelantado y el engine los recibe como input.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// Rate limit conservador: los planes gratis de proveedores de scores
	// suelen andar por 30 req/min.
	requestsPerSec = 0.5
	burst          = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client fetchea resultados finales vía HTTP con rate limiting y retries.
type Client struct {
	http    *http.Client
	base    string
	apiKey  string
	limiter *rate.Limiter
}

// NewClient crea un Client contra el base URL dado.
func NewClient(base, apiKey string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(requestsPerSec, burst),
	}
}

// scoreRow es el shape del provider; se mapea a domain.GameResult.
type scoreRow struct {
	EventID   string `json:"event_id"`
	SportKey  string `json:"sport_key"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Completed bool   `json:"completed"`
}

// FetchResults implementa ports.ResultProvider. Eventos sin resultado
// simplemente no aparecen en el mapa.
func (c *Client) FetchResults(ctx context.Context, eventIDs []string) (map[string]domain.GameResult, error) {
	if len(eventIDs) == 0 {
		return map[string]domain.GameResult{}, nil
	}

	q := url.Values{}
	q.Set("events", strings.Join(eventIDs, ","))
	endpoint := c.base + "/v1/results?" + q.Encode()

	var rows []scoreRow
	if err := c.get(ctx, endpoint, &rows); err != nil {
		return nil, fmt.Errorf("scores.FetchResults: %w", err)
	}

	out := make(map[string]domain.GameResult, len(rows))
	for _, r := range rows {
		out[r.EventID] = domain.GameResult{
			EventID:   r.EventID,
			SportKey:  r.SportKey,
			HomeScore: r.HomeScore,
			AwayScore: r.AwayScore,
			IsFinal:   r.Completed,
		}
	}
	return out, nil
}

// get hace un GET con rate limiting y retries con backoff exponencial.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("scores API retry", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
