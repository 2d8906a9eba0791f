package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// statusAliases maps the labels some results feeds use onto bet statuses.
var statusAliases = map[string]domain.BetStatus{
	"GREEN":      domain.BetStatusWon,
	"RED":        domain.BetStatusLost,
	"CASHOUT":    domain.BetStatusCashedOut,
	"AGUARDANDO": domain.BetStatusPending,
	"WAITING":    domain.BetStatusPending,
}

// HTTP asks an external results feed for outcomes:
//
//	GET {base}/events/{ref}/outcome
//	{"status":"WON","amount":"20.00"}
//
// 404 means the feed has no result yet.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates an HTTP oracle with the given per-request timeout.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type outcomeResponse struct {
	Status string           `json:"status"`
	Amount *decimal.Decimal `json:"amount"`
	Ratio  *decimal.Decimal `json:"ratio"`
}

// OutcomeFor fetches the outcome of the referenced event.
func (o *HTTP) OutcomeFor(ctx context.Context, ref string) (domain.Outcome, error) {
	endpoint := o.baseURL + "/events/" + url.PathEscape(ref) + "/outcome"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("oracle.HTTP: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "betledger/1.0")

	resp, err := o.client.Do(req)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("oracle.HTTP: get %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.Outcome{Status: domain.BetStatusPending}, nil
	default:
		return domain.Outcome{}, fmt.Errorf("oracle.HTTP: %s: unexpected status %d", ref, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("oracle.HTTP: read body: %w", err)
	}

	var out outcomeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.Outcome{}, fmt.Errorf("oracle.HTTP: %s: parse: %w", ref, err)
	}

	status, err := parseStatus(out.Status)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("oracle.HTTP: %s: status %q: %w", ref, out.Status, err)
	}
	return domain.Outcome{Status: status, Amount: out.Amount, Ratio: out.Ratio}, nil
}

func parseStatus(raw string) (domain.BetStatus, error) {
	if s, ok := statusAliases[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return s, nil
	}
	return domain.ParseBetStatus(raw)
}
