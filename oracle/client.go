package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ureshvahalia/bridge-deals-ingest/engine"
)

// Client is an HTTP Solver. One request per deal: POST {hands} to
// <base>/solve, read back the 4x5 trick table.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type solveRequest struct {
	Hands  [4]string `json:"hands"` // N, E, S, W in holdings form
	Dealer string    `json:"dealer"`
	Vul    string    `json:"vul"`
}

type solveResponse struct {
	Tricks [4][5]int `json:"tricks"`
	Error  string    `json:"error,omitempty"`
}

func (c *Client) Solve(ctx context.Context, deal *engine.Deal) (Table, error) {
	req := solveRequest{Dealer: deal.Dealer.String(), Vul: deal.Vul.String()}
	for seat := engine.North; seat <= engine.West; seat++ {
		req.Hands[seat] = deal.Hands[seat].String()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/solve", bytes.NewReader(body))
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Table{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out solveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Table{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if out.Error != "" {
		return Table{}, fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
	}
	table := Table(out.Tricks)
	for seat := range table {
		for strain, n := range table[seat] {
			if n < 0 || n > 13 {
				return Table{}, fmt.Errorf("%w: tricks[%d][%d]=%d out of range", ErrUnavailable, seat, strain, n)
			}
		}
	}
	return table, nil
}
