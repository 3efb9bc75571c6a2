// Package client is a small retrying HTTP client for the job master's
// transport, grounded on the retry-wrapping pattern of a blocking RPC
// stub: every call is retried with exponential backoff on transport
// failures and CAPACITY_EXCEEDED, while NOT_FOUND, UNKNOWN_PLAN, and
// INVALID_ARGUMENT are surfaced to the caller immediately since a retry
// cannot change their outcome.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guihaojin/alluxio/internal/jobmaster"
	"github.com/guihaojin/alluxio/internal/wire"
	"github.com/guihaojin/alluxio/internal/workerset"
)

// Config controls retry behavior.
type Config struct {
	BaseURL     string
	MaxRetries  int
	BaseBackoff time.Duration
}

// DefaultConfig returns sane retry defaults: 5 attempts, 100ms base
// backoff doubling before each retry (100ms, 200ms, 400ms, 800ms).
func DefaultConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, MaxRetries: 5, BaseBackoff: 100 * time.Millisecond}
}

// Client calls a job master's JSON-over-HTTP transport.
type Client struct {
	cfg Config
	hc  *http.Client
}

// New builds a client against cfg.BaseURL.
func New(cfg Config) *Client {
	return &Client{cfg: cfg, hc: &http.Client{Timeout: 30 * time.Second}}
}

// Run submits a plan and returns its allocated id.
func (c *Client) Run(ctx context.Context, name string, config []byte) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	req := struct {
		Name   string `json:"name"`
		Config []byte `json:"config,omitempty"`
	}{Name: name, Config: config}
	if err := c.call(ctx, "/api/v1/jobs/run", req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// Cancel requests cancellation of a plan.
func (c *Client) Cancel(ctx context.Context, id int64) error {
	req := struct {
		ID int64 `json:"id"`
	}{ID: id}
	return c.call(ctx, "/api/v1/jobs/cancel", req, &struct{}{})
}

// List returns every live and recently-purged plan id.
func (c *Client) List(ctx context.Context) ([]int64, error) {
	var resp struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.call(ctx, "/api/v1/jobs/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

// GetStatus fetches one plan's current status.
func (c *Client) GetStatus(ctx context.Context, id int64) (wire.PlanStatus, error) {
	var status wire.PlanStatus
	req := struct {
		ID int64 `json:"id"`
	}{ID: id}
	if err := c.call(ctx, "/api/v1/jobs/status", req, &status); err != nil {
		return wire.PlanStatus{}, err
	}
	return status, nil
}

// GetJobServiceSummary fetches the point-in-time summary over live plans.
func (c *Client) GetJobServiceSummary(ctx context.Context) (map[wire.PlanState][]wire.PlanStatus, error) {
	var resp struct {
		Groups map[wire.PlanState][]wire.PlanStatus `json:"groups"`
	}
	if err := c.call(ctx, "/api/v1/jobs/summary", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// RegisterWorker registers a worker at addr and returns its assigned id.
func (c *Client) RegisterWorker(ctx context.Context, addr workerset.Address) (int64, error) {
	var resp struct {
		WorkerID int64 `json:"worker_id"`
	}
	req := struct {
		Host       string `json:"host"`
		RPCPort    int    `json:"rpc_port"`
		DataPort   int    `json:"data_port"`
		WebPort    int    `json:"web_port"`
		DomainSock string `json:"domain_sock,omitempty"`
	}{Host: addr.Host, RPCPort: addr.RPCPort, DataPort: addr.DataPort, WebPort: addr.WebPort, DomainSock: addr.DomainSock}
	if err := c.call(ctx, "/api/v1/workers/register", req, &resp); err != nil {
		return 0, err
	}
	return resp.WorkerID, nil
}

// Heartbeat sends a worker's task reports and returns the commands
// waiting for it.
func (c *Client) Heartbeat(ctx context.Context, workerID int64, reports []jobmaster.HeartbeatReport) ([]wire.Command, error) {
	var resp struct {
		Commands []wire.Command `json:"commands"`
	}
	req := struct {
		WorkerID int64                       `json:"worker_id"`
		Reports  []jobmaster.HeartbeatReport `json:"reports"`
	}{WorkerID: workerID, Reports: reports}
	if err := c.call(ctx, "/api/v1/workers/heartbeat", req, &resp); err != nil {
		return nil, err
	}
	return resp.Commands, nil
}

// call performs one RPC with exponential backoff between attempts. It
// returns NOT_FOUND, UNKNOWN_PLAN and INVALID_ARGUMENT immediately and
// retries every other error, including INTERNAL and HTTP errors.
func (c *Client) call(ctx context.Context, path string, req interface{}, dst interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.doOnce(ctx, path, req, dst)
		if err == nil {
			return nil
		}
		lastErr = err

		code := wire.CodeOf(err)
		if code == wire.CodeNotFound || code == wire.CodeUnknownPlan || code == wire.CodeInvalidArgument {
			return err
		}
	}
	return fmt.Errorf("job master rpc %s failed after %d attempts: %w", path, c.cfg.MaxRetries, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path string, req interface{}, dst interface{}) error {
	var body io.Reader
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return wire.NewError(wire.CodeInvalidArgument, "encode request: %v", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Code    wire.Code `json:"code"`
			Message string    `json:"message"`
		}
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Code != "" {
			return wire.NewError(errResp.Code, "%s", errResp.Message)
		}
		return fmt.Errorf("job master rpc %s: http %d", path, resp.StatusCode)
	}

	if len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, dst)
}
