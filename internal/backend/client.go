// Package backend talks to the fleet backend's HTTP API: it fetches the last
// known control state of a vehicle and announces the vehicle on startup.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jkaberg/ebike-sim/internal/config"
	"github.com/jkaberg/ebike-sim/internal/metrics"
)

const (
	// DefaultUserAgent is sent when NewClient gets an empty user agent.
	DefaultUserAgent = "ebike-sim/dev"

	opBootstrap = "bootstrap"
	opRegister  = "register"

	maxBodySize = 1 << 20
)

// Client handles communication with the fleet backend
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new backend client. m may be nil.
func NewClient(baseURL, userAgent string, httpClient *http.Client, logger *logrus.Logger, m *metrics.Metrics) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logger,
		metrics:    m,
	}
}

// Registration is the body of the connect call.
type Registration struct {
	VehicleID       any    `json:"vehicle_id"` // number when the id is numeric
	Model           string `json:"model"`
	Color           string `json:"color"`
	BatteryVoltage  int    `json:"battery_voltage"`
	BatteryCapacity int    `json:"battery_capacity"`
	MaxRange        int    `json:"max_range"`
}

// NewRegistration fills in the stock e-bike description for vehicleID.
func NewRegistration(vehicleID string) Registration {
	var id any = vehicleID
	if n, err := strconv.ParseInt(vehicleID, 10, 64); err == nil {
		id = n
	}
	return Registration{
		VehicleID:       id,
		Model:           config.DefaultModel,
		Color:           config.DefaultColor,
		BatteryVoltage:  config.DefaultBatteryVoltage,
		BatteryCapacity: config.DefaultBatteryCapacity,
		MaxRange:        config.DefaultMaxRange,
	}
}

// Bootstrap fetches the stored control state of vehicleID. Booleans come
// back as 0/1; values that are neither numbers nor booleans are skipped.
func (c *Client) Bootstrap(ctx context.Context, vehicleID string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, config.BootstrapTimeout)
	defer cancel()

	endpoint := c.baseURL + "/api/vehicle/state/" + url.PathEscape(vehicleID)
	body, err := c.do(ctx, opBootstrap, http.MethodGet, endpoint, nil)
	c.metrics.ObserveBackend(opBootstrap, err)
	if err != nil {
		return nil, err
	}

	state, err := parseState(body)
	if err != nil {
		return nil, fmt.Errorf("bootstrap vehicle %s: %w", vehicleID, err)
	}
	return state, nil
}

// Register announces a vehicle to the backend. The response body is
// returned as is.
func (c *Client) Register(ctx context.Context, reg Registration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, config.RegisterTimeout)
	defer cancel()

	payload, err := json.Marshal(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration: %w", err)
	}

	body, err := c.do(ctx, opRegister, http.MethodPost, c.baseURL+"/api/vehicle/connect", payload)
	c.metrics.ObserveBackend(opRegister, err)
	return body, err
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.WithFields(logrus.Fields{
		"operation":  op,
		"url":        endpoint,
		"request_id": requestID,
	})
	log.Debug("Calling backend")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend returned status %d for %s", resp.StatusCode, op)
	}

	log.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"response_size": len(body),
	}).Debug("Received backend response")

	return body, nil
}

func parseState(body []byte) (map[string]int, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("state is not a JSON object: %w", err)
	}

	state := make(map[string]int, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case bool:
			if x {
				state[k] = 1
			} else {
				state[k] = 0
			}
		case float64:
			state[k] = int(x)
		}
	}
	return state, nil
}
