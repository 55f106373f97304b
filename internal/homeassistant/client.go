// Package homeassistant implements a small client for the Home Assistant
// REST API.
package homeassistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	httputil "github.com/desktopdye/desktopdye/internal/util/http"
)

// DefaultPort is the port Home Assistant listens on out of the box.
const DefaultPort = 8123

const (
	pathAPI      = "/api/"
	pathConfig   = pathAPI + "config"
	pathStates   = pathAPI + "states"
	pathServices = pathAPI + "services"
)

// APIStatus is the result of probing the API root.
type APIStatus int

const (
	// StatusUnknown means the API answered with an unexpected status code.
	StatusUnknown APIStatus = iota

	// StatusOK means the API is reachable and the token is accepted.
	StatusOK

	// StatusInvalidToken means the API rejected the access token.
	StatusInvalidToken

	// StatusCannotConnect means the request never reached the API.
	StatusCannotConnect
)

// String returns a human-readable status.
func (s APIStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidToken:
		return "invalid token"
	case StatusCannotConnect:
		return "cannot connect"
	default:
		return "unknown"
	}
}

// Config holds the connection settings.
type Config struct {
	// Endpoint is the base URL, for example http://homeassistant.local:8123.
	Endpoint string

	// Token is a long-lived access token.
	Token string

	// Timeout bounds each request. Zero uses the HTTP package default.
	Timeout time.Duration
}

// State is an entity state as returned by the API.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
}

// Service describes the services of one domain.
type Service struct {
	Domain   string         `json:"domain"`
	Services map[string]any `json:"services"`
}

// Client talks to one Home Assistant instance.
type Client struct {
	endpoint string
	headers  map[string]string
	http     *http.Client
	logger   hclog.Logger
}

// NewClient creates a client. logger may be nil.
func NewClient(cfg Config, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		headers: map[string]string{
			"Authorization": "Bearer " + cfg.Token,
		},
		http:   httputil.NewClient(cfg.Timeout),
		logger: logger.Named("homeassistant"),
	}
}

func (c *Client) request(ctx context.Context, method, path string, body any) (*httputil.Response, error) {
	uri := c.endpoint + path
	c.logger.Trace("request", "method", method, "uri", uri)

	resp, err := httputil.Do(ctx, c.http, method, uri, body, c.headers)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, uri, err)
	}

	c.logger.Trace("response", "method", method, "uri", uri, "status", resp.StatusCode)
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return resp.Decode(v)
}

// Status probes the API root.
func (c *Client) Status(ctx context.Context) (APIStatus, error) {
	resp, err := c.request(ctx, http.MethodGet, pathAPI, nil)
	if err != nil {
		return StatusCannotConnect, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return StatusOK, nil
	case http.StatusUnauthorized:
		return StatusInvalidToken, nil
	default:
		return StatusUnknown, nil
	}
}

// Config returns the instance configuration.
func (c *Client) Config(ctx context.Context) (map[string]any, error) {
	var cfg map[string]any
	if err := c.getJSON(ctx, pathConfig, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetState creates or updates the state of entityID. attributes may be nil.
// With forceUpdate the state change is recorded even when the value is the
// same as before.
func (c *Client) SetState(ctx context.Context, entityID, state string, attributes map[string]any, forceUpdate bool) error {
	body := map[string]any{
		"state":        state,
		"force_update": forceUpdate,
	}
	if attributes != nil {
		body["attributes"] = attributes
	}

	resp, err := c.request(ctx, http.MethodPost, pathStates+"/"+url.PathEscape(entityID), body)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	default:
		return fmt.Errorf("error setting state of %s: %d", entityID, resp.StatusCode)
	}
}

// State returns the current state of entityID.
func (c *Client) State(ctx context.Context, entityID string) (*State, error) {
	var state State
	if err := c.getJSON(ctx, pathStates+"/"+url.PathEscape(entityID), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// States returns every entity state.
func (c *Client) States(ctx context.Context) ([]State, error) {
	var states []State
	if err := c.getJSON(ctx, pathStates, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// Services returns the available services grouped by domain.
func (c *Client) Services(ctx context.Context) ([]Service, error) {
	var services []Service
	if err := c.getJSON(ctx, pathServices, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// CallService calls domain.service with optional service data.
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	var body any
	if data != nil {
		body = data
	}

	path := fmt.Sprintf("%s/%s/%s", pathServices, url.PathEscape(domain), url.PathEscape(service))
	resp, err := c.request(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error calling service %s: %d - %s", service, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}
	return nil
}
