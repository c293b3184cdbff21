package netclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Colorata/WeatherComposePoc/internal/core"
	"github.com/Colorata/WeatherComposePoc/internal/logging"
)

const logTag = "net"

var (
	// ErrNetwork wraps every transport or status failure.
	ErrNetwork = errors.New("network error")

	ErrCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// StatusError is returned for a response outside the 2xx range.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s", ErrNetwork, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrNetwork
}

// Event is a request handled by the client's Pack.
type Event interface {
	isNetEvent()
}

// Get fetches the body at URL.
type Get struct {
	URL string
}

func (Get) isNetEvent() {}

// BreakerConfig enables a circuit breaker around outbound calls when
// MaxFailures is positive.
type BreakerConfig struct {
	MaxFailures uint32
	Timeout     time.Duration
}

// Client performs GET requests and reports them as Results.
type Client struct {
	http    *http.Client
	circuit *gobreaker.CircuitBreaker
	logger  logging.Logger
	pack    *core.Pack[struct{}, Event, core.Result[[]byte]]
}

func New(httpClient *http.Client, breaker BreakerConfig, logger logging.Logger) *Client {
	c := &Client{
		http:   httpClient,
		logger: logger,
	}
	if breaker.MaxFailures > 0 {
		c.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openweathermap",
			MaxRequests: 1,
			Timeout:     breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breaker.MaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warning(logTag, fmt.Sprintf("circuit %s: %s -> %s", name, from, to))
			},
		})
	}
	c.pack = core.NewStatelessPack("net", core.Loading[[]byte](), c.produce)
	return c
}

// Pack exposes the client as a stateless Pack of Get events.
func (c *Client) Pack() *core.Pack[struct{}, Event, core.Result[[]byte]] {
	return c.pack
}

// Fetch runs one Get through the Pack and waits for its outcome.
func (c *Client) Fetch(ctx context.Context, url string) core.Result[[]byte] {
	flow := c.pack.ProvideFlowFor(ctx, Get{URL: url})
	defer flow.Close()

	sub := flow.Subscribe()
	defer sub.Unsubscribe()
	return core.Settled(ctx, sub)
}

func (c *Client) produce(ctx context.Context, event Event, out *core.Output[core.Result[[]byte]]) {
	get, ok := event.(Get)
	if !ok {
		return
	}
	out.Set(core.Loading[[]byte]())

	c.logger.Debug(logTag, "GET "+get.URL)
	body, err := c.get(ctx, get.URL)
	if err != nil {
		out.Set(core.Failure[[]byte](err))
		return
	}
	out.Set(core.Success(body))
}

// get executes one request without retries, through the circuit breaker
// when one is configured.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.http == nil {
		return nil, errNoHTTPClient
	}

	do := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
		}
		return body, nil
	}

	if c.circuit == nil {
		result, err := do()
		if err != nil {
			return nil, err
		}
		return result.([]byte), nil
	}

	result, err := c.circuit.Execute(do)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w: %v", ErrNetwork, ErrCircuitOpen, err)
		}
		return nil, err
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}
