package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"route-compare-service/internal/adapters/cache"
	"route-compare-service/internal/domain"
	"route-compare-service/internal/platform/obs"
	"route-compare-service/internal/ports"
	"route-compare-service/internal/services"
)

var ErrInvalidRemoteOrder = errors.New("remote solver returned an invalid order")

type remotePoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type remoteSolveRequest struct {
	Points    []remotePoint  `json:"points"`
	RoundTrip bool           `json:"round_trip"`
	Start     *remotePoint   `json:"start,omitempty"`
	End       *remotePoint   `json:"end,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// Services report the ordering as either "order" or "route".
type remoteSolveResponse struct {
	Order    []int    `json:"order"`
	Route    []int    `json:"route"`
	Distance *float64 `json:"distance"`
	Energy   *float64 `json:"energy"`
}

// HTTPRouteSolver implements RouteSolver against a remote optimization service
// that accepts POST {points, round_trip, start?, end?, params} and answers with
// a visiting order. Responses are validated before use and, when a cache is
// configured, cached by request digest.
//
// The solver is safe for concurrent use.
type HTTPRouteSolver struct {
	label       string
	endpoint    string
	apiKey      string
	params      map[string]any
	session     *http.Client
	cache       ports.SolverCache
	maxAttempts int
	backoff     time.Duration
}

type HTTPOption func(*HTTPRouteSolver)

func WithAPIKey(key string) HTTPOption {
	return func(s *HTTPRouteSolver) { s.apiKey = key }
}

func WithCache(c ports.SolverCache) HTTPOption {
	return func(s *HTTPRouteSolver) { s.cache = c }
}

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPRouteSolver) { s.session = c }
}

// WithParams sets solver-specific parameters sent with every request.
// Per-request parameters take precedence.
func WithParams(p map[string]any) HTTPOption {
	return func(s *HTTPRouteSolver) { s.params = p }
}

func WithRetry(maxAttempts int, backoff time.Duration) HTTPOption {
	return func(s *HTTPRouteSolver) {
		s.maxAttempts = maxAttempts
		s.backoff = backoff
	}
}

func NewHTTPRouteSolver(label, endpoint string, opts ...HTTPOption) (*HTTPRouteSolver, error) {
	label = strings.TrimSpace(label)
	endpoint = strings.TrimSpace(endpoint)
	if label == "" {
		return nil, errors.New("remote solver: label is empty")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("remote solver %q: endpoint is empty", label)
	}

	s := &HTTPRouteSolver{
		label:       label,
		endpoint:    endpoint,
		session:     &http.Client{Timeout: 60 * time.Second},
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 1
	}

	return s, nil
}

func (s *HTTPRouteSolver) Label() string { return s.label }

func (s *HTTPRouteSolver) Solve(ctx context.Context, req ports.SolveRequest) (_ domain.SolverOutput, err error) {
	defer obs.Time(ctx, "remote."+s.label+".Solve")(&err)

	payload, err := json.Marshal(s.buildRequest(req))
	if err != nil {
		return domain.SolverOutput{}, fmt.Errorf("marshal solve request: %w", err)
	}

	n := len(req.Stops)
	key := cache.Key(s.label, payload)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("solver cache read failed: label=%s err=%v", s.label, err)
		} else if ok {
			out, err := decodeResponse(cached, n)
			if err == nil {
				return out, nil
			}
			log.Printf("discarding cached response: label=%s err=%v", s.label, err)
		}
	}

	resp, err := s.doWithRetry(ctx, func() (*http.Request, error) {
		return s.newRequest(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.SolverOutput{}, fmt.Errorf("solve request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.SolverOutput{}, fmt.Errorf("read solve response: %w", err)
	}

	out, err := decodeResponse(body, n)
	if err != nil {
		return domain.SolverOutput{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, body); err != nil {
			log.Printf("solver cache write failed: label=%s err=%v", s.label, err)
		}
	}

	return out, nil
}

func (s *HTTPRouteSolver) buildRequest(req ports.SolveRequest) remoteSolveRequest {
	body := remoteSolveRequest{
		Points:    make([]remotePoint, len(req.Stops)),
		RoundTrip: req.Policy.RoundTrip,
	}
	for i, p := range req.Stops {
		body.Points[i] = remotePoint{Lat: p.Lat, Lng: p.Lng}
	}
	if req.Policy.Start != nil {
		body.Start = &remotePoint{Lat: req.Policy.Start.Lat, Lng: req.Policy.Start.Lng}
	}
	if req.Policy.End != nil && !req.Policy.RoundTrip {
		body.End = &remotePoint{Lat: req.Policy.End.Lat, Lng: req.Policy.End.Lng}
	}

	if len(s.params)+len(req.Params) > 0 {
		body.Params = make(map[string]any, len(s.params)+len(req.Params))
		for k, v := range s.params {
			body.Params[k] = v
		}
		for k, v := range req.Params {
			body.Params[k] = v
		}
	}

	return body
}

// decodeResponse enforces the response schema. Orders that are empty, partial
// or not a permutation of [0, n) are rejected rather than repaired.
func decodeResponse(body []byte, n int) (domain.SolverOutput, error) {
	var decoded remoteSolveResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.SolverOutput{}, fmt.Errorf("decode solve response: %w", err)
	}

	order := decoded.Order
	if len(order) == 0 {
		order = decoded.Route
	}
	if len(order) == 0 {
		return domain.SolverOutput{}, fmt.Errorf("%w: response has no order or route", ErrInvalidRemoteOrder)
	}
	if err := services.ValidateOrder(order, n); err != nil {
		return domain.SolverOutput{}, fmt.Errorf("%w: %w", ErrInvalidRemoteOrder, err)
	}

	return domain.SolverOutput{
		Order:      order,
		Energy:     decoded.Energy,
		ReportedKm: decoded.Distance,
	}, nil
}
