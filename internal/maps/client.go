package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

// Config describes the mapping-service JSON-RPC endpoint.
type Config struct {
	Endpoint string        `envconfig:"ENDPOINT" default:"http://localhost:3000"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// Client talks JSON-RPC 2.0 to the mapping service.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds the mapping-service client.
func NewClient(cfg Config) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s failed: %s", method, rpcResp.Error.Message)
	}
	if out != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) Search(ctx context.Context, query string, near models.LatLon, radiusMeters, limit int) ([]Place, error) {
	var result struct {
		Places []Place `json:"places"`
	}
	params := map[string]any{
		"query":    query,
		"location": near,
		"radius":   radiusMeters,
		"limit":    limit,
	}
	if err := c.call(ctx, "maps.search", params, &result); err != nil {
		return nil, err
	}
	return result.Places, nil
}

func (c *Client) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	var result struct {
		Results []struct {
			FormattedAddress string        `json:"formatted_address"`
			Position         models.LatLon `json:"position"`
		} `json:"results"`
	}
	if err := c.call(ctx, "maps.geocode", map[string]any{"address": address}, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	top := result.Results[0]
	return &GeocodeResult{Coordinates: top.Position, FormattedAddress: top.FormattedAddress}, nil
}

func (c *Client) ReverseGeocode(ctx context.Context, point models.LatLon) (string, error) {
	var result struct {
		Results []struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"results"`
	}
	params := map[string]any{"lat": point.Lat, "lon": point.Lon}
	if err := c.call(ctx, "maps.reverseGeocode", params, &result); err != nil {
		return "", err
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].FormattedAddress, nil
}

func (c *Client) Route(ctx context.Context, origin, destination models.LatLon) (*RouteSummary, error) {
	var result struct {
		Routes []struct {
			Summary struct {
				LengthInMeters      int64 `json:"lengthInMeters"`
				TravelTimeInSeconds int64 `json:"travelTimeInSeconds"`
			} `json:"summary"`
		} `json:"routes"`
	}
	params := map[string]any{"origin": origin, "destination": destination, "travelMode": "car"}
	if err := c.call(ctx, "maps.directions", params, &result); err != nil {
		return nil, err
	}
	if len(result.Routes) == 0 {
		return nil, fmt.Errorf("%w: no route in response", models.ErrRouteNotFound)
	}
	summary := result.Routes[0].Summary
	return &RouteSummary{
		DistanceMeters:    summary.LengthInMeters,
		TravelTimeSeconds: summary.TravelTimeInSeconds,
	}, nil
}

func (c *Client) Matrix(ctx context.Context, points []models.LatLon) ([][]int64, error) {
	var result struct {
		Matrix [][]struct {
			TravelTimeInSeconds int64 `json:"travelTimeInSeconds"`
			Unreachable         bool  `json:"unreachable"`
		} `json:"matrix"`
	}
	if err := c.call(ctx, "maps.matrix", map[string]any{"points": points}, &result); err != nil {
		return nil, err
	}

	out := make([][]int64, len(result.Matrix))
	for i, row := range result.Matrix {
		out[i] = make([]int64, len(row))
		for j, cell := range row {
			if cell.Unreachable {
				out[i][j] = Unreachable
			} else {
				out[i][j] = cell.TravelTimeInSeconds
			}
		}
	}
	return out, nil
}

func (c *Client) StaticMapURL(center models.LatLon, zoom, width, height int, markers []models.LatLon) string {
	q := url.Values{}
	q.Set("center", fmt.Sprintf("%f,%f", center.Lat, center.Lon))
	q.Set("zoom", fmt.Sprintf("%d", zoom))
	q.Set("size", fmt.Sprintf("%dx%d", width, height))
	for _, m := range markers {
		q.Add("markers", fmt.Sprintf("%f,%f", m.Lat, m.Lon))
	}
	return c.endpoint + "/staticmap?" + q.Encode()
}
