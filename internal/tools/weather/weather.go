// Package weather implements the get_weather_data tool on top of the
// OpenWeatherMap current-weather API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smallchain/internal/tools"
)

const Name = "get_weather_data"

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Definition is the schema shown to the model.
var Definition = tools.Definition{
	Name:        Name,
	Description: "Fetch detailed current weather data for a location.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "Location to get weather data for",
				"examples":    []string{"New York"},
			},
		},
		"required": []string{"location"},
	},
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, http: hc}
}

// Register adds the tool to r.
func Register(r *tools.Registry, c *Client) error {
	return r.Register(Definition, c.Factory)
}

// Factory binds the location parameter.
func (c *Client) Factory(params map[string]any) (tools.Runnable, error) {
	loc, err := tools.StringParam(params, "location")
	if err != nil {
		return nil, err
	}
	return tools.RunnableFunc(func(ctx context.Context) (string, error) {
		r, err := c.Current(ctx, loc)
		if err != nil {
			return "", err
		}
		return r.Summary(), nil
	}), nil
}

// Report is the subset of the current-weather response the tool uses.
type Report struct {
	Name  string `json:"name"`
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64  `json:"speed"`
		Deg   *float64 `json:"deg"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int `json:"timezone"`
}

// Current fetches the weather for location in metric units.
func (c *Client) Current(ctx context.Context, location string) (*Report, error) {
	q := url.Values{
		"q":     {location},
		"appid": {c.apiKey},
		"units": {"metric"},
		"lang":  {"en"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch weather data: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var r Report
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode weather data: %w", err)
	}
	if len(r.Weather) == 0 {
		return nil, fmt.Errorf("decode weather data: no conditions for %q", location)
	}
	return &r, nil
}

// Summary formats the report as the text handed back to the model.
func (r *Report) Summary() string {
	dir := "N/A"
	if r.Wind.Deg != nil {
		dir = fmt.Sprintf("%g", *r.Wind.Deg)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Weather in %s, %s:\n", r.Name, r.Sys.Country)
	fmt.Fprintf(&b, "- Condition: %s (%s)\n", r.Weather[0].Main, r.Weather[0].Description)
	fmt.Fprintf(&b, "- Temperature: %g°C (Feels like: %g°C)\n", r.Main.Temp, r.Main.FeelsLike)
	fmt.Fprintf(&b, "  Min: %g°C, Max: %g°C\n", r.Main.TempMin, r.Main.TempMax)
	fmt.Fprintf(&b, "- Humidity: %d%%\n", r.Main.Humidity)
	fmt.Fprintf(&b, "- Pressure: %d hPa\n", r.Main.Pressure)
	fmt.Fprintf(&b, "- Wind: %g m/s, Direction: %s°\n", r.Wind.Speed, dir)
	fmt.Fprintf(&b, "- Cloudiness: %d%%\n", r.Clouds.All)
	return b.String()
}
