// Package weather fetches the current conditions and a short daily forecast
// from wttr.in's JSON endpoint. A fetch failure means "no data": the caller
// renders a placeholder and retries on its next poll interval, with no
// backoff.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://wttr.in"

// Forecast is the small slice of the service response the clock renders.
type Forecast struct {
	// TempC is the current temperature.
	TempC float64
	// Description is the current condition, e.g. "Partly cloudy".
	Description string
	// Days holds up to three daily forecasts, today first.
	Days []Day
}

// Day is one day's forecast.
type Day struct {
	HighC  float64
	LowC   float64
	Hourly []Hour
}

// Hour is a single hourly sample within a day.
type Hour struct {
	Time  string // service-local label, e.g. "900" for 09:00
	TempC float64
}

// Client fetches forecasts for a fixed location.
type Client struct {
	http     *http.Client
	base     string
	location string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the service endpoint (used by tests).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = base }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient returns a client for the given location, which may be a place
// name or a "lat,lon" pair.
func NewClient(location string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		base:     defaultBaseURL,
		location: location,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// wire types for wttr.in's j1 format; every number arrives as a string.
type wttrResponse struct {
	CurrentCondition []struct {
		TempC       string `json:"temp_C"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
	Weather []struct {
		MaxTempC string `json:"maxtempC"`
		MinTempC string `json:"mintempC"`
		Hourly   []struct {
			Time  string `json:"time"`
			TempC string `json:"tempC"`
		} `json:"hourly"`
	} `json:"weather"`
}

// Fetch retrieves the forecast. Any transport, status or decode problem is
// returned as an error; the caller treats it as "no data available".
func (c *Client) Fetch(ctx context.Context) (*Forecast, error) {
	u := c.base + "/" + url.PathEscape(c.location) + "?format=j1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.New("weather: build request: " + err.Error())
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New("weather: fetch: " + err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("weather: unexpected status " + resp.Status)
	}

	var wire wttrResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, errors.New("weather: decode: " + err.Error())
	}
	if len(wire.CurrentCondition) == 0 {
		return nil, errors.New("weather: empty response")
	}

	f := &Forecast{TempC: atof(wire.CurrentCondition[0].TempC)}
	if len(wire.CurrentCondition[0].WeatherDesc) > 0 {
		f.Description = wire.CurrentCondition[0].WeatherDesc[0].Value
	}
	for i, d := range wire.Weather {
		if i == 3 {
			break
		}
		day := Day{HighC: atof(d.MaxTempC), LowC: atof(d.MinTempC)}
		for _, h := range d.Hourly {
			day.Hourly = append(day.Hourly, Hour{Time: h.Time, TempC: atof(h.TempC)})
		}
		f.Days = append(f.Days, day)
	}
	return f, nil
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
