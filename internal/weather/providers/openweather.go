package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Colorata/WeatherComposePoc/internal/weather"
)

const (
	DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	DefaultIconURL    = "http://openweathermap.org/img/w"
)

// OpenWeatherProvider implements weather.Source for OpenWeatherMap.
type OpenWeatherProvider struct {
	name        string
	apiKey      string
	units       string
	baseURL     string
	iconBaseURL string
}

// NewOpenWeatherProvider returns a source for the current-weather endpoint.
// Empty URLs fall back to the public OpenWeatherMap endpoints.
func NewOpenWeatherProvider(apiKey, units, baseURL, iconBaseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	if iconBaseURL == "" {
		iconBaseURL = DefaultIconURL
	}
	if units == "" {
		units = "metric"
	}
	return &OpenWeatherProvider{
		name:        "openweathermap",
		apiKey:      apiKey,
		units:       units,
		baseURL:     baseURL,
		iconBaseURL: strings.TrimRight(iconBaseURL, "/"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) WeatherURL(city string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("openweather: %w", weather.ErrMissingAPIKey)
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("units", p.units)
	values.Set("appid", p.apiKey)

	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil
}

func (p *OpenWeatherProvider) IconURL(code string) string {
	return fmt.Sprintf("%s/%s.png", p.iconBaseURL, url.PathEscape(code))
}

// Decode reads a current-weather response. When several conditions are
// reported the last one is used.
func (p *OpenWeatherProvider) Decode(body []byte) (weather.Decoded, error) {
	var payload struct {
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Main *struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
		} `json:"main"`
	}

	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return weather.Decoded{}, fmt.Errorf("%w: %v", weather.ErrDecode, err)
	}
	if len(payload.Weather) == 0 {
		return weather.Decoded{}, fmt.Errorf("%w: response has no weather entries", weather.ErrDecode)
	}
	if payload.Main == nil || payload.Main.Temp == nil || payload.Main.FeelsLike == nil {
		return weather.Decoded{}, fmt.Errorf("%w: response has no temperature", weather.ErrDecode)
	}

	last := payload.Weather[len(payload.Weather)-1]
	return weather.Decoded{
		Main: weather.MainWeatherData{
			ShortName:        last.Main,
			Description:      last.Description,
			ActualDegrees:    *payload.Main.Temp,
			FeelsLikeDegrees: *payload.Main.FeelsLike,
		},
		IconCode: last.Icon,
	}, nil
}
