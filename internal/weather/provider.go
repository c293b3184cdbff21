package weather

import (
	"context"
	"errors"

	"github.com/Colorata/WeatherComposePoc/internal/core"
)

var (
	// ErrDecode is wrapped by every malformed-response error.
	ErrDecode = errors.New("decode error")

	ErrMissingAPIKey = errors.New("api key is not configured")
)

// ProviderEvent is handled by the weather provider Pack.
type ProviderEvent interface {
	isProviderEvent()
}

// WeatherForCity asks for the current weather in City.
type WeatherForCity struct {
	City string
}

func (WeatherForCity) isProviderEvent() {}

// Decoded is a parsed weather response.
type Decoded struct {
	Main MainWeatherData
	// IconCode names the icon image; empty when the response has none.
	IconCode string
}

// Source abstracts a weather API (e.g. OpenWeatherMap): how to address it
// and how to read its responses.
type Source interface {
	Name() string
	WeatherURL(city string) (string, error)
	IconURL(code string) string
	Decode(body []byte) (Decoded, error)
}

// Fetcher performs a GET and reports the body as a Result.
type Fetcher interface {
	Fetch(ctx context.Context, url string) core.Result[[]byte]
}
