package appstate

import (
	"context"
	"net/http"

	"github.com/Colorata/WeatherComposePoc/internal/config"
	"github.com/Colorata/WeatherComposePoc/internal/logging"
	"github.com/Colorata/WeatherComposePoc/internal/netclient"
	"github.com/Colorata/WeatherComposePoc/internal/viewmodel"
	"github.com/Colorata/WeatherComposePoc/internal/weather"
	"github.com/Colorata/WeatherComposePoc/internal/weather/providers"
)

// AppState carries the application-wide collaborators. It is passed
// explicitly to whatever needs them.
type AppState struct {
	Logger     logging.Logger
	HTTPClient *http.Client
	Net        *netclient.Client

	WeatherProvider *weather.Pack
	WeatherScreen   *viewmodel.WeatherScreen

	City       string
	UnitSymbol string
}

// New wires the application from cfg. ctx bounds every background loop.
func New(ctx context.Context, cfg *config.AppConfig, logger logging.Logger) *AppState {
	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	net := netclient.New(httpClient, netclient.BreakerConfig{
		MaxFailures: uint32(cfg.BreakerMaxFailures),
		Timeout:     cfg.BreakerTimeout,
	}, logger)

	source := providers.NewOpenWeatherProvider(cfg.OpenWeatherAPIKey, cfg.Units, cfg.WeatherBaseURL, cfg.IconBaseURL)
	provider := weather.NewService(source, net, logger, cfg.IconDelay).NewPack()

	return &AppState{
		Logger:          logger,
		HTTPClient:      httpClient,
		Net:             net,
		WeatherProvider: provider,
		WeatherScreen:   viewmodel.NewWeatherScreen(ctx, cfg.City, provider, logger),
		City:            cfg.City,
		UnitSymbol:      cfg.UnitSymbol(),
	}
}

// RefreshWeather emits a refresh on the weather screen if it is mounted and
// reports whether it did. An unmounted screen is left alone so no stale event
// waits for the next mount.
func (s *AppState) RefreshWeather() bool {
	return s.WeatherScreen.EmitIfMounted(viewmodel.RefreshWeather{})
}

// History returns the recorded readings for city, oldest first.
func (s *AppState) History(city string) []weather.Reading {
	return s.WeatherProvider.State().History(city)
}

// Close unmounts the weather screen.
func (s *AppState) Close() {
	s.WeatherScreen.Dispose()
}
