package viewmodel

import (
	"context"

	"github.com/Colorata/WeatherComposePoc/internal/core"
	"github.com/Colorata/WeatherComposePoc/internal/logging"
	"github.com/Colorata/WeatherComposePoc/internal/weather"
)

const logTag = "WeatherViewModel"

// WeatherScreenState is everything the weather screen shows.
type WeatherScreenState struct {
	City    string                           `json:"city"`
	Weather core.Result[weather.WeatherData] `json:"weather"`
}

// InitialWeatherScreenState is the state before anything is known.
func InitialWeatherScreenState(city string) WeatherScreenState {
	return WeatherScreenState{City: city, Weather: core.Loading[weather.WeatherData]()}
}

// WeatherScreenEvent is a user event on the weather screen.
type WeatherScreenEvent interface {
	isWeatherScreenEvent()
}

// RefreshWeather asks for the weather to be fetched again.
type RefreshWeather struct{}

func (RefreshWeather) isWeatherScreenEvent() {}

// WeatherScreen is the screen provider type for the weather screen.
type WeatherScreen = core.ScreenProvider[WeatherScreenEvent, WeatherScreenState]

// NewWeatherScreen builds the weather screen around provider. The city is
// fixed for the lifetime of the screen.
func NewWeatherScreen(ctx context.Context, city string, provider *weather.Pack, logger logging.Logger) *WeatherScreen {
	return core.NewScreenProvider(ctx, InitialWeatherScreenState(city), WeatherViewModel(city, provider, logger))
}

// WeatherViewModel fetches the weather for city when mounted and again on
// every RefreshWeather. Each provider update replaces the whole state, so the
// newest completion is what the screen shows.
func WeatherViewModel(city string, provider *weather.Pack, logger logging.Logger) core.ViewModel[WeatherScreenEvent, WeatherScreenState] {
	return func(ctx context.Context, events *core.EventFlow[WeatherScreenEvent], state *core.Output[WeatherScreenState]) {
		providerEvents := core.NewEventFlow[weather.ProviderEvent]()
		flow := provider.ProvideFlow(ctx, providerEvents)
		defer flow.Close()

		data := flow.Subscribe()
		defer data.Unsubscribe()
		screenEvents := events.Subscribe()
		defer screenEvents.Unsubscribe()

		state.Set(InitialWeatherScreenState(city))
		logger.Debug(logTag, "mounted, fetching weather for "+city)
		providerEvents.Emit(weather.WeatherForCity{City: city})

		for {
			select {
			case <-ctx.Done():
				logger.Debug(logTag, "disposed")
				return
			case ev, ok := <-screenEvents.C():
				if !ok {
					return
				}
				switch ev.Value.(type) {
				case RefreshWeather:
					logger.Debug(logTag, "refresh requested for "+city)
					providerEvents.Emit(weather.WeatherForCity{City: city})
				}
			case d, ok := <-data.C():
				if !ok {
					return
				}
				state.Set(WeatherScreenState{City: city, Weather: d.Result()})
			}
		}
	}
}
