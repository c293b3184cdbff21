package weather

import (
	"time"

	"github.com/Colorata/WeatherComposePoc/internal/core"
)

// MainWeatherData is the textual part of a weather reading.
type MainWeatherData struct {
	ShortName        string  `json:"shortName"`
	Description      string  `json:"description"`
	ActualDegrees    float64 `json:"actualDegrees"`
	FeelsLikeDegrees float64 `json:"feelsLikeDegrees"`
}

// WeatherData merges the main reading and its icon. Both are fetched
// separately and either can fail without affecting the other.
type WeatherData struct {
	MainData core.Result[MainWeatherData] `json:"mainData"`
	Icon     core.Result[[]byte]          `json:"-"`

	// run identifies the fetch that produced MainData.
	run string
}

// NewWeatherData returns WeatherData with both parts loading.
func NewWeatherData() WeatherData {
	return WeatherData{
		MainData: core.Loading[MainWeatherData](),
		Icon:     core.Loading[[]byte](),
	}
}

// Result views the whole WeatherData through the state of its main reading.
func (w WeatherData) Result() core.Result[WeatherData] {
	return core.AsOther(w.MainData, func(MainWeatherData) WeatherData { return w })
}

// Reading is one successful fetch kept in the provider history.
type Reading struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	FetchedAt time.Time `json:"fetchedAt"` // always UTC
	MainWeatherData
}
