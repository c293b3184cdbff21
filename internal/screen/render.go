package screen

import (
	"fmt"
	"strconv"

	"github.com/Colorata/WeatherComposePoc/internal/viewmodel"
)

const (
	TextLoading = "Loading..."
	TextFailure = "Cannot load weather"

	IconLoaded      = "loaded"
	IconLoading     = "loading"
	IconUnavailable = "No icon"
)

// View is the rendered weather screen.
type View struct {
	City        string `json:"city"`
	Status      string `json:"status"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon"`
}

// Render turns screen state into what the screen displays. unit is the
// temperature suffix, e.g. "°C". Failures are not told apart.
func Render(state viewmodel.WeatherScreenState, unit string) View {
	v := View{
		City:   state.City,
		Status: state.Weather.Status().String(),
		Icon:   IconLoading,
	}

	state.Weather.
		OnLoading(func() {
			v.Text = TextLoading
		}).
		OnFailure(func(error) {
			v.Text = TextFailure
			v.Icon = IconUnavailable
		})

	data, ok := state.Weather.Value()
	if !ok {
		return v
	}
	main, _ := data.MainData.Value()
	v.Text = fmt.Sprintf("%s, %s%s, feels like %s%s",
		main.ShortName, degrees(main.ActualDegrees), unit, degrees(main.FeelsLikeDegrees), unit)
	v.Description = main.Description

	switch {
	case data.Icon.IsSuccess():
		v.Icon = IconLoaded
	case data.Icon.IsFailure():
		v.Icon = IconUnavailable
	}
	return v
}

func degrees(d float64) string {
	return strconv.FormatFloat(d, 'f', 1, 64)
}
