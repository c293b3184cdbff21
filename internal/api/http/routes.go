package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Colorata/WeatherComposePoc/internal/appstate"
	"github.com/Colorata/WeatherComposePoc/internal/screen"
	"github.com/Colorata/WeatherComposePoc/internal/viewmodel"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, st *appstate.AppState) {
	v1 := app.Group("/api/v1")

	v1.Get("/screen/weather", func(c *fiber.Ctx) error {
		var q screenQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		state := awaitScreen(st.WeatherScreen, q.Wait)
		return c.JSON(screen.Render(state, st.UnitSymbol))
	})

	v1.Post("/screen/weather/refresh", func(c *fiber.Ctx) error {
		// Mounting fetches by itself; only an already mounted screen needs
		// the event.
		if !st.RefreshWeather() {
			st.WeatherScreen.Mount()
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "refreshing",
			"city":   st.City,
		})
	})

	v1.Get("/screen/weather/icon", func(c *fiber.Ctx) error {
		data, ok := st.WeatherScreen.State().Weather.Value()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "weather is not loaded")
		}
		icon, ok := data.Icon.Value()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "icon is not loaded")
		}
		c.Set(fiber.HeaderContentType, http.DetectContentType(icon))
		return c.Send(icon)
	})

	v1.Delete("/screen/weather", func(c *fiber.Ctx) error {
		st.WeatherScreen.Dispose()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		req := historyQuery{City: st.City}
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		readings := st.History(req.City)
		if req.Limit > 0 && len(readings) > req.Limit {
			readings = readings[len(readings)-req.Limit:]
		}

		return c.JSON(fiber.Map{
			"city":     req.City,
			"readings": readings,
		})
	})
}

// awaitScreen mounts the screen and, when wait is positive, waits up to wait
// for it to leave the loading state.
func awaitScreen(ws *viewmodel.WeatherScreen, wait time.Duration) viewmodel.WeatherScreenState {
	sub := ws.Provide()
	defer sub.Unsubscribe()

	state := ws.State()
	if wait <= 0 {
		return state
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	for state.Weather.IsLoading() {
		select {
		case s, ok := <-sub.C():
			if !ok {
				return ws.State()
			}
			state = s
		case <-timer.C:
			return state
		}
	}
	return state
}

// screenQuery holds query parameters for the screen endpoint.
type screenQuery struct {
	Wait time.Duration `validate:"gte=0,lte=30s"`
}

func (q *screenQuery) bind(c *fiber.Ctx) error {
	if s := c.Query("wait"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.New("invalid wait; use a duration such as 5s")
		}
		q.Wait = d
	}
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	City  string `validate:"required"`
	Limit int    `validate:"gte=0,lte=1000"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	if city := c.Query("city"); city != "" {
		h.City = city
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("invalid limit; use a whole number")
		}
		h.Limit = n
	}
	return nil
}
