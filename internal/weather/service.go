package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Colorata/WeatherComposePoc/internal/core"
	"github.com/Colorata/WeatherComposePoc/internal/logging"
)

// Pack is the stateful weather provider: history in, WeatherData out.
type Pack = core.Pack[WeatherProviderState, ProviderEvent, WeatherData]

// Service fetches weather from a Source and records successful readings.
type Service struct {
	source    Source
	fetcher   Fetcher
	logger    logging.Logger
	iconDelay time.Duration
	now       func() time.Time
}

// NewService creates a new Service. iconDelay is waited before the icon
// result is delivered; zero delivers it as soon as it arrives.
func NewService(source Source, fetcher Fetcher, logger logging.Logger, iconDelay time.Duration) *Service {
	return &Service{
		source:    source,
		fetcher:   fetcher,
		logger:    logger,
		iconDelay: iconDelay,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NewPack binds the service into a stateful Pack with an empty history.
func (s *Service) NewPack() *Pack {
	return core.NewStatefulPack("weather/"+s.source.Name(), WeatherProviderState{}, NewWeatherData(), s.Produce)
}

// Produce handles one provider event. The main reading is published as soon
// as it is known and the icon follows independently. Fetches may overlap:
// whichever main reading lands last is shown, and an icon is only attached to
// the reading of the fetch that loaded it.
func (s *Service) Produce(ctx context.Context, state *core.Cell[WeatherProviderState], event ProviderEvent, out *core.Output[WeatherData]) {
	ev, ok := event.(WeatherForCity)
	if !ok {
		return
	}
	run := uuid.NewString()
	reset := NewWeatherData()
	reset.run = run
	out.Set(reset)

	decoded := s.fetchMain(ctx, ev.City)
	main := core.AsOther(decoded, func(d Decoded) MainWeatherData { return d.Main }).
		OnSuccess(func(d MainWeatherData) {
			reading := Reading{
				ID:              run,
				City:            ev.City,
				FetchedAt:       s.now(),
				MainWeatherData: d,
			}
			state.Update(func(st WeatherProviderState) WeatherProviderState { return st.Append(reading) })
			s.logger.Debug(s.source.Name(), fmt.Sprintf("reading %s for %s: %s", reading.ID, ev.City, d.ShortName))
		}).
		OnFailure(func(err error) {
			s.logger.Error("Cannot fetch weather", fmt.Sprintf("%s: %v", ev.City, err))
		})

	out.Update(func(w WeatherData) WeatherData {
		if w.run != run {
			w.Icon = core.Loading[[]byte]()
			w.run = run
		}
		w.MainData = main
		return w
	})

	d, ok := decoded.Value()
	if !ok {
		return
	}
	if d.IconCode == "" {
		s.setIcon(out, run, core.Failure[[]byte](fmt.Errorf("%w: response has no icon", ErrDecode)))
		return
	}

	icon := s.fetcher.Fetch(ctx, s.source.IconURL(d.IconCode))
	if s.iconDelay > 0 {
		timer := time.NewTimer(s.iconDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	icon.OnFailure(func(err error) {
		s.logger.Warning("Cannot fetch weather icon", fmt.Sprintf("%s: %v", d.IconCode, err))
	})

	s.setIcon(out, run, icon)
}

// setIcon attaches icon unless a newer fetch has taken over the output.
func (s *Service) setIcon(out *core.Output[WeatherData], run string, icon core.Result[[]byte]) {
	out.Update(func(w WeatherData) WeatherData {
		if w.run != run {
			s.logger.Debug(s.source.Name(), "dropping icon of a superseded fetch")
			return w
		}
		w.Icon = icon
		return w
	})
}

func (s *Service) fetchMain(ctx context.Context, city string) core.Result[Decoded] {
	url, err := s.source.WeatherURL(city)
	if err != nil {
		return core.Failure[Decoded](err)
	}
	return core.Then(s.fetcher.Fetch(ctx, url), s.source.Decode)
}
