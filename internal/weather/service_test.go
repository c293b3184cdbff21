package weather_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Colorata/WeatherComposePoc/internal/core"
	"github.com/Colorata/WeatherComposePoc/internal/logging"
	"github.com/Colorata/WeatherComposePoc/internal/netclient"
	"github.com/Colorata/WeatherComposePoc/internal/weather"
	"github.com/Colorata/WeatherComposePoc/internal/weather/providers"
)

const kazanBody = `{"weather":[{"main":"Clear","description":"clear sky","icon":"01d"}],"main":{"temp":15.0,"feels_like":13.5}}`

// fakeAPI serves the weather and icon endpoints and counts requests.
type fakeAPI struct {
	weatherStatus int
	iconStatus    int
	weatherHits   atomic.Int32
	iconHits      atomic.Int32
	lastIconPath  atomic.Value
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/data/2.5/weather":
		f.weatherHits.Add(1)
		if f.weatherStatus != http.StatusOK {
			w.WriteHeader(f.weatherStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(kazanBody))
	default:
		f.iconHits.Add(1)
		f.lastIconPath.Store(r.URL.Path)
		if f.iconStatus != http.StatusOK {
			w.WriteHeader(f.iconStatus)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG-icon"))
	}
}

func newService(t *testing.T, api *fakeAPI) *weather.Service {
	t.Helper()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	source := providers.NewOpenWeatherProvider("test-key", "metric", ts.URL+"/data/2.5/weather", ts.URL+"/img/w")
	client := netclient.New(ts.Client(), netclient.BreakerConfig{}, logging.Discard())
	return weather.NewService(source, client, logging.Discard(), 0)
}

func waitData(t *testing.T, sub *core.Subscription[weather.WeatherData], match func(weather.WeatherData) bool) weather.WeatherData {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case d, ok := <-sub.C():
			if !ok {
				t.Fatal("flow closed before match")
			}
			if match(d) {
				return d
			}
		case <-deadline:
			t.Fatal("timed out waiting for weather data")
		}
	}
}

func TestFetchKazanSuccess(t *testing.T) {
	api := &fakeAPI{weatherStatus: http.StatusOK, iconStatus: http.StatusOK}
	pack := newService(t, api).NewPack()

	flow := pack.ProvideFlowFor(context.Background(), weather.WeatherForCity{City: "Kazan"})
	defer flow.Close()

	d := waitData(t, flow.Subscribe(), func(d weather.WeatherData) bool {
		return d.MainData.IsSuccess() && !d.Icon.IsLoading()
	})

	main, _ := d.MainData.Value()
	want := weather.MainWeatherData{ShortName: "Clear", Description: "clear sky", ActualDegrees: 15.0, FeelsLikeDegrees: 13.5}
	if main != want {
		t.Fatalf("expected %+v, got %+v", want, main)
	}
	icon, ok := d.Icon.Value()
	if !ok || string(icon) != "\x89PNG-icon" {
		t.Fatalf("expected icon bytes, got %v %v", d.Icon.Status(), d.Icon.Err())
	}
	if got := api.lastIconPath.Load(); got != "/img/w/01d.png" {
		t.Fatalf("expected icon request for 01d, got %v", got)
	}

	history := pack.State().History("Kazan")
	if len(history) != 1 || history[0].MainWeatherData != want || history[0].ID == "" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestFetchServerErrorLeavesHistoryUnchanged(t *testing.T) {
	api := &fakeAPI{weatherStatus: http.StatusInternalServerError, iconStatus: http.StatusOK}
	pack := newService(t, api).NewPack()

	flow := pack.ProvideFlowFor(context.Background(), weather.WeatherForCity{City: "Kazan"})
	defer flow.Close()

	d := waitData(t, flow.Subscribe(), func(d weather.WeatherData) bool { return d.MainData.IsFailure() })
	if !errors.Is(d.MainData.Err(), netclient.ErrNetwork) {
		t.Fatalf("expected a network error, got %v", d.MainData.Err())
	}

	time.Sleep(50 * time.Millisecond)
	if api.iconHits.Load() != 0 {
		t.Fatalf("expected no icon request, got %d", api.iconHits.Load())
	}
	if n := pack.State().Len(); n != 0 {
		t.Fatalf("expected empty history, got %d readings", n)
	}
	if !flow.Value().Icon.IsLoading() {
		t.Fatal("icon should be untouched by a main failure")
	}
}

func TestIconFailureIsScopedToIcon(t *testing.T) {
	api := &fakeAPI{weatherStatus: http.StatusOK, iconStatus: http.StatusNotFound}
	pack := newService(t, api).NewPack()

	flow := pack.ProvideFlowFor(context.Background(), weather.WeatherForCity{City: "Kazan"})
	defer flow.Close()

	d := waitData(t, flow.Subscribe(), func(d weather.WeatherData) bool { return d.Icon.IsFailure() })
	if !d.MainData.IsSuccess() {
		t.Fatalf("expected main data to stay successful, got %v", d.MainData.Status())
	}
	if !d.Result().IsSuccess() {
		t.Fatal("screen result follows main data, not the icon")
	}
	if pack.State().Len() != 1 {
		t.Fatalf("expected one reading, got %d", pack.State().Len())
	}
}

type staticFetcher map[string]core.Result[[]byte]

func (f staticFetcher) Fetch(_ context.Context, url string) core.Result[[]byte] {
	if r, ok := f[url]; ok {
		return r
	}
	return core.Failure[[]byte](errors.New("unexpected url " + url))
}

func TestDecodeFailureBecomesFailure(t *testing.T) {
	source := providers.NewOpenWeatherProvider("k", "metric", "http://api.test/weather", "http://api.test/img")
	url, _ := source.WeatherURL("Kazan")
	svc := weather.NewService(source, staticFetcher{url: core.Success([]byte(`{"weather":[]}`))}, logging.Discard(), 0)
	pack := svc.NewPack()

	flow := pack.ProvideFlowFor(context.Background(), weather.WeatherForCity{City: "Kazan"})
	defer flow.Close()

	d := waitData(t, flow.Subscribe(), func(d weather.WeatherData) bool { return d.MainData.IsFailure() })
	if !errors.Is(d.MainData.Err(), weather.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", d.MainData.Err())
	}
	if !d.Result().IsFailure() {
		t.Fatal("screen result should be a failure")
	}
}

func TestMissingAPIKeyFailsWithoutRequest(t *testing.T) {
	api := &fakeAPI{weatherStatus: http.StatusOK, iconStatus: http.StatusOK}
	ts := httptest.NewServer(api)
	defer ts.Close()

	source := providers.NewOpenWeatherProvider("", "metric", ts.URL+"/data/2.5/weather", ts.URL+"/img/w")
	client := netclient.New(ts.Client(), netclient.BreakerConfig{}, logging.Discard())
	pack := weather.NewService(source, client, logging.Discard(), 0).NewPack()

	flow := pack.ProvideFlowFor(context.Background(), weather.WeatherForCity{City: "Kazan"})
	defer flow.Close()

	d := waitData(t, flow.Subscribe(), func(d weather.WeatherData) bool { return d.MainData.IsFailure() })
	if !errors.Is(d.MainData.Err(), weather.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", d.MainData.Err())
	}
	if api.weatherHits.Load() != 0 {
		t.Fatal("no request should be sent without an api key")
	}
}

func TestIconDelayHoldsBackIconOnly(t *testing.T) {
	source := providers.NewOpenWeatherProvider("k", "metric", "http://api.test/weather", "http://api.test/img")
	url, _ := source.WeatherURL("Kazan")
	fetcher := staticFetcher{
		url:                   core.Success([]byte(kazanBody)),
		source.IconURL("01d"): core.Success([]byte("png")),
	}
	delay := 200 * time.Millisecond
	pack := weather.NewService(source, fetcher, logging.Discard(), delay).NewPack()

	flow := pack.ProvideFlowFor(context.Background(), weather.WeatherForCity{City: "Kazan"})
	defer flow.Close()
	start := time.Now()
	sub := flow.Subscribe()

	d := waitData(t, sub, func(d weather.WeatherData) bool { return d.MainData.IsSuccess() })
	if !d.Icon.IsLoading() {
		t.Fatal("icon should still be loading while main data is shown")
	}
	waitData(t, sub, func(d weather.WeatherData) bool { return d.Icon.IsSuccess() })
	if elapsed := time.Since(start); elapsed < delay {
		t.Fatalf("icon delivered after %v, before the %v delay", elapsed, delay)
	}
}

func TestStateAppendIsCopyOnWrite(t *testing.T) {
	var s weather.WeatherProviderState
	a := s.Append(weather.Reading{City: "Kazan", ID: "1"})
	b := a.Append(weather.Reading{City: "Kazan", ID: "2"})

	if s.Len() != 0 || a.Len() != 1 || b.Len() != 2 {
		t.Fatalf("unexpected lengths: %d %d %d", s.Len(), a.Len(), b.Len())
	}
	latest, ok := b.Latest("Kazan")
	if !ok || latest.ID != "2" {
		t.Fatalf("unexpected latest: %+v", latest)
	}
	if _, ok := b.Latest("Paris"); ok {
		t.Fatal("expected no reading for Paris")
	}
}

// sequencedFetcher answers the n-th weather request with n*10 degrees and
// icon code "0nd". The icon of the first request waits for release.
type sequencedFetcher struct {
	source      *providers.OpenWeatherProvider
	weatherHits atomic.Int32
	release     chan struct{}
}

func (f *sequencedFetcher) Fetch(ctx context.Context, url string) core.Result[[]byte] {
	if url == f.source.IconURL("01d") {
		select {
		case <-f.release:
		case <-ctx.Done():
			return core.Failure[[]byte](ctx.Err())
		}
		return core.Success([]byte("icon-1"))
	}
	if url == f.source.IconURL("02d") {
		return core.Success([]byte("icon-2"))
	}
	n := f.weatherHits.Add(1)
	return core.Success([]byte(fmt.Sprintf(
		`{"weather":[{"main":"Clear","description":"clear sky","icon":"0%dd"}],"main":{"temp":%d,"feels_like":%d}}`, n, n*10, n*10)))
}

func TestSupersededIconIsDropped(t *testing.T) {
	source := providers.NewOpenWeatherProvider("k", "metric", "http://api.test/weather", "http://api.test/img")
	fetcher := &sequencedFetcher{source: source, release: make(chan struct{})}
	pack := weather.NewService(source, fetcher, logging.Discard(), 0).NewPack()

	events := core.NewEventFlow[weather.ProviderEvent]()
	flow := pack.ProvideFlow(context.Background(), events)
	defer flow.Close()
	sub := flow.Subscribe()

	degrees := func(d weather.WeatherData) float64 {
		main, _ := d.MainData.Value()
		return main.ActualDegrees
	}

	events.Emit(weather.WeatherForCity{City: "Kazan"})
	waitData(t, sub, func(d weather.WeatherData) bool { return degrees(d) == 10 })

	events.Emit(weather.WeatherForCity{City: "Kazan"})
	waitData(t, sub, func(d weather.WeatherData) bool { return degrees(d) == 20 && d.Icon.IsSuccess() })

	close(fetcher.release)
	time.Sleep(100 * time.Millisecond)

	d := flow.Value()
	icon, _ := d.Icon.Value()
	if degrees(d) != 20 || string(icon) != "icon-2" {
		t.Fatalf("expected the second reading with its own icon, got %v°, icon %q", degrees(d), icon)
	}
}
