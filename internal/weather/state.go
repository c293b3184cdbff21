package weather

// WeatherProviderState is the history of successful readings per city. It is
// append-only and treated as an immutable value: Append returns a new state.
type WeatherProviderState struct {
	history map[string][]Reading
}

// Append returns a copy of s with r added to the end of r.City's history.
func (s WeatherProviderState) Append(r Reading) WeatherProviderState {
	next := make(map[string][]Reading, len(s.history)+1)
	for city, readings := range s.history {
		next[city] = readings
	}

	prev := s.history[r.City]
	readings := make([]Reading, len(prev), len(prev)+1)
	copy(readings, prev)
	next[r.City] = append(readings, r)

	return WeatherProviderState{history: next}
}

// History returns the readings for city, oldest first.
func (s WeatherProviderState) History(city string) []Reading {
	prev := s.history[city]
	out := make([]Reading, len(prev))
	copy(out, prev)
	return out
}

// Latest returns the newest reading for city.
func (s WeatherProviderState) Latest(city string) (Reading, bool) {
	readings := s.history[city]
	if len(readings) == 0 {
		return Reading{}, false
	}
	return readings[len(readings)-1], true
}

// Len counts readings across all cities.
func (s WeatherProviderState) Len() int {
	n := 0
	for _, readings := range s.history {
		n += len(readings)
	}
	return n
}
