package alarm

import (
	"sync"

	"github.com/zheskett/raspi-alarm/internal/weather"
)

// EnvSnapshot is a copy of the latest environment readings. HasClimate is
// false until the first successful sensor read; Forecast is nil while no
// weather data is available.
type EnvSnapshot struct {
	TempC      float32
	Humidity   float32
	HasClimate bool
	Forecast   *weather.Forecast
}

// EnvState is the latest-value cache shared between the background pollers
// and the render loop. Writers block on the mutex; the renderer reads with a
// non-blocking attempt and reuses its previous snapshot when the lock is
// contended, so the UI never stalls waiting on a poller.
type EnvState struct {
	mu   sync.Mutex
	snap EnvSnapshot
}

// SetClimate records a successful temperature/humidity read.
func (e *EnvState) SetClimate(tempC, humidity float32) {
	e.mu.Lock()
	e.snap.TempC = tempC
	e.snap.Humidity = humidity
	e.snap.HasClimate = true
	e.mu.Unlock()
}

// SetForecast records the latest weather fetch result; nil means no data.
func (e *EnvState) SetForecast(f *weather.Forecast) {
	e.mu.Lock()
	e.snap.Forecast = f
	e.mu.Unlock()
}

// TrySnapshot copies the current state without blocking. ok is false when the
// lock is contended; contention is not an error, it is the signal to reuse
// stale data.
func (e *EnvState) TrySnapshot() (snap EnvSnapshot, ok bool) {
	if !e.mu.TryLock() {
		return EnvSnapshot{}, false
	}
	snap = e.snap
	e.mu.Unlock()
	return snap, true
}
