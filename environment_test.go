package alarm

import (
	"sync"
	"testing"

	"github.com/zheskett/raspi-alarm/internal/weather"
)

func TestEnvStateSnapshot(t *testing.T) {
	e := &EnvState{}

	snap, ok := e.TrySnapshot()
	if !ok {
		t.Fatal("uncontended TrySnapshot failed")
	}
	if snap.HasClimate || snap.Forecast != nil {
		t.Fatalf("zero state not empty: %+v", snap)
	}

	e.SetClimate(21.5, 40)
	e.SetForecast(&weather.Forecast{TempC: 18})
	snap, ok = e.TrySnapshot()
	if !ok {
		t.Fatal("uncontended TrySnapshot failed")
	}
	if !snap.HasClimate || snap.TempC != 21.5 || snap.Humidity != 40 {
		t.Fatalf("climate not recorded: %+v", snap)
	}
	if snap.Forecast == nil || snap.Forecast.TempC != 18 {
		t.Fatalf("forecast not recorded: %+v", snap.Forecast)
	}

	// Clearing the forecast keeps the climate.
	e.SetForecast(nil)
	snap, _ = e.TrySnapshot()
	if snap.Forecast != nil || !snap.HasClimate {
		t.Fatalf("forecast clear mishandled: %+v", snap)
	}
}

func TestTrySnapshotDoesNotBlock(t *testing.T) {
	e := &EnvState{}
	e.mu.Lock()
	if _, ok := e.TrySnapshot(); ok {
		t.Fatal("TrySnapshot acquired a held lock")
	}
	e.mu.Unlock()
	if _, ok := e.TrySnapshot(); !ok {
		t.Fatal("TrySnapshot failed after release")
	}
}

func TestEnvStateConcurrentWriters(t *testing.T) {
	e := &EnvState{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n float32) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e.SetClimate(n, n)
				e.SetForecast(nil)
			}
		}(float32(i))
	}
	for i := 0; i < 100; i++ {
		if snap, ok := e.TrySnapshot(); ok && snap.HasClimate {
			// Both fields must come from the same write.
			if snap.TempC != snap.Humidity {
				t.Fatal("torn read")
			}
		}
	}
	wg.Wait()
}
