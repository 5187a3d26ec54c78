package config

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.TickRate != 1000 || cfg.SlowPeriod != 2000 || cfg.FastPeriod != 50 {
		t.Errorf("Unexpected timing defaults: rate=%d slow=%d fast=%d", cfg.TickRate, cfg.SlowPeriod, cfg.FastPeriod)
	}
	if cfg.QueueCapacity != 3 {
		t.Errorf("Expected queue capacity 3, got %d", cfg.QueueCapacity)
	}
	if cfg.Substrate != SubstrateCooperative {
		t.Errorf("Expected cooperative substrate, got %q", cfg.Substrate)
	}
	if cfg.LED.Output != OutputGPIO {
		t.Errorf("Expected gpio output, got %q", cfg.LED.Output)
	}
	if cfg.PullUp() {
		t.Error("Active-high button should default to a pull-down")
	}
}

func TestLoadConfigActiveLowPullsUp(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"button": {"pin": "gpio14", "active_low": true}}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.PullUp() {
		t.Error("Active-low button should default to a pull-up")
	}
	if cfg.Button.Pin != "gpio14" {
		t.Errorf("Expected gpio14, got %q", cfg.Button.Pin)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	data := []byte(`{
		"slow_period": 1000,
		"fast_period": 100,
		"queue_capacity": 8,
		"substrate": "interrupt",
		"led": {"pin": "gpio16", "output": "ws2812", "color": [255, 0, 0]}
	}`)

	cfg, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SlowPeriod != 1000 || cfg.FastPeriod != 100 || cfg.QueueCapacity != 8 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if cfg.Substrate != SubstrateInterrupt || cfg.LED.Output != OutputWS2812 {
		t.Errorf("Expected interrupt/ws2812, got %q/%q", cfg.Substrate, cfg.LED.Output)
	}
	if cfg.LED.Color != [3]uint8{255, 0, 0} {
		t.Errorf("Expected red, got %v", cfg.LED.Color)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"fast not faster", `{"slow_period": 50, "fast_period": 50}`, ErrPeriodOrder},
		{"negative capacity", `{"queue_capacity": -1}`, ErrZeroCapacity},
		{"bad substrate", `{"substrate": "threads"}`, ErrUnknownSubstrate},
		{"bad output", `{"led": {"output": "lcd"}}`, ErrUnknownOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.json))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPinNumber(t *testing.T) {
	tests := []struct {
		name string
		want uint32
		ok   bool
	}{
		{"gpio15", 15, true},
		{"GPIO25", 25, true},
		{"4", 4, true},
		{"gpio", 0, false},
		{"pa3", 0, false},
		{"gpio999", 0, false},
	}
	for _, tt := range tests {
		got, err := PinNumber(tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("PinNumber(%q) err=%v, want ok=%v", tt.name, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("PinNumber(%q) = %d, want %d", tt.name, got, tt.want)
		}
		if !tt.ok && !errors.Is(err, ErrBadPin) {
			t.Errorf("PinNumber(%q) should wrap ErrBadPin, got %v", tt.name, err)
		}
	}
}

func TestLoadConfigBadPin(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"led": {"pin": "led0"}}`)); !errors.Is(err, ErrBadPin) {
		t.Errorf("Expected ErrBadPin, got %v", err)
	}
}

func TestLoadConfigBadPull(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"button": {"pull": "sideways"}}`)); err == nil {
		t.Error("Expected an error for an unknown pull")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"slow_period": `)); err == nil {
		t.Error("Expected a JSON error")
	}
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/blinkrate.json", []byte(`{"fast_period": 25}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(fs, "/etc/blinkrate.json")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.FastPeriod != 25 || cfg.SlowPeriod != 2000 {
		t.Errorf("Expected fast=25 slow=2000, got fast=%d slow=%d", cfg.FastPeriod, cfg.SlowPeriod)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(afero.NewMemMapFs(), "/nope.json"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLoadFileInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/c.json", []byte(`{"substrate": "x"}`), 0o644)

	if _, err := LoadFile(fs, "/c.json"); !errors.Is(err, ErrUnknownSubstrate) {
		t.Errorf("Validation error should be wrapped, got %v", err)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := DefaultConfig()
	cfg.Substrate = SubstrateInterrupt

	if err := WriteFile(fs, "/home/pi/.config/blinkrate/config.json", cfg); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := LoadFile(fs, "/home/pi/.config/blinkrate/config.json")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if *got != *cfg {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}
