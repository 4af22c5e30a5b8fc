package telemetry

import (
	"context"
	"testing"
)

func TestSampleRate(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{raw: "", want: 0.1},
		{raw: "0.5", want: 0.5},
		{raw: " 1 ", want: 1},
		{raw: "0", want: 0},
		{raw: "1.5", want: 0.1},
		{raw: "-0.2", want: 0.1},
		{raw: "abc", want: 0.1},
	}
	for _, tt := range tests {
		if got := sampleRate(tt.raw); got != tt.want {
			t.Errorf("sampleRate(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestHostPort(t *testing.T) {
	tests := map[string]string{
		"http://collector:4318":          "collector:4318",
		"https://otel.example.com/v1":    "otel.example.com",
		"collector:4318":                 "collector:4318",
		"http://collector:4318/v1/trace": "collector:4318",
	}
	for in, want := range tests {
		if got := hostPort(in); got != want {
			t.Errorf("hostPort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown, err := Init(context.Background(), "cineplayer-test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
