package viewmodel

import (
	"math"
	"testing"

	"github.com/npratt/beacon/internal/feed"
	"github.com/npratt/beacon/internal/progress"
	"github.com/npratt/beacon/internal/stage"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.1, 10},
		{0.4, 40},
		{0.125, 13},
		{0.994, 99},
		{1, 100},
		{1.5, 100},
		{-0.2, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Percentage(tt.in); got != tt.want {
			t.Errorf("Percentage(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := PercentLabel(0.1); got != "10%" {
		t.Errorf("PercentLabel(0.1) = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0s"},
		{5, "5s"},
		{5.9, "5s"},
		{40, "40s"},
		{59.99, "59s"},
		{60, "1m 0s"},
		{125, "2m 5s"},
		{3601, "60m 1s"},
		{-3, "0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIndicatorLabel(t *testing.T) {
	tests := []struct {
		ind  progress.Indicators
		want string
	}{
		{progress.Indicators{Thinking: true, Coding: true}, "Thinking & coding"},
		{progress.Indicators{Coding: true}, "Coding"},
		{progress.Indicators{Thinking: true}, "Thinking"},
		{progress.Indicators{}, "Idle"},
	}
	for _, tt := range tests {
		if got := IndicatorLabel(tt.ind); got != tt.want {
			t.Errorf("IndicatorLabel(%+v) = %q, want %q", tt.ind, got, tt.want)
		}
	}
}

func TestInitial(t *testing.T) {
	vm := Initial(true)
	if vm.Status != stage.StatusIdle || !vm.Visible || vm.Connection != feed.StateDisconnected {
		t.Errorf("Initial(true) = %+v", vm)
	}
	if got := Initial(false).Status; got != stage.StatusHidden {
		t.Errorf("Initial(false).Status = %s, want hidden", got)
	}
}

func TestViewModelLabels(t *testing.T) {
	eta := 125.0
	vm := ViewModel{Progress: 0.4, ElapsedS: 40, ETASeconds: &eta, Indicators: progress.Indicators{Coding: true}}
	if got := vm.PercentLabel(); got != "40%" {
		t.Errorf("PercentLabel = %q", got)
	}
	if got := vm.ElapsedLabel(); got != "40s" {
		t.Errorf("ElapsedLabel = %q", got)
	}
	if got := vm.ETALabel(); got != "2m 5s" {
		t.Errorf("ETALabel = %q", got)
	}
	if got := vm.IndicatorLabel(); got != "Coding" {
		t.Errorf("IndicatorLabel = %q", got)
	}
	vm.ETASeconds = nil
	if got := vm.ETALabel(); got != "" {
		t.Errorf("ETALabel without eta = %q", got)
	}
}
