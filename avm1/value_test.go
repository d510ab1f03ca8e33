package avm1

import (
	"math"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{100, "100"},
		{-2.25, "-2.25"},
		{0.1, "0.1"},
		{1.0 / 3, "0.333333333333333"},
		{0.00001, "0.00001"},
		{0.000001, "1e-6"},
		{1e15, "1e+15"},
		{123456789012345678, "1.23456789012346e+17"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		s    string
		want float64
	}{
		{"  12 ", 12},
		{"0x10", 16},
		{"1e3", 1000},
		{"-0.5", -0.5},
		{"Infinity", math.Inf(1)},
	}
	for _, tt := range tests {
		if got := parseNumber(tt.s); got != tt.want {
			t.Errorf("parseNumber(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
	for _, s := range []string{"", "abc", "12px", "0xZZ"} {
		if got := parseNumber(s); !math.IsNaN(got) {
			t.Errorf("parseNumber(%q) = %v, want NaN", s, got)
		}
	}
}

func TestToInt32(t *testing.T) {
	tests := []struct {
		n    float64
		want int32
	}{
		{1.9, 1},
		{-1.9, -1},
		{4294967297, 1},
		{2147483648, -2147483648},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := toInt32(tt.n); got != tt.want {
			t.Errorf("toInt32(%v) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestToBoolByVersion(t *testing.T) {
	tests := []struct {
		v       Value
		version uint8
		want    bool
	}{
		{String("0"), 6, false},
		{String("0"), 7, true},
		{String("abc"), 6, false},
		{String("2"), 6, true},
		{String(""), 7, false},
		{Number(math.NaN()), 7, false},
		{Undefined, 7, false},
	}
	for _, tt := range tests {
		if got := tt.v.ToBool(tt.version); got != tt.want {
			t.Errorf("%s.ToBool(%d) = %v, want %v", tt.v.debugString(), tt.version, got, tt.want)
		}
	}
}

func TestUndefinedToNumberByVersion(t *testing.T) {
	if n := Undefined.primitiveNumber(6); n != 0 {
		t.Errorf("undefined in v6 = %v, want 0", n)
	}
	if n := Undefined.primitiveNumber(7); !math.IsNaN(n) {
		t.Errorf("undefined in v7 = %v, want NaN", n)
	}
}

func TestEquality(t *testing.T) {
	if StrictEquals(Number(math.NaN()), Number(math.NaN())) {
		t.Error("NaN === NaN")
	}
	if StrictEquals(Number(1), String("1")) {
		t.Error("1 === \"1\"")
	}

	h := newHarness(t, 8)
	h.with(func(act *Activation) {
		tests := []struct {
			a, b Value
			want bool
		}{
			{Null, Undefined, true},
			{String("1"), Number(1), true},
			{Bool(true), Number(1), true},
			{Null, Number(0), false},
			{String("a"), String("b"), false},
		}
		for _, tt := range tests {
			got, err := AbstractEquals(act, tt.a, tt.b)
			if err != nil || got != tt.want {
				t.Errorf("%s == %s = %v, %v; want %v", tt.a.debugString(), tt.b.debugString(), got, err, tt.want)
			}
		}

		boxed := Number(5).ToObject(act)
		if eq, _ := AbstractEquals(act, ObjectValue(boxed), Number(5)); !eq {
			t.Error("boxed 5 != 5")
		}
		if lt, _ := AbstractLessThan(act, Number(math.NaN()), Number(1)); !lt.IsUndefined() {
			t.Errorf("NaN < 1 = %v, want undefined", lt.debugString())
		}
	})
}

func TestUTF16Len(t *testing.T) {
	if n := utf16Len("a😀é"); n != 4 {
		t.Errorf("utf16Len = %d, want 4", n)
	}
}
