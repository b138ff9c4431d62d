package contracts

import "testing"

func TestParseInstrument(t *testing.T) {
	tests := []struct {
		name string
		want Instrument
	}{
		{"MARIO", Mario},
		{"boo", Boo},
		{"ShyGuy", ShyGuy},
	}
	for _, tt := range tests {
		got, err := ParseInstrument(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseInstrument(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}

	for _, inst := range Instruments() {
		if got, err := ParseInstrument(inst.String()); err != nil || got != inst {
			t.Errorf("ParseInstrument(%q) = %v, %v", inst, got, err)
		}
	}

	if _, err := ParseInstrument("Bowser"); err == nil {
		t.Error("expected an unknown instrument to be rejected")
	}
}
