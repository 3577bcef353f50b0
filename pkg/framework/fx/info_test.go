package fx

import (
	"errors"
	"testing"
)

func TestIDGeneration(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
	}{
		{"demo plugin", "000-VIDIFOLD-DEMO"},
		{"another plugin", "acme-kaleido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Info{CanonicalName: tt.canonical}
			if info.ID() != info.ID() {
				t.Errorf("ID is not deterministic for %s", tt.canonical)
			}
			if info.ID().Version() != 5 {
				t.Errorf("ID version = %d, want 5", info.ID().Version())
			}
		})
	}
}

func TestIDUniqueness(t *testing.T) {
	names := []string{"acme-a", "acme-b", "other-a", "000-VIDIFOLD-DEMO"}
	seen := make(map[string]string)
	for _, n := range names {
		id := Info{CanonicalName: n}.ID().String()
		if prev, ok := seen[id]; ok {
			t.Errorf("ID collision between %s and %s", n, prev)
		}
		seen[id] = n
	}
}

func TestValidate(t *testing.T) {
	valid := Info{Type: TypeEffect, CanonicalName: "acme-blur", Version: "1.2.0"}

	tests := []struct {
		name    string
		mutate  func(i *Info)
		wantErr bool
	}{
		{"valid", func(*Info) {}, false},
		{"short version", func(i *Info) { i.Version = "2" }, false},
		{"empty canonical name", func(i *Info) { i.CanonicalName = "" }, true},
		{"whitespace in canonical name", func(i *Info) { i.CanonicalName = "acme blur" }, true},
		{"no type", func(i *Info) { i.Type = 0 }, true},
		{"bad version", func(i *Info) { i.Version = "one" }, true},
		{"reserved tag", func(i *Info) { i.Tags = []string{"blur", " vf "} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := valid
			tt.mutate(&info)
			err := info.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInfo) {
				t.Errorf("Validate() error = %v, want ErrInvalidInfo", err)
			}
		})
	}
}

func TestTypeString(t *testing.T) {
	if got := (TypeEffect | TypeMixer).String(); got != "effect|mixer" {
		t.Errorf("String() = %q", got)
	}
	if got := Type(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
	if !(TypeEffect | TypeAudio).Has(TypeAudio) {
		t.Error("Has(TypeAudio) = false")
	}
	if TypeEffect.Has(0) {
		t.Error("Has(0) = true")
	}
}
