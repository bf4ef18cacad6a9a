package store

import (
	"errors"
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewFieldSealer(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantNil bool
		wantErr bool
	}{
		{name: "empty key disables sealing", key: "", wantNil: true},
		{name: "valid key", key: testKey},
		{name: "short key", key: "0011", wantErr: true},
		{name: "not hex", key: strings.Repeat("zz", 32), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewFieldSealer(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Fatalf("expected ErrInvalidKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (s == nil) != tt.wantNil {
				t.Fatalf("sealer nil=%t, want %t", s == nil, tt.wantNil)
			}
		})
	}
}

func TestFieldSealerRoundTrip(t *testing.T) {
	s, err := NewFieldSealer(testKey)
	if err != nil {
		t.Fatalf("NewFieldSealer: %v", err)
	}

	sealed, err := s.Seal("1234567812345678")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !strings.HasPrefix(sealed, sealedPrefix) || strings.Contains(sealed, "1234567812345678") {
		t.Fatalf("value not sealed: %q", sealed)
	}

	again, _ := s.Seal("1234567812345678")
	if again == sealed {
		t.Fatalf("expected a fresh nonce per seal")
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened != "1234567812345678" {
		t.Fatalf("got %q", opened)
	}
}

func TestFieldSealerOpenPlainValue(t *testing.T) {
	s, _ := NewFieldSealer(testKey)
	got, err := s.Open("123")
	if err != nil || got != "123" {
		t.Fatalf("expected plain passthrough, got %q, %v", got, err)
	}
}

func TestFieldSealerRejectsTamperedValue(t *testing.T) {
	s, _ := NewFieldSealer(testKey)
	sealed, _ := s.Seal("123")
	tampered := sealed[:len(sealed)-2] + "AA"
	if tampered == sealed {
		tampered = sealed[:len(sealed)-2] + "BB"
	}
	if _, err := s.Open(tampered); err == nil {
		t.Fatalf("expected error for tampered value")
	}
}

func TestNilFieldSealerPassesThrough(t *testing.T) {
	var s *FieldSealer
	sealed, err := s.Seal("123")
	if err != nil || sealed != "123" {
		t.Fatalf("Seal passthrough: %q, %v", sealed, err)
	}
	opened, err := s.Open("v1:anything")
	if err != nil || opened != "v1:anything" {
		t.Fatalf("Open passthrough: %q, %v", opened, err)
	}
}
