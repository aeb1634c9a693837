package security

import (
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct connection", "203.0.113.7:4242", "", "", "203.0.113.7"},
		{"trusted proxy honors xff", "10.0.0.5:80", "198.51.100.2, 10.0.0.5", "", "198.51.100.2"},
		{"trusted proxy honors x-real-ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"untrusted peer ignores xff", "203.0.113.7:4242", "198.51.100.2", "", "203.0.113.7"},
		{"garbage xff falls back", "10.0.0.5:80", "not-an-ip", "", "10.0.0.5"},
		{"no port still works", "192.168.1.20", "", "", "192.168.1.20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/expenses", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("100.64.0.0/10"); err != nil {
		t.Fatalf("AddTrustedProxy() error: %v", err)
	}

	r := httptest.NewRequest("GET", "/expenses", nil)
	r.RemoteAddr = "100.64.0.1:80"
	r.Header.Set("X-Forwarded-For", "198.51.100.2")
	if got := d.ExtractClientIP(r); got != "198.51.100.2" {
		t.Errorf("ExtractClientIP() = %q, want forwarded address", got)
	}

	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("AddTrustedProxy() accepted garbage")
	}
}
