package tenant

import (
	"testing"
)

func TestParseSubdomain(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		baseDomain string
		want       string
		wantOK     bool
	}{
		{
			name:       "tenant subdomain",
			host:       "demo.risk-hub.de",
			baseDomain: "risk-hub.de",
			want:       "demo",
			wantOK:     true,
		},
		{
			name:       "bare base domain has no tenant",
			host:       "risk-hub.de",
			baseDomain: "risk-hub.de",
			wantOK:     false,
		},
		{
			name:       "localhost with port",
			host:       "demo.localhost:8000",
			baseDomain: "localhost",
			want:       "demo",
			wantOK:     true,
		},
		{
			name:       "case insensitive",
			host:       "Demo.Risk-Hub.DE",
			baseDomain: "risk-hub.de",
			want:       "demo",
			wantOK:     true,
		},
		{
			name:       "unrelated domain never yields a tenant",
			host:       "other.com",
			baseDomain: "risk-hub.de",
			wantOK:     false,
		},
		{
			name:       "suffix lookalike is not a subdomain",
			host:       "evilrisk-hub.de",
			baseDomain: "risk-hub.de",
			wantOK:     false,
		},
		{
			name:       "bare base domain with port",
			host:       "risk-hub.de:443",
			baseDomain: "risk-hub.de",
			wantOK:     false,
		},
		{
			name:       "nested subdomain keeps full prefix",
			host:       "a.b.risk-hub.de",
			baseDomain: "risk-hub.de",
			want:       "a.b",
			wantOK:     true,
		},
		{
			name:       "bare localhost",
			host:       "localhost:8080",
			baseDomain: "localhost",
			wantOK:     false,
		},
		{
			name:       "empty host",
			host:       "",
			baseDomain: "risk-hub.de",
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSubdomain(tt.host, tt.baseDomain)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("slug: got %q, want %q", got, tt.want)
			}
		})
	}
}
