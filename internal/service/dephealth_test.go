package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewDephealthService(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		targets  DephealthTargets
		wantDeps []string
	}{
		{
			name:     "только API",
			targets:  DephealthTargets{APIBaseURL: "http://api.local:3000", APIHealthPath: "/"},
			wantDeps: []string{"recycle-api"},
		},
		{
			name: "API и JWKS",
			targets: DephealthTargets{
				APIBaseURL:    "https://api.example.com",
				APIHealthPath: "/api/health",
				IDPJWKSURL:    "https://idp.example.com/.well-known/jwks.json",
			},
			wantDeps: []string{"recycle-api", "idp-jwks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := NewDephealthServiceWithRegisterer("receiver-portal", "recycleit",
				tt.targets, 15*time.Second, logger, prometheus.NewRegistry())
			if err != nil {
				t.Fatalf("NewDephealthServiceWithRegisterer() вернул ошибку: %v", err)
			}
			if len(ds.deps) != len(tt.wantDeps) {
				t.Fatalf("deps = %v, хотели %v", ds.deps, tt.wantDeps)
			}
			for i, name := range tt.wantDeps {
				if ds.deps[i] != name {
					t.Errorf("deps[%d] = %q, хотели %q", i, ds.deps[i], name)
				}
			}
		})
	}
}
