package redshift

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 5439 {
		t.Errorf("expected default port 5439, got %d", cfg.Port)
	}
	if cfg.SSLMode != "require" {
		t.Errorf("expected default SSL mode require, got %q", cfg.SSLMode)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, true},
		{"missing password without IAM", Config{Host: "h", Database: "d", User: "u"}, true},
		{"IAM missing region", Config{Host: "h", Database: "d", User: "u", UseIAMAuth: true}, true},
		{"valid password auth", Config{Host: "h", Database: "d", User: "u", Password: "p"}, false},
		{"valid IAM auth", Config{Host: "h", Database: "d", User: "u", UseIAMAuth: true, AWSRegion: "us-east-1", ClusterID: "c"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewAdapterRejectsIAMAuth(t *testing.T) {
	cfg := Config{
		Host: "cluster.example.com", Database: "bank", User: "reader",
		UseIAMAuth: true, AWSRegion: "us-east-1", ClusterID: "cl-1",
		ConnectTimeout: time.Second,
	}
	_, err := NewAdapter(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error: IAM auth is not wired without the AWS SDK")
	}
}
