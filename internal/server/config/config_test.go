package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	if c.EndpointAddrHTTP != ":8787" {
		t.Errorf("unexpected default addr: %s", c.EndpointAddrHTTP)
	}
	if c.BlobBackend != "local" {
		t.Errorf("unexpected default blob backend: %s", c.BlobBackend)
	}
	if c.AssetsDir != "data/assets" {
		t.Errorf("unexpected default assets dir: %s", c.AssetsDir)
	}
	if c.AccessTokenValidityDuration != 15*time.Minute {
		t.Errorf("unexpected access token validity: %v", c.AccessTokenValidityDuration)
	}
}

func TestMaxUploadBytes(t *testing.T) {
	if MaxUploadBytes != 50*1024*1024 {
		t.Errorf("upload ceiling must be 50 MiB, got %d", MaxUploadBytes)
	}
}
