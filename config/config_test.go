package config

import (
	"strings"
	"testing"
	"time"

	"github.com/pagestore/evictiond/eviction"
	"github.com/pagestore/evictiond/remoteclient"

	"github.com/google/go-cmp/cmp"
)

func TestValidConfigDefaults(t *testing.T) {
	yaml := `dir: /var/tenants
`
	cfg, err := newFromYaml([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}

	expectedConfig := &Config{
		TenantsDir:     "/var/tenants",
		MaxUsagePct:    90,
		Period:         defaultPeriod,
		EvictionOrder:  EvictionOrderConfig{Kind: eviction.AbsoluteAccessed},
		AccessLogLevel: "all",
		LogTimezone:    "UTC",
	}

	if !cmp.Equal(cfg, expectedConfig) {
		t.Fatalf("newFromYaml() mismatch (-want +got):\n%s", cmp.Diff(expectedConfig, cfg))
	}
}

func TestValidConfigFullySpecified(t *testing.T) {
	yaml := `dir: /var/tenants
max_usage_pct: 80
min_avail_bytes: 1073741824
period: 30s
eviction_order:
  type: RelativeAccessed
  args:
    highest_layer_count_loses_first: true
admin_address: localhost:9898
access_log_level: none
log_timezone: local
`
	cfg, err := newFromYaml([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}

	expectedConfig := &Config{
		TenantsDir:    "/var/tenants",
		MaxUsagePct:   80,
		MinAvailBytes: 1073741824,
		Period:        30 * time.Second,
		EvictionOrder: EvictionOrderConfig{
			Kind:                        eviction.RelativeAccessed,
			HighestLayerCountLosesFirst: true,
		},
		AdminAddress:   "localhost:9898",
		AccessLogLevel: "none",
		LogTimezone:    "local",
	}

	if !cmp.Equal(cfg, expectedConfig) {
		t.Fatalf("newFromYaml() mismatch (-want +got):\n%s", cmp.Diff(expectedConfig, cfg))
	}
}

func TestEvictionOrderDefaultType(t *testing.T) {
	yaml := `dir: /var/tenants
eviction_order:
  type: AbsoluteAccessed
`
	cfg, err := newFromYaml([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EvictionOrder.Kind != eviction.AbsoluteAccessed {
		t.Errorf("EvictionOrder.Kind = %v, want AbsoluteAccessed", cfg.EvictionOrder.Kind)
	}
}

func TestEvictionOrderInvalidType(t *testing.T) {
	yaml := `dir: /var/tenants
eviction_order:
  type: SomethingElse
`
	_, err := newFromYaml([]byte(yaml))
	if err == nil {
		t.Fatal("expected an error for an unknown eviction_order.type")
	}
	if !strings.Contains(err.Error(), "eviction_order.type") {
		t.Errorf("expected the error to mention eviction_order.type, got: %v", err)
	}
}

func TestDirRequired(t *testing.T) {
	testConfig := &Config{
		MaxUsagePct: 90,
		Period:      time.Minute,
	}
	err := validateConfig(testConfig)
	if err == nil {
		t.Fatal("expected an error because no 'dir' was specified")
	}
	if !strings.Contains(err.Error(), "'dir'") {
		t.Fatal("expected the error message to mention the missing 'dir' key/flag")
	}
}

func TestMaxUsagePctRange(t *testing.T) {
	tests := []struct {
		pct     uint64
		invalid bool
	}{
		{pct: 0, invalid: true},
		{pct: 101, invalid: true},
		{pct: 100, invalid: false},
		{pct: 1, invalid: false},
	}

	for _, tc := range tests {
		testConfig := &Config{
			TenantsDir:     "/var/tenants",
			MaxUsagePct:    tc.pct,
			Period:         time.Minute,
			AccessLogLevel: "all",
			LogTimezone:    "UTC",
		}
		err := validateConfig(testConfig)
		if tc.invalid && err == nil {
			t.Errorf("pct=%d: expected an error, got nil", tc.pct)
		}
		if !tc.invalid && err != nil {
			t.Errorf("pct=%d: expected no error, got %v", tc.pct, err)
		}
	}
}

func TestPeriodRequired(t *testing.T) {
	testConfig := &Config{
		TenantsDir:  "/var/tenants",
		MaxUsagePct: 90,
	}
	err := validateConfig(testConfig)
	if err == nil {
		t.Fatal("expected an error because 'period' was zero")
	}
	if !strings.Contains(err.Error(), "'period'") {
		t.Fatal("expected the error message to mention 'period'")
	}
}

func TestAtMostOneRemoteBackend(t *testing.T) {
	testConfig := &Config{
		TenantsDir:  "/var/tenants",
		MaxUsagePct: 90,
		Period:      time.Minute,
		S3:          &remoteclient.S3Config{Endpoint: "s3.example.com", Bucket: "b", AuthMethod: "access_key", AccessKeyID: "x", SecretAccessKey: "y"},
		Azure:       &remoteclient.AzureConfig{StorageAccount: "acct", ContainerName: "c", AuthMethod: "default"},
	}
	err := validateConfig(testConfig)
	if err == nil {
		t.Fatal("expected an error because both S3 and Azure backends were configured")
	}
	if !strings.Contains(err.Error(), "at most one") {
		t.Fatalf("expected the error to mention 'at most one', got: %v", err)
	}
}

func TestAccessLogLevelValidation(t *testing.T) {
	testConfig := &Config{
		TenantsDir:     "/var/tenants",
		MaxUsagePct:    90,
		Period:         time.Minute,
		AccessLogLevel: "verbose",
		LogTimezone:    "UTC",
	}
	err := validateConfig(testConfig)
	if err == nil {
		t.Fatal("expected an error because 'access_log_level' was invalid")
	}
	if !strings.Contains(err.Error(), "'access_log_level'") {
		t.Fatalf("expected the error to mention 'access_log_level', got: %v", err)
	}
}
