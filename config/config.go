// Package config loads DiskUsageEvictionConfig from a YAML file or CLI
// flags, following the layering of the teacher's config package: a plain
// struct with yaml tags, a tagged-union UnmarshalYAML for the one field that
// needs it, defaults applied before unmarshal, and a validateConfig pass.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pagestore/evictiond/eviction"
	"github.com/pagestore/evictiond/remoteclient"

	"github.com/urfave/cli/v2"
	yaml "gopkg.in/yaml.v3"
)

// EvictionOrderConfig is the tagged union from spec.md §6: either
// AbsoluteAccessed (the default, no args) or RelativeAccessed with a single
// bool argument. Follows the teacher's URLBackendConfig.UnmarshalYAML
// technique: peel off a discriminant field, then unmarshal into an aux
// struct for the variant-specific payload.
type EvictionOrderConfig struct {
	Kind                        eviction.OrderKind
	HighestLayerCountLosesFirst bool
}

func (o *EvictionOrderConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var aux struct {
		Type string `yaml:"type"`
		Args struct {
			HighestLayerCountLosesFirst bool `yaml:"highest_layer_count_loses_first"`
		} `yaml:"args"`
	}

	if err := unmarshal(&aux); err != nil {
		return err
	}

	switch aux.Type {
	case "", "AbsoluteAccessed":
		o.Kind = eviction.AbsoluteAccessed
		o.HighestLayerCountLosesFirst = false
	case "RelativeAccessed":
		o.Kind = eviction.RelativeAccessed
		o.HighestLayerCountLosesFirst = aux.Args.HighestLayerCountLosesFirst
	default:
		return fmt.Errorf("eviction_order.type must be \"AbsoluteAccessed\" or \"RelativeAccessed\", got %q", aux.Type)
	}
	return nil
}

func (o EvictionOrderConfig) MarshalYAML() (interface{}, error) {
	if o.Kind == eviction.RelativeAccessed {
		return struct {
			Type string `yaml:"type"`
			Args struct {
				HighestLayerCountLosesFirst bool `yaml:"highest_layer_count_loses_first"`
			} `yaml:"args"`
		}{
			Type: "RelativeAccessed",
			Args: struct {
				HighestLayerCountLosesFirst bool `yaml:"highest_layer_count_loses_first"`
			}{HighestLayerCountLosesFirst: o.HighestLayerCountLosesFirst},
		}, nil
	}
	return struct {
		Type string `yaml:"type"`
	}{Type: "AbsoluteAccessed"}, nil
}

// Order converts the on-disk/CLI representation to the form eviction.Engine
// consumes.
func (o EvictionOrderConfig) Order() eviction.Order {
	return eviction.Order{Kind: o.Kind, HighestLayerCountLosesFirst: o.HighestLayerCountLosesFirst}
}

// Config holds the top-level configuration for evictiond: where to find
// tenants, when eviction kicks in, how candidates are ordered, and where
// operational endpoints (admin trigger + metrics) listen.
type Config struct {
	TenantsDir string `yaml:"dir"`

	MaxUsagePct   uint64 `yaml:"max_usage_pct"`
	MinAvailBytes uint64 `yaml:"min_avail_bytes"`

	Period time.Duration `yaml:"period"`

	EvictionOrder EvictionOrderConfig `yaml:"eviction_order"`

	// AdminAddress serves the admin "trigger now" endpoint and /metrics,
	// sharing the engine's iteration mutex with the periodic loop (spec.md
	// §4.5/§6).
	AdminAddress string `yaml:"admin_address"`

	AccessLogLevel string `yaml:"access_log_level"`
	LogTimezone    string `yaml:"log_timezone"`

	S3    *remoteclient.S3Config    `yaml:"s3,omitempty"`
	Azure *remoteclient.AzureConfig `yaml:"azure,omitempty"`
	GCS   *remoteclient.GCSConfig   `yaml:"gcs,omitempty"`

	// Fields created by combinations of the flags above.
	AccessLogger *Logger `yaml:"-"`
	ErrorLogger  *Logger `yaml:"-"`
}

var defaultPeriod = 60 * time.Second

// newFromYaml parses data into a validated Config, applying defaults first
// the way the teacher's newFromYaml seeds YamlConfig.Config before
// unmarshalling over it.
func newFromYaml(data []byte) (*Config, error) {
	c := Config{
		MaxUsagePct:    90,
		Period:         defaultPeriod,
		EvictionOrder:  EvictionOrderConfig{Kind: eviction.AbsoluteAccessed},
		AccessLogLevel: "all",
		LogTimezone:    "UTC",
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// newFromYamlFile reads and parses a YAML config file.
func newFromYamlFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %q: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return newFromYaml(data)
}

func validateConfig(c *Config) error {
	if c.TenantsDir == "" {
		return errors.New("the 'dir' flag/key is required")
	}

	if c.MaxUsagePct == 0 || c.MaxUsagePct > 100 {
		return errors.New("'max_usage_pct' must be in (0, 100]")
	}

	if c.Period <= 0 {
		return errors.New("'period' must be a positive duration")
	}

	proxyCount := 0
	if c.S3 != nil {
		proxyCount++
	}
	if c.Azure != nil {
		proxyCount++
	}
	if c.GCS != nil {
		proxyCount++
	}
	if proxyCount > 1 {
		return errors.New("at most one of the S3/Azure/GCS remote client backends is allowed")
	}

	if c.S3 != nil && !remoteclient.IsValidS3AuthMethod(c.S3.AuthMethod) {
		return fmt.Errorf("invalid s3.auth_method: %s", c.S3.AuthMethod)
	}

	if c.Azure != nil && !remoteclient.IsValidAzureAuthMethod(c.Azure.AuthMethod) {
		return fmt.Errorf("invalid azure.auth_method: %s", c.Azure.AuthMethod)
	}

	switch c.AccessLogLevel {
	case "none", "all":
	default:
		return errors.New("'access_log_level' must be set to either \"none\" or \"all\"")
	}

	switch c.LogTimezone {
	case "UTC", "local", "none":
	default:
		return errors.New("'log_timezone' must be set to either \"UTC\", \"local\" or \"none\"")
	}

	return nil
}

// Get builds a validated Config from CLI flags, loading a YAML file instead
// if --config_file was given, then attaches the loggers.
func Get(ctx *cli.Context) (*Config, error) {
	cfg, err := get(ctx)
	if err != nil {
		return nil, err
	}

	cfg.setLogger()

	return cfg, nil
}

func get(ctx *cli.Context) (*Config, error) {
	configFile := ctx.String("config_file")
	if configFile != "" {
		return newFromYamlFile(configFile)
	}

	order := EvictionOrderConfig{Kind: eviction.AbsoluteAccessed}
	switch ctx.String("eviction_order") {
	case "", "AbsoluteAccessed":
	case "RelativeAccessed":
		order.Kind = eviction.RelativeAccessed
		order.HighestLayerCountLosesFirst = ctx.Bool("eviction_order.highest_layer_count_loses_first")
	default:
		return nil, fmt.Errorf("eviction_order must be \"AbsoluteAccessed\" or \"RelativeAccessed\", got %q", ctx.String("eviction_order"))
	}

	var s3 *remoteclient.S3Config
	if ctx.String("s3.bucket") != "" {
		s3 = &remoteclient.S3Config{
			Endpoint:                 ctx.String("s3.endpoint"),
			Bucket:                   ctx.String("s3.bucket"),
			Prefix:                   ctx.String("s3.prefix"),
			AuthMethod:               ctx.String("s3.auth_method"),
			AccessKeyID:              ctx.String("s3.access_key_id"),
			SecretAccessKey:          ctx.String("s3.secret_access_key"),
			DisableSSL:               ctx.Bool("s3.disable_ssl"),
			IAMRoleEndpoint:          ctx.String("s3.iam_role_endpoint"),
			Region:                   ctx.String("s3.region"),
			AWSProfile:               ctx.String("s3.aws_profile"),
			AWSSharedCredentialsFile: ctx.String("s3.aws_shared_credentials_file"),
		}
	}

	var azure *remoteclient.AzureConfig
	if ctx.String("azure.storage_account") != "" {
		azure = &remoteclient.AzureConfig{
			StorageAccount: ctx.String("azure.storage_account"),
			ContainerName:  ctx.String("azure.container_name"),
			Prefix:         ctx.String("azure.prefix"),
			AuthMethod:     ctx.String("azure.auth_method"),
			TenantID:       ctx.String("azure.tenant_id"),
			ClientID:       ctx.String("azure.client_id"),
			ClientSecret:   ctx.String("azure.client_secret"),
			CertPath:       ctx.String("azure.cert_path"),
			SharedKey:      ctx.String("azure.shared_key"),
		}
	}

	var gcs *remoteclient.GCSConfig
	if ctx.String("gcs.bucket") != "" {
		gcs = &remoteclient.GCSConfig{
			Bucket:                ctx.String("gcs.bucket"),
			Prefix:                ctx.String("gcs.prefix"),
			UseDefaultCredentials: ctx.Bool("gcs.use_default_credentials"),
			JSONCredentialsFile:   ctx.String("gcs.json_credentials_file"),
		}
	}

	c := &Config{
		TenantsDir:     ctx.String("dir"),
		MaxUsagePct:    ctx.Uint64("max_usage_pct"),
		MinAvailBytes:  ctx.Uint64("min_avail_bytes"),
		Period:         ctx.Duration("period"),
		EvictionOrder:  order,
		AdminAddress:   ctx.String("admin_address"),
		AccessLogLevel: ctx.String("access_log_level"),
		LogTimezone:    ctx.String("log_timezone"),
		S3:             s3,
		Azure:          azure,
		GCS:            gcs,
	}

	if c.MaxUsagePct == 0 {
		c.MaxUsagePct = 90
	}
	if c.Period == 0 {
		c.Period = defaultPeriod
	}
	if c.AccessLogLevel == "" {
		c.AccessLogLevel = "all"
	}
	if c.LogTimezone == "" {
		c.LogTimezone = "UTC"
	}

	if err := validateConfig(c); err != nil {
		return nil, err
	}
	return c, nil
}
