package flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/pagestore/evictiond/remoteclient"

	"github.com/urfave/cli/v2"
)

const defaultPeriod = 60 * time.Second

func s3AuthMsg(authMethods ...string) string {
	return fmt.Sprintf("Applies to s3 auth method(s): %s.", strings.Join(authMethods, ", "))
}

// GetCliFlags returns the cli.Flag's the evictiond binary accepts.
func GetCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config_file",
			Value:   "",
			Usage:   "Path to a YAML configuration file. If this flag is specified then all other flags are ignored.",
			EnvVars: []string{"EVICTIOND_CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name:    "dir",
			Value:   "",
			Usage:   "Directory containing the tenants this process manages eviction for. This flag is required.",
			EnvVars: []string{"EVICTIOND_DIR"},
		},
		&cli.Uint64Flag{
			Name:    "max_usage_pct",
			Value:   90,
			Usage:   "Consider the filesystem under pressure once used space reaches this percentage.",
			EnvVars: []string{"EVICTIOND_MAX_USAGE_PCT"},
		},
		&cli.Uint64Flag{
			Name:    "min_avail_bytes",
			Value:   0,
			Usage:   "Consider the filesystem under pressure once available space falls below this many bytes.",
			EnvVars: []string{"EVICTIOND_MIN_AVAIL_BYTES"},
		},
		&cli.DurationFlag{
			Name:    "period",
			Value:   defaultPeriod,
			Usage:   "Base cadence of the periodic eviction loop. The first iteration is delayed by a random jitter within this period.",
			EnvVars: []string{"EVICTIOND_PERIOD"},
		},
		&cli.StringFlag{
			Name:        "eviction_order",
			Value:       "",
			Usage:       "How candidates are ordered within a min-resident-size partition. Must be \"AbsoluteAccessed\" (default) or \"RelativeAccessed\".",
			DefaultText: "AbsoluteAccessed",
			EnvVars:     []string{"EVICTIOND_EVICTION_ORDER"},
		},
		&cli.BoolFlag{
			Name:    "eviction_order.highest_layer_count_loses_first",
			Value:   false,
			Usage:   "Only applies when --eviction_order=RelativeAccessed: prefer evicting from the tenant with the most resident layers first.",
			EnvVars: []string{"EVICTIOND_EVICTION_ORDER_HIGHEST_LAYER_COUNT_LOSES_FIRST"},
		},
		&cli.StringFlag{
			Name:    "admin_address",
			Value:   "",
			Usage:   "Address to serve the admin \"trigger now\" endpoint and /metrics on. Disabled if empty.",
			EnvVars: []string{"EVICTIOND_ADMIN_ADDRESS"},
		},
		&cli.StringFlag{
			Name:        "access_log_level",
			Usage:       "The access logger verbosity level. If supplied, must be one of \"none\" or \"all\".",
			Value:       "all",
			DefaultText: "all, ie enable full access logging",
			EnvVars:     []string{"EVICTIOND_ACCESS_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:        "log_timezone",
			Usage:       "The timezone to use in log timestamps. Must be one of \"UTC\", \"local\" or \"none\".",
			Value:       "UTC",
			DefaultText: "UTC",
			EnvVars:     []string{"EVICTIOND_LOG_TIMEZONE"},
		},
		&cli.StringFlag{
			Name:    "s3.endpoint",
			Value:   "",
			Usage:   "The S3/minio endpoint to confirm layer mirrors against.",
			EnvVars: []string{"EVICTIOND_S3_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "s3.bucket",
			Value:   "",
			Usage:   "The S3/minio bucket holding layer mirrors. Setting this enables the S3 remote client.",
			EnvVars: []string{"EVICTIOND_S3_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "s3.prefix",
			Value:   "",
			Usage:   "The S3/minio object key prefix for layer mirrors.",
			EnvVars: []string{"EVICTIOND_S3_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "s3.auth_method",
			Value:   "",
			Usage:   fmt.Sprintf("The S3/minio authentication method. Required when s3.bucket is set. Allowed values: %s.", strings.Join(remoteclient.S3AuthMethods(), ", ")),
			EnvVars: []string{"EVICTIOND_S3_AUTH_METHOD"},
		},
		&cli.StringFlag{
			Name:    "s3.access_key_id",
			Value:   "",
			Usage:   "The S3/minio access key. " + s3AuthMsg(remoteclient.S3AuthMethodAccessKey),
			EnvVars: []string{"EVICTIOND_S3_ACCESS_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "s3.secret_access_key",
			Value:   "",
			Usage:   "The S3/minio secret access key. " + s3AuthMsg(remoteclient.S3AuthMethodAccessKey),
			EnvVars: []string{"EVICTIOND_S3_SECRET_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:    "s3.aws_shared_credentials_file",
			Value:   "",
			Usage:   "Path to the AWS credentials file. If not specified, the minio client defaults to '~/.aws/credentials'. " + s3AuthMsg(remoteclient.S3AuthMethodAWSCredentialsFile),
			EnvVars: []string{"EVICTIOND_S3_AWS_SHARED_CREDENTIALS_FILE", "AWS_SHARED_CREDENTIALS_FILE"},
		},
		&cli.StringFlag{
			Name:    "s3.aws_profile",
			Value:   "default",
			Usage:   "The AWS credentials profile to use from within s3.aws_shared_credentials_file. " + s3AuthMsg(remoteclient.S3AuthMethodAWSCredentialsFile),
			EnvVars: []string{"EVICTIOND_S3_AWS_PROFILE", "AWS_PROFILE"},
		},
		&cli.BoolFlag{
			Name:        "s3.disable_ssl",
			Usage:       "Whether to disable TLS/SSL when confirming against the S3 backend.",
			DefaultText: "false, ie enable TLS/SSL",
			EnvVars:     []string{"EVICTIOND_S3_DISABLE_SSL"},
		},
		&cli.StringFlag{
			Name:    "s3.iam_role_endpoint",
			Value:   "",
			Usage:   "Endpoint for IAM security credentials. " + s3AuthMsg(remoteclient.S3AuthMethodIAMRole),
			EnvVars: []string{"EVICTIOND_S3_IAM_ROLE_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "s3.region",
			Value:   "",
			Usage:   "The AWS region. Required when not specifying S3/minio access keys.",
			EnvVars: []string{"EVICTIOND_S3_REGION"},
		},
		&cli.StringFlag{
			Name:    "azure.storage_account",
			Value:   "",
			Usage:   "The Azure storage account holding layer mirrors. Setting this enables the Azure blob remote client.",
			EnvVars: []string{"EVICTIOND_AZURE_STORAGE_ACCOUNT"},
		},
		&cli.StringFlag{
			Name:    "azure.container_name",
			Value:   "",
			Usage:   "The Azure blob container holding layer mirrors.",
			EnvVars: []string{"EVICTIOND_AZURE_CONTAINER_NAME"},
		},
		&cli.StringFlag{
			Name:    "azure.prefix",
			Value:   "",
			Usage:   "The Azure blob name prefix for layer mirrors.",
			EnvVars: []string{"EVICTIOND_AZURE_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "azure.auth_method",
			Value:   "",
			Usage:   fmt.Sprintf("The Azure blob authentication method. Required when azure.storage_account is set. Allowed values: %s.", strings.Join(remoteclient.AzureAuthMethods(), ", ")),
			EnvVars: []string{"EVICTIOND_AZURE_AUTH_METHOD"},
		},
		&cli.StringFlag{
			Name:    "azure.tenant_id",
			Value:   "",
			Usage:   "The Azure AD tenant ID. Applies to client_certificate and client_secret auth methods.",
			EnvVars: []string{"EVICTIOND_AZURE_TENANT_ID"},
		},
		&cli.StringFlag{
			Name:    "azure.client_id",
			Value:   "",
			Usage:   "The Azure AD application (client) ID. Applies to client_certificate and client_secret auth methods.",
			EnvVars: []string{"EVICTIOND_AZURE_CLIENT_ID"},
		},
		&cli.StringFlag{
			Name:    "azure.client_secret",
			Value:   "",
			Usage:   "The Azure AD client secret. Applies to the client_secret auth method.",
			EnvVars: []string{"EVICTIOND_AZURE_CLIENT_SECRET"},
		},
		&cli.StringFlag{
			Name:    "azure.cert_path",
			Value:   "",
			Usage:   "Path to a client certificate file. Applies to the client_certificate auth method.",
			EnvVars: []string{"EVICTIOND_AZURE_CERT_PATH"},
		},
		&cli.StringFlag{
			Name:    "azure.shared_key",
			Value:   "",
			Usage:   "The storage account shared key. Applies to the shared_key auth method.",
			EnvVars: []string{"EVICTIOND_AZURE_SHARED_KEY"},
		},
		&cli.StringFlag{
			Name:    "gcs.bucket",
			Value:   "",
			Usage:   "The bucket holding layer mirrors. Setting this enables the GCS remote client.",
			EnvVars: []string{"EVICTIOND_GCS_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "gcs.prefix",
			Value:   "",
			Usage:   "The object name prefix for layer mirrors.",
			EnvVars: []string{"EVICTIOND_GCS_PREFIX"},
		},
		&cli.BoolFlag{
			Name:    "gcs.use_default_credentials",
			Value:   false,
			Usage:   "Whether to use Google application default credentials for the GCS remote client.",
			EnvVars: []string{"EVICTIOND_GCS_USE_DEFAULT_CREDENTIALS"},
		},
		&cli.StringFlag{
			Name:    "gcs.json_credentials_file",
			Value:   "",
			Usage:   "Path to a JSON file containing Google credentials for the GCS remote client.",
			EnvVars: []string{"EVICTIOND_GCS_JSON_CREDENTIALS_FILE"},
		},
	}
}
