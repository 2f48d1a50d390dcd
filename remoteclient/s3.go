// Package remoteclient provides tenant.RemoteClient implementations backed
// by the object stores a Timeline's layers are durably mirrored to. Confirm
// is deliberately read-only: the engine only ever needs to know a layer's
// remote copy still exists before it drops the local one.
package remoteclient

import (
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3-backed RemoteClient. Field names and
// validation follow the teacher's config.S3CloudStorageConfig
// (config/s3.go), trimmed of the upload-side fields the eviction engine
// never needs (KeyVersion, BucketLookupType, SignatureType).
type S3Config struct {
	Endpoint                 string
	Bucket                   string
	Prefix                   string
	AuthMethod               string
	AccessKeyID              string
	SecretAccessKey          string
	DisableSSL               bool
	IAMRoleEndpoint          string
	Region                   string
	AWSProfile               string
	AWSSharedCredentialsFile string
}

func (c S3Config) credentials() (*credentials.Credentials, error) {
	switch c.AuthMethod {
	case S3AuthMethodAWSCredentialsFile:
		log.Println("S3 Credentials: using AWS credentials file.")
		return credentials.NewFileAWSCredentials(c.AWSSharedCredentialsFile, c.AWSProfile), nil
	case S3AuthMethodAccessKey:
		if c.AccessKeyID == "" {
			return nil, fmt.Errorf("missing s3.access_key_id for s3.auth_method = %q", S3AuthMethodAccessKey)
		}
		if c.SecretAccessKey == "" {
			return nil, fmt.Errorf("missing s3.secret_access_key for s3.auth_method = %q", S3AuthMethodAccessKey)
		}
		log.Println("S3 Credentials: using access/secret access key.")
		return credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, ""), nil
	case S3AuthMethodIAMRole:
		log.Println("S3 Credentials: using IAM.")
		return credentials.NewIAM(c.IAMRoleEndpoint), nil
	default:
		return nil, fmt.Errorf("invalid s3.auth_method: %s", c.AuthMethod)
	}
}

// S3Client confirms layer mirrors via an S3-compatible bucket, grounded on
// the teacher's cache/s3proxy.s3Cache.Contains.
type S3Client struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Client dials the configured bucket. It does not verify connectivity
// itself; the first Confirm call surfaces any misconfiguration.
func NewS3Client(cfg S3Config) (*S3Client, error) {
	creds, err := cfg.credentials()
	if err != nil {
		return nil, err
	}

	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: !cfg.DisableSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("construct minio client: %w", err)
	}

	return &S3Client{client: cl, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (c *S3Client) objectKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + "/" + key
}

// Confirm returns nil if key is present in the bucket.
func (c *S3Client) Confirm(ctx context.Context, key string) error {
	_, err := c.client.StatObject(ctx, c.bucket, c.objectKey(key), minio.StatObjectOptions{})
	if err != nil {
		return fmt.Errorf("s3 stat %s/%s: %w", c.bucket, key, err)
	}
	return nil
}
