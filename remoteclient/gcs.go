package remoteclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GCSConfig configures a Google Cloud Storage-backed RemoteClient,
// following the teacher's config.GoogleCloudStorageConfig (config/config.go)
// and cache/gcsproxy.New's credential resolution.
type GCSConfig struct {
	Bucket                string
	Prefix                string
	UseDefaultCredentials bool
	JSONCredentialsFile   string
}

// GCSClient confirms layer mirrors in a GCS bucket by issuing authenticated
// HEAD requests against the XML API, grounded on cache/gcsproxy.New's
// oauth2-authenticated *http.Client plumbed into an httpproxy.Contains call.
type GCSClient struct {
	httpClient *http.Client
	baseURL    url.URL
	prefix     string
}

// NewGCSClient builds an authenticated client for bucket, following
// gcsproxy.New's two supported credential sources.
func NewGCSClient(ctx context.Context, cfg GCSConfig) (*GCSClient, error) {
	var httpClient *http.Client
	var err error

	switch {
	case cfg.UseDefaultCredentials:
		httpClient, err = google.DefaultClient(ctx, "https://www.googleapis.com/auth/devstorage.read_only")
		if err != nil {
			return nil, fmt.Errorf("google default credentials: %w", err)
		}
	case cfg.JSONCredentialsFile != "":
		jsonConfig, readErr := os.ReadFile(cfg.JSONCredentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("read google credentials file %q: %w", cfg.JSONCredentialsFile, readErr)
		}
		creds, credErr := google.CredentialsFromJSON(ctx, jsonConfig, "https://www.googleapis.com/auth/devstorage.read_only")
		if credErr != nil {
			return nil, fmt.Errorf("parse google credentials file %q: %w", cfg.JSONCredentialsFile, credErr)
		}
		httpClient = oauth2.NewClient(ctx, creds.TokenSource)
	default:
		return nil, fmt.Errorf("gcs_proxy requires either use_default_credentials or json_credentials_file")
	}

	return &GCSClient{
		httpClient: httpClient,
		baseURL: url.URL{
			Scheme: "https",
			Host:   "storage.googleapis.com",
			Path:   "/" + cfg.Bucket,
		},
		prefix: cfg.Prefix,
	}, nil
}

func (c *GCSClient) objectURL(key string) string {
	if c.prefix != "" {
		key = c.prefix + "/" + key
	}
	u := c.baseURL
	u.Path = u.Path + "/" + key
	return u.String()
}

// Confirm returns nil if a HEAD request for key succeeds.
func (c *GCSClient) Confirm(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("build gcs HEAD request for %s: %w", key, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcs HEAD %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gcs HEAD %s: unexpected status %s", key, resp.Status)
	}
	return nil
}
