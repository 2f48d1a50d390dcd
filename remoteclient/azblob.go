package remoteclient

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// AzureConfig configures an Azure Blob-backed RemoteClient, following the
// teacher's config.AzBlobStorageConfig (config/azblob.go).
type AzureConfig struct {
	StorageAccount string
	ContainerName  string
	Prefix         string
	AuthMethod     string
	TenantID       string
	ClientID       string
	ClientSecret   string
	CertPath       string
	SharedKey      string
}

func (c AzureConfig) credentials() (azcore.TokenCredential, error) {
	switch c.AuthMethod {
	case AzureAuthMethodDefault:
		return azidentity.NewDefaultAzureCredential(nil)
	case AzureAuthMethodSharedKey:
		// Handled separately in NewAzureBlobClient: shared-key auth doesn't
		// implement TokenCredential.
		return nil, nil
	case AzureAuthMethodClientCertificate:
		certData, err := os.ReadFile(c.CertPath)
		if err != nil {
			return nil, fmt.Errorf("read certificate file %q: %w", c.CertPath, err)
		}
		certs, key, err := azidentity.ParseCertificates(certData, nil)
		if err != nil {
			return nil, fmt.Errorf("parse certificate from %q: %w", c.CertPath, err)
		}
		if c.TenantID == "" {
			return nil, fmt.Errorf("an azure blob tenant ID is required")
		}
		return azidentity.NewClientCertificateCredential(c.TenantID, c.ClientID, certs, key, nil)
	case AzureAuthMethodClientSecret:
		if c.TenantID == "" {
			return nil, fmt.Errorf("an azure blob tenant ID is required")
		}
		return azidentity.NewClientSecretCredential(c.TenantID, c.ClientID, c.ClientSecret, nil)
	case AzureAuthMethodEnvironmentCredential:
		return azidentity.NewEnvironmentCredential(nil)
	default:
		return nil, fmt.Errorf("invalid azblob.auth_method: %s", c.AuthMethod)
	}
}

// AzureBlobClient confirms layer mirrors in an Azure Blob container,
// grounded on the teacher's cache/azblobproxy.azBlobCache.Contains.
type AzureBlobClient struct {
	containerClient *container.Client
	prefix          string
}

// NewAzureBlobClient dials the configured storage account/container.
func NewAzureBlobClient(cfg AzureConfig) (*AzureBlobClient, error) {
	url := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.StorageAccount)

	var client *azblob.Client
	var err error

	if cfg.AuthMethod == AzureAuthMethodSharedKey {
		cred, e := azblob.NewSharedKeyCredential(cfg.StorageAccount, cfg.SharedKey)
		if e != nil {
			return nil, fmt.Errorf("construct azure shared key credential: %w", e)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(url, cred, nil)
	} else {
		creds, credErr := cfg.credentials()
		if credErr != nil {
			return nil, credErr
		}
		client, err = azblob.NewClient(url, creds, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("construct azure blob client: %w", err)
	}

	return &AzureBlobClient{
		containerClient: client.ServiceClient().NewContainerClient(cfg.ContainerName),
		prefix:          cfg.Prefix,
	}, nil
}

func (c *AzureBlobClient) objectKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + "/" + key
}

// Confirm returns nil if key's blob properties can be fetched, i.e. the
// blob exists.
func (c *AzureBlobClient) Confirm(ctx context.Context, key string) error {
	blobClient := c.containerClient.NewBlobClient(c.objectKey(key))
	if _, err := blobClient.GetProperties(ctx, nil); err != nil {
		return fmt.Errorf("azblob get properties %s: %w", key, err)
	}
	return nil
}
