package remoteclient

import (
	"net/url"
	"testing"
)

func TestS3ClientObjectKeyPrefix(t *testing.T) {
	c := &S3Client{bucket: "b", prefix: "layers"}
	if got := c.objectKey("abc"); got != "layers/abc" {
		t.Errorf("objectKey = %q, want %q", got, "layers/abc")
	}

	c = &S3Client{bucket: "b"}
	if got := c.objectKey("abc"); got != "abc" {
		t.Errorf("objectKey with no prefix = %q, want %q", got, "abc")
	}
}

func TestAzureBlobClientObjectKeyPrefix(t *testing.T) {
	c := &AzureBlobClient{prefix: "layers"}
	if got := c.objectKey("abc"); got != "layers/abc" {
		t.Errorf("objectKey = %q, want %q", got, "layers/abc")
	}
}

func TestGCSClientObjectURL(t *testing.T) {
	c := &GCSClient{
		baseURL: url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/my-bucket"},
		prefix:  "layers",
	}
	want := "https://storage.googleapis.com/my-bucket/layers/abc"
	if got := c.objectURL("abc"); got != want {
		t.Errorf("objectURL = %q, want %q", got, want)
	}
}

func TestIsValidS3AuthMethod(t *testing.T) {
	if !IsValidS3AuthMethod(S3AuthMethodAccessKey) {
		t.Error("access_key should be a valid S3 auth method")
	}
	if IsValidS3AuthMethod("bogus") {
		t.Error("bogus should not be a valid S3 auth method")
	}
}

func TestIsValidAzureAuthMethod(t *testing.T) {
	if !IsValidAzureAuthMethod(AzureAuthMethodDefault) {
		t.Error("default should be a valid azure auth method")
	}
	if IsValidAzureAuthMethod("bogus") {
		t.Error("bogus should not be a valid azure auth method")
	}
}
