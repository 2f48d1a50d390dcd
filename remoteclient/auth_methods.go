package remoteclient

// S3 auth methods, matching the teacher's cache/s3proxy/auth_methods.go.
const (
	S3AuthMethodIAMRole            = "iam_role"
	S3AuthMethodAccessKey          = "access_key"
	S3AuthMethodAWSCredentialsFile = "aws_credentials_file"
)

func s3AuthMethods() []string {
	return []string{S3AuthMethodIAMRole, S3AuthMethodAccessKey, S3AuthMethodAWSCredentialsFile}
}

// S3AuthMethods lists the supported S3 credential sources, for flag usage
// text. Matches the teacher's s3proxy.GetAuthMethods.
func S3AuthMethods() []string {
	return s3AuthMethods()
}

// IsValidS3AuthMethod reports whether authMethod names a supported S3
// credential source.
func IsValidS3AuthMethod(authMethod string) bool {
	for _, m := range s3AuthMethods() {
		if m == authMethod {
			return true
		}
	}
	return false
}

// Azure blob auth methods, matching the teacher's
// cache/azblobproxy/auth_methods.go.
const (
	AzureAuthMethodClientCertificate     = "client_certificate"
	AzureAuthMethodClientSecret          = "client_secret"
	AzureAuthMethodEnvironmentCredential = "environment_credential"
	AzureAuthMethodDefault               = "default"
	AzureAuthMethodSharedKey             = "shared_key"
)

func azureAuthMethods() []string {
	return []string{
		AzureAuthMethodClientCertificate,
		AzureAuthMethodClientSecret,
		AzureAuthMethodEnvironmentCredential,
		AzureAuthMethodDefault,
		AzureAuthMethodSharedKey,
	}
}

// AzureAuthMethods lists the supported Azure blob credential sources, for
// flag usage text.
func AzureAuthMethods() []string {
	return azureAuthMethods()
}

// IsValidAzureAuthMethod reports whether authMethod names a supported Azure
// blob credential source.
func IsValidAzureAuthMethod(authMethod string) bool {
	for _, m := range azureAuthMethods() {
		if m == authMethod {
			return true
		}
	}
	return false
}
