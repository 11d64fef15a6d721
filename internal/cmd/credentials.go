package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storeops/logship/pkg/backend"
)

// Credential flags shared by the analyze and export commands. The secret
// values may also come from the environment so they stay out of shell
// history.
var (
	flagBackend         string
	flagBucket          string
	flagClientEmail     string
	flagPrivateKeyFile  string
	flagAccessKeyID     string
	flagSecretAccessKey string
	flagRegion          string
	flagEndpoint        string
)

// registerCredentialFlags attaches the shared credential flags to a
// command.
func registerCredentialFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagBackend, "backend", "s3", "Storage backend kind (s3|gcs)")
	f.StringVar(&flagBucket, "bucket", "", "Bucket name")
	f.StringVar(&flagClientEmail, "client-email", "", "Service identity for the gcs backend")
	f.StringVar(&flagPrivateKeyFile, "private-key-file", "", "Path to the PEM private key for the gcs backend")
	f.StringVar(&flagAccessKeyID, "access-key-id", "", "Access key ID for the s3 backend (or LOGSHIP_ACCESS_KEY_ID)")
	f.StringVar(&flagSecretAccessKey, "secret-access-key", "", "Secret access key for the s3 backend (or LOGSHIP_SECRET_ACCESS_KEY)")
	f.StringVar(&flagRegion, "region", "", "Region for the s3 backend")
	f.StringVar(&flagEndpoint, "endpoint", "", "Custom endpoint for S3-compatible stores")
}

// credentialFromFlags assembles the request-scoped credential from flags
// and environment fallbacks.
func credentialFromFlags() (backend.Credential, error) {
	cred := backend.Credential{
		Kind:            backend.Kind(flagBackend),
		Bucket:          flagBucket,
		ClientEmail:     flagClientEmail,
		AccessKeyID:     flagAccessKeyID,
		SecretAccessKey: flagSecretAccessKey,
		Region:          flagRegion,
		Endpoint:        flagEndpoint,
	}

	if cred.AccessKeyID == "" {
		cred.AccessKeyID = os.Getenv("LOGSHIP_ACCESS_KEY_ID")
	}
	if cred.SecretAccessKey == "" {
		cred.SecretAccessKey = os.Getenv("LOGSHIP_SECRET_ACCESS_KEY")
	}

	if flagPrivateKeyFile != "" {
		key, err := os.ReadFile(flagPrivateKeyFile)
		if err != nil {
			return backend.Credential{}, fmt.Errorf("failed to read private key file: %w", err)
		}
		cred.PrivateKey = string(key)
	}

	return cred, nil
}
