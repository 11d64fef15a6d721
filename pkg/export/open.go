package export

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/storeops/logship/pkg/backend"
	"github.com/storeops/logship/pkg/backend/gcsjson"
	"github.com/storeops/logship/pkg/backend/sigv4"
)

// OpenBackend constructs the storage backend matching the credential's
// kind. The credential is request-scoped; callers must Close the backend
// when the request finishes.
func OpenBackend(cred backend.Credential, logger *zap.Logger) (backend.StorageBackend, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	switch cred.Kind {
	case backend.KindBearerAssertion:
		return gcsjson.New(gcsjson.Config{
			Bucket:      cred.Bucket,
			ClientEmail: cred.ClientEmail,
			PrivateKey:  cred.PrivateKey,
			Logger:      logger,
		})
	case backend.KindRequestSigning:
		return sigv4.New(sigv4.Config{
			Bucket:          cred.Bucket,
			AccessKeyID:     cred.AccessKeyID,
			SecretAccessKey: cred.SecretAccessKey,
			Region:          cred.Region,
			Endpoint:        cred.Endpoint,
			Logger:          logger,
		})
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cred.Kind)
	}
}
