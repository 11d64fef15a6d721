package gcsjson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/storeops/logship/pkg/backend"
)

// assertionTTL is the validity window requested for each assertion.
const assertionTTL = time.Hour

// jwtBearerGrant is the grant type for signed-assertion exchange.
const jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// buildAssertion constructs the signed, time-bounded assertion presented
// to the token endpoint.
func buildAssertion(clientEmail, privateKeyPEM, tokenEndpoint string, now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", &backend.CredentialError{
			Reason:  backend.ReasonMalformed,
			Message: "private key could not be parsed",
			Err:     err,
		}
	}

	claims := jwt.MapClaims{
		"iss":   clientEmail,
		"scope": ReadOnlyScope,
		"aud":   tokenEndpoint,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", &backend.CredentialError{
			Reason:  backend.ReasonMalformed,
			Message: "failed to sign assertion",
			Err:     err,
		}
	}
	return signed, nil
}

// tokenErrorBody is the structured error shape the token endpoint returns
// on a failed exchange.
type tokenErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// exchangeAssertion trades the signed assertion for a short-lived bearer
// token. Non-success responses are classified into distinct credential
// errors so callers can show an actionable message.
func exchangeAssertion(ctx context.Context, client *http.Client, tokenEndpoint, assertion string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyExchangeFailure(resp.StatusCode, body)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", &backend.CredentialError{
			Reason:  backend.ReasonExchangeFailed,
			Message: "token endpoint returned no access token",
			Err:     err,
		}
	}
	return tok.AccessToken, nil
}

// classifyExchangeFailure inspects the structured error body from the
// token endpoint and maps it to a distinct, human-actionable message.
func classifyExchangeFailure(status int, body []byte) error {
	var eb tokenErrorBody
	_ = json.Unmarshal(body, &eb)

	switch eb.Error {
	case "invalid_grant":
		return &backend.CredentialError{
			Reason:  backend.ReasonInvalidGrant,
			Message: "the signed assertion was rejected; check the service identity and private key pair, and the system clock",
		}
	case "invalid_client":
		return &backend.CredentialError{
			Reason:  backend.ReasonInvalidClient,
			Message: "the service identity is unknown to the token endpoint; check the client email",
		}
	case "unauthorized_client":
		return &backend.CredentialError{
			Reason:  backend.ReasonUnauthorizedClient,
			Message: "the service identity is not authorized for this grant; check its storage permissions",
		}
	}

	msg := eb.ErrorDescription
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return &backend.CredentialError{
		Reason:  backend.ReasonExchangeFailed,
		Message: fmt.Sprintf("token exchange failed with status %d: %s", status, msg),
	}
}
