package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier validates bearer tokens against an OIDC issuer.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	audience string
}

// NewVerifier discovers issuerURL. publicIssuer is the iss claim tokens carry
// when it differs from the discovery URL, as with a container-internal host.
func NewVerifier(ctx context.Context, issuerURL, publicIssuer, audience string) (*Verifier, error) {
	if publicIssuer != "" && publicIssuer != issuerURL {
		ctx = oidc.InsecureIssuerURLContext(ctx, publicIssuer)
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Verifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
		audience: audience,
	}, nil
}

type claims struct {
	Sub             string               `json:"sub"`
	Email           string               `json:"email"`
	Scope           string               `json:"scope"`
	Scp             []string             `json:"scp"`
	OntographScopes string               `json:"ontograph_scopes"`
	Azp             string               `json:"azp"`
	RealmAccess     roleClaim            `json:"realm_access"`
	ResourceAccess  map[string]roleClaim `json:"resource_access"`
}

type roleClaim struct {
	Roles []string `json:"roles"`
}

// principal maps claims to a Principal. Scopes come from the space-separated
// scope claim, the scp array and ontograph_scopes; roles from the realm and
// from the client entry named by audience.
func (c claims) principal(issuer, audience string) *Principal {
	scopes := make(map[string]bool)
	for _, s := range strings.Fields(c.Scope) {
		scopes[s] = true
	}
	for _, s := range c.Scp {
		scopes[s] = true
	}
	for _, s := range strings.Fields(c.OntographScopes) {
		scopes[s] = true
	}

	roles := make(map[string]bool)
	for _, r := range c.RealmAccess.Roles {
		roles[r] = true
	}
	for _, r := range c.ResourceAccess[audience].Roles {
		roles[r] = true
	}

	return &Principal{
		Sub:      c.Sub,
		Scopes:   scopes,
		Roles:    roles,
		ClientID: c.Azp,
		Issuer:   issuer,
		Email:    c.Email,
	}
}

// VerifyToken verifies a raw bearer token and returns its Principal and
// expiry.
func (v *Verifier) VerifyToken(ctx context.Context, rawToken string) (*Principal, time.Time, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("verify token: %w", err)
	}

	var c claims
	if err := token.Claims(&c); err != nil {
		return nil, time.Time{}, fmt.Errorf("parse claims: %w", err)
	}
	return c.principal(token.Issuer, v.audience), token.Expiry, nil
}

// VerifyRequest verifies the request's Authorization header.
func (v *Verifier) VerifyRequest(r *http.Request) (*Principal, error) {
	raw, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	p, _, err := v.VerifyToken(r.Context(), raw)
	return p, err
}

var (
	errMissingAuthorization   = errors.New("missing Authorization header")
	errMalformedAuthorization = errors.New("invalid Authorization header format")
)

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errMalformedAuthorization
	}
	return token, nil
}
