package auth

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	sdkauth "github.com/modelcontextprotocol/go-sdk/auth"
)

const principalKey = "principal"

// NewMCPTokenVerifier adapts Verifier to the SDK's TokenVerifier. The
// Principal travels in TokenInfo.Extra so tool handlers can recover it with
// PrincipalFromTokenInfo.
func NewMCPTokenVerifier(v *Verifier) sdkauth.TokenVerifier {
	return func(ctx context.Context, token string, _ *http.Request) (*sdkauth.TokenInfo, error) {
		principal, expiry, err := v.VerifyToken(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sdkauth.ErrInvalidToken, err)
		}
		return tokenInfo(principal, expiry), nil
	}
}

func tokenInfo(p *Principal, expiry time.Time) *sdkauth.TokenInfo {
	scopes := make([]string, 0, len(p.Scopes))
	for s := range p.Scopes {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)

	return &sdkauth.TokenInfo{
		UserID:     p.Sub,
		Scopes:     scopes,
		Expiration: expiry,
		Extra:      map[string]any{principalKey: p},
	}
}

// PrincipalFromTokenInfo returns the Principal stored by NewMCPTokenVerifier.
func PrincipalFromTokenInfo(info *sdkauth.TokenInfo) (*Principal, bool) {
	if info == nil || info.Extra == nil {
		return nil, false
	}
	p, ok := info.Extra[principalKey].(*Principal)
	return p, ok
}
