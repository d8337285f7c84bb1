// Package principal implements C4: resolving a presented credential string
// into the caller that issued it. The ordered-matcher shape is grounded in
// middleware/auth.go's RequireAuth/extractToken, but two defects in that
// file are fixed rather than carried forward: GetUserIDFromContext's
// hardcoded placeholder UUID is replaced by actually parsing the resolved
// principal's subject, and the "for debugging only" ?access_token= query
// fallback is dropped outright (URLs get logged and cached, so it leaks
// bearer credentials with no compensating benefit here).
package principal

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"iamkernel/apperror"
	"iamkernel/credential"
	"iamkernel/model"
	"iamkernel/revocation"
	"iamkernel/store"
)

// Kind discriminates the two concrete Principal shapes C1/C4 define.
type Kind string

const (
	KindUser   Kind = "user"
	KindAPIKey Kind = "api_key"
)

// Principal is the tagged-variant result of a successful resolution. Only
// the field matching Kind is populated.
type Principal struct {
	Kind   Kind
	User   *model.User
	APIKey *model.APIKey
}

// ID returns the resolved caller's identifier as used in role_assignments.target_id.
func (p Principal) ID() uuid.UUID {
	if p.Kind == KindUser {
		return p.User.ID
	}
	return p.APIKey.ID
}

// Resolver implements the ordered-matcher algorithm from spec §1.7.
type Resolver struct {
	jwt       *credential.JWTSigner
	blacklist revocation.Set
	users     *store.UserRepository
	apiKeys   *store.APIKeyRepository
}

func NewResolver(jwt *credential.JWTSigner, blacklist revocation.Set, users *store.UserRepository, apiKeys *store.APIKeyRepository) *Resolver {
	return &Resolver{jwt: jwt, blacklist: blacklist, users: users, apiKeys: apiKeys}
}

// Resolve checks the API-key shape first, then tries a locally-issued JWT,
// otherwise unauthenticated. A JWT always contains '.', which the API-key
// shape excludes, so the order never changes which matcher claims a
// credential. Every verification failure collapses to
// apperror.Unauthenticated() so a caller cannot distinguish "bad JWT" from
// "unknown API key" from "malformed credential"; a failed API-key store
// lookup is reported as apperror.KindUnavailable.
func (r *Resolver) Resolve(ctx context.Context, presented string) (Principal, error) {
	if presented == "" {
		return Principal{}, apperror.Unauthenticated()
	}

	if looksLikeAPIKey(presented) {
		return r.resolveAPIKey(ctx, presented)
	}
	if p, err := r.resolveJWT(ctx, presented); err == nil {
		return p, nil
	}
	return Principal{}, apperror.Unauthenticated()
}

func (r *Resolver) resolveJWT(ctx context.Context, presented string) (Principal, error) {
	claims, err := r.jwt.Verify(presented)
	if err != nil {
		return Principal{}, apperror.Unauthenticated()
	}

	if r.blacklist != nil {
		blacklisted, err := r.blacklist.Contains(ctx, claims.ID)
		if err != nil {
			return Principal{}, apperror.Wrap(apperror.KindUnavailable, "failed to check token blacklist", err)
		}
		if blacklisted {
			return Principal{}, apperror.Unauthenticated()
		}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, apperror.Unauthenticated()
	}
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return Principal{}, apperror.Unauthenticated()
	}
	if user.Disabled {
		return Principal{}, apperror.Unauthenticated()
	}
	return Principal{Kind: KindUser, User: user}, nil
}

func (r *Resolver) resolveAPIKey(ctx context.Context, presented string) (Principal, error) {
	decorator, secret, ok := credential.ParseAPIKey(presented)
	if !ok {
		return Principal{}, apperror.Unauthenticated()
	}

	candidates, err := r.apiKeys.GetByDecoratorAndPrefix(ctx, decorator, credential.Prefix(secret))
	if err != nil {
		return Principal{}, apperror.Wrap(apperror.KindUnavailable, "failed to look up api key", err)
	}

	for _, k := range candidates {
		if credential.VerifyAPIKeySecret(secret, k.Salt, k.SecretHash) != nil {
			continue
		}
		if k.Disabled {
			return Principal{}, apperror.Unauthenticated()
		}
		if k.ExpiresAt != nil && k.ExpiresAt.Before(time.Now()) {
			return Principal{}, apperror.Unauthenticated()
		}
		_ = r.apiKeys.TouchLastUsed(ctx, k.ID)
		return Principal{Kind: KindAPIKey, APIKey: k}, nil
	}
	return Principal{}, apperror.Unauthenticated()
}

// looksLikeAPIKey applies the "<decorator>-<secret>" shape heuristic before
// attempting the more expensive JWT parse.
func looksLikeAPIKey(presented string) bool {
	return strings.Count(presented, ".") == 0 && strings.Contains(presented, "-")
}
