package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/serroba/linkstats/internal/access"
	"go.uber.org/zap"
)

// SkipIdentityKey marks operations, such as the redirect, that never look at the caller.
const SkipIdentityKey = "skipIdentity"

// EditKeyHeader carries the edit key of an anonymous link.
const EditKeyHeader = "X-Edit-Key"

var errMissingSubject = errors.New("token has no subject")

// Identity resolves the caller of each request. A valid HS256 bearer token
// makes the caller access.Authenticated with the token subject; without a
// token the caller is access.Anonymous, holding the X-Edit-Key header if sent.
// A token that fails verification is rejected with 401.
func Identity(api huma.API, secret []byte, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil {
			if skip, _ := op.Metadata[SkipIdentityKey].(bool); skip {
				next(ctx)

				return
			}
		}

		var caller access.Caller = access.Anonymous{EditKey: strings.TrimSpace(ctx.Header(EditKeyHeader))}

		if raw, ok := bearerToken(ctx.Header("Authorization")); ok {
			userID, err := verify(parser, raw, secret)
			if err != nil {
				logger.Debug("rejected bearer token", zap.Error(err))

				_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid or expired token")

				return
			}

			caller = access.Authenticated{UserID: userID}
		}

		next(huma.WithContext(ctx, access.ContextWithCaller(ctx.Context(), caller)))
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func verify(parser *jwt.Parser, raw string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("token verification is not configured")
	}

	var claims jwt.RegisteredClaims

	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return "", err
	}

	if claims.Subject == "" {
		return "", errMissingSubject
	}

	return claims.Subject, nil
}
