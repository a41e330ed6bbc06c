package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"github.com/and161185/studyflow/internal/service"
)

func makeJWT(t *testing.T, sub string, key []byte, method jwt.SigningMethod, iat time.Time, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(iat),
		NotBefore: jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
	}
	token := jwt.NewWithClaims(method, claims)
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func ctxWithAuth(token string) context.Context {
	md := metadata.New(map[string]string{
		"authorization": "Bearer " + token,
	})
	return metadata.NewIncomingContext(context.Background(), md)
}

var jwtSigning = jwt.SigningMethodHS256

func jwtVerifier(key []byte) TokenVerifier {
	return service.NewAuthService(nil, nil, nil, service.AuthConfig{SignKey: key}, nil)
}

func Test_bearerTokenFromMD_OkAndErrors(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def.ghi"))
	got, err := bearerTokenFromMD(ctx)
	if err != nil || got != "abc.def.ghi" {
		t.Fatalf("ok: got=%q err=%v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo"))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on non-bearer")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   "))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on empty token")
	}

	if _, err := bearerTokenFromMD(context.Background()); err == nil {
		t.Fatalf("want error on no metadata")
	}
}

func Test_authenticate_Valid(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	sub := uuid.Must(uuid.NewV4()).String()
	j := makeJWT(t, sub, key, jwt.SigningMethodHS256, time.Now().UTC().Add(-time.Minute), 10*time.Minute)

	id, err := authenticate(ctxWithAuth(j), jwtVerifier(key))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.String() != sub {
		t.Fatalf("uuid mismatch: %s vs %s", id, sub)
	}
}

func Test_authenticate_Rejects(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	v := jwtVerifier(key)
	sub := uuid.Must(uuid.NewV4()).String()
	now := time.Now().UTC()

	cases := map[string]context.Context{
		"no metadata":    context.Background(),
		"expired":        ctxWithAuth(makeJWT(t, sub, key, jwt.SigningMethodHS256, now.Add(-2*time.Hour), time.Hour)),
		"bad subject":    ctxWithAuth(makeJWT(t, "not-a-uuid", key, jwt.SigningMethodHS256, now, time.Hour)),
		"wrong alg":      ctxWithAuth(makeJWT(t, sub, key, jwt.SigningMethodHS384, now, time.Hour)),
		"wrong key":      ctxWithAuth(makeJWT(t, sub, []byte("other"), jwt.SigningMethodHS256, now, time.Hour)),
		"invalid string": ctxWithAuth("this-is-not-a-jwt"),
	}
	for name, ctx := range cases {
		if _, err := authenticate(ctx, v); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
}
