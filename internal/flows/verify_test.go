package flows

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVerifyIssuedTokenSucceeds(t *testing.T) {
	f := newFixture(t)
	token, claims := f.issue(t, "42")

	res := RunVerify(context.Background(), token, VerifyNormal, f.deps)
	if !res.OK() {
		t.Fatalf("expected success, got failure %d (%v)", res.Failure, res.Err)
	}
	if res.Claims.Subject != "42" || res.Claims.TokenID() != claims.TokenID() {
		t.Fatalf("unexpected claims %+v", res.Claims)
	}
}

func TestVerifyRefreshWindow(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issue(t, "42")
	ctx := context.Background()

	f.clock.Advance(901 * time.Second)
	if res := RunVerify(ctx, token, VerifyNormal, f.deps); res.Failure != VerifyFailureExpired {
		t.Fatalf("NORMAL at t0+901s: failure %d, want expired", res.Failure)
	}
	if res := RunVerify(ctx, token, VerifyRefresh, f.deps); !res.OK() {
		t.Fatalf("REFRESH at t0+901s: failure %d, want success", res.Failure)
	}

	f.clock.Advance(604801*time.Second - 901*time.Second)
	if res := RunVerify(ctx, token, VerifyRefresh, f.deps); res.Failure != VerifyFailureExpired {
		t.Fatalf("REFRESH at t0+604801s: failure %d, want expired", res.Failure)
	}
}

func TestVerifyExpiryBoundaryIsExclusive(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issue(t, "42")

	f.clock.Advance(testValid - time.Second)
	if res := RunVerify(context.Background(), token, VerifyNormal, f.deps); !res.OK() {
		t.Fatalf("one second before exp: failure %d", res.Failure)
	}
	f.clock.Advance(time.Second)
	if res := RunVerify(context.Background(), token, VerifyNormal, f.deps); res.Failure != VerifyFailureExpired {
		t.Fatalf("at exp: failure %d, want expired", res.Failure)
	}
}

func TestVerifyRejectsMalformedWithoutStoreAccess(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issue(t, "42")

	inputs := []string{
		"",
		"garbage",
		"one.two",
		token + ".extra",
		"a..b",
	}
	for _, in := range inputs {
		res := RunVerify(context.Background(), in, VerifyNormal, f.deps)
		if res.OK() {
			t.Fatalf("input %q unexpectedly verified", in)
		}
	}
	if f.store.contains != 0 || f.store.puts != 0 {
		t.Fatalf("store touched by malformed input: contains=%d puts=%d", f.store.contains, f.store.puts)
	}
}

func TestVerifyBadSignatureSkipsStore(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issue(t, "42")
	b := []byte(token)
	b[len(b)-2] ^= 0x01

	res := RunVerify(context.Background(), string(b), VerifyNormal, f.deps)
	if res.OK() {
		t.Fatal("tampered token verified")
	}
	if f.store.contains != 0 {
		t.Fatalf("store consulted for bad signature: %d", f.store.contains)
	}
}

func TestVerifyExpiredSkipsStore(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issue(t, "42")
	f.clock.Advance(time.Hour)

	if res := RunVerify(context.Background(), token, VerifyNormal, f.deps); res.Failure != VerifyFailureExpired {
		t.Fatalf("failure %d, want expired", res.Failure)
	}
	if f.store.contains != 0 {
		t.Fatalf("store consulted for expired token: %d", f.store.contains)
	}
}

func TestVerifyRevoked(t *testing.T) {
	f := newFixture(t)
	token, claims := f.issue(t, "42")
	f.store.records[claims.TokenID()] = time.Time{}

	for _, mode := range []VerifyMode{VerifyNormal, VerifyRefresh} {
		if res := RunVerify(context.Background(), token, mode, f.deps); res.Failure != VerifyFailureRevoked {
			t.Fatalf("%s: failure %d, want revoked", mode, res.Failure)
		}
	}
}

func TestVerifyStoreErrorFailsClosed(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issue(t, "42")
	f.store.err = errors.New("down")

	res := RunVerify(context.Background(), token, VerifyNormal, f.deps)
	if res.Failure != VerifyFailureStore || res.Err == nil {
		t.Fatalf("failure %d err %v, want store failure", res.Failure, res.Err)
	}
}

func TestRetainUntilCoversBothWindows(t *testing.T) {
	f := newFixture(t)
	_, claims := f.issue(t, "42")

	iat, _ := claims.IssuedAtTime()
	if got := RetainUntil(claims, testRefreshable); !got.Equal(iat.Add(testRefreshable)) {
		t.Fatalf("RetainUntil = %v, want refresh window end", got)
	}
	exp, _ := claims.ExpiresAtTime()
	if got := RetainUntil(claims, time.Second); !got.Equal(exp) {
		t.Fatalf("RetainUntil = %v, want exp when it is later", got)
	}
}
