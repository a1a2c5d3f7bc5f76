package flows

import "context"

// RunIntrospect reports whether token currently verifies in NORMAL mode.
// It never fails: errors and panics from dependencies read as invalid.
func RunIntrospect(ctx context.Context, token string, deps VerifyDeps) (valid bool) {
	defer func() {
		if recover() != nil {
			valid = false
		}
	}()
	return RunVerify(ctx, token, VerifyNormal, deps).OK()
}
