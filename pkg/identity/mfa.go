package identity

import (
	"context"

	"github.com/pquerna/otp/totp"
)

// VerifyEnrollmentCode checks a TOTP code against the enrollment secret
// locally, letting the UI reject typos before a round-trip. The backend
// remains the authority on whether enrollment actually completes.
func VerifyEnrollmentCode(secret, code string) bool {
	return totp.Validate(code, secret)
}

// CompleteMFA resubmits the credentials with a second-factor code to
// finish an MFA challenge or first-time enrollment.
func (s *Service) CompleteMFA(ctx context.Context, creds Credentials, code string) (*LoginResult, error) {
	creds.MFACode = code
	return s.Login(ctx, creds)
}
