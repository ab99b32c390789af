package identity

// User is the authenticated principal as the client sees it.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Role      RoleRef
}

// RoleRef is the user's role reference. Name and Permissions are filled
// lazily: a fresh login knows only the role id until the permission
// directory loads the rest.
type RoleRef struct {
	ID          int64
	Name        string
	Permissions []string
}

// DisplayName returns the user's full display name.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Credentials are the login form fields. MFACode is only set when
// answering an MFA challenge.
type Credentials struct {
	Email    string
	Password string
	MFACode  string
}

// LoginStatus discriminates the possible outcomes of a login attempt.
type LoginStatus int

const (
	// StatusAuthenticated means a token was issued and stored.
	StatusAuthenticated LoginStatus = iota

	// StatusMFARequired means the user is enrolled in MFA and must
	// resubmit credentials with a second-factor code. No token yet.
	StatusMFARequired

	// StatusMFAEnrollmentRequired means this is first-time MFA setup:
	// the enrollment payload must be completed before a token is
	// issued. No token yet.
	StatusMFAEnrollmentRequired
)

// MFAEnrollment is the first-time MFA setup payload.
type MFAEnrollment struct {
	Secret      string
	QRCodeURL   string
	BackupCodes []string
}

// LoginResult is the discriminated outcome of Login. User is non-nil
// only for StatusAuthenticated; Enrollment is non-nil only for
// StatusMFAEnrollmentRequired.
type LoginResult struct {
	Status     LoginStatus
	User       *User
	Enrollment *MFAEnrollment
}
