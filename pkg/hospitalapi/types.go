package hospitalapi

import "encoding/json"

// ============================================================================
// Response Envelope
// ============================================================================

// envelope is the backend's uniform response wrapper. Successful payloads
// arrive as the first element of body.data.
type envelope struct {
	StatusCode int          `json:"statusCode"`
	Body       envelopeBody `json:"body"`
}

type envelopeBody struct {
	IntCode string          `json:"intCode"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Machine codes the backend embeds in envelope.body.intCode.
const (
	// CodeRegistered signals a successful registration.
	CodeRegistered = "S02"
)

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body for POST /v1/auth/login. MFACode is only set
// when answering an MFA challenge.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfa_code,omitempty"`
}

// LoginData is the discriminated login payload. Exactly one of three
// shapes is populated:
//
//   - RequiresMFA with enrollment fields (Secret/QRCodeURL/BackupCodes):
//     first-time MFA setup, no token issued yet
//   - RequiresMFA without enrollment fields: already enrolled, the caller
//     must re-submit credentials with an MFA code
//   - AccessToken + User present: authentication complete
type LoginData struct {
	RequiresMFA bool     `json:"requires_mfa"`
	QRCodeURL   string   `json:"qr_code_url,omitempty"`
	Secret      string   `json:"secret,omitempty"`
	BackupCodes []string `json:"backup_codes,omitempty"`

	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresIn    int         `json:"expires_in,omitempty"`
	User         *UserRecord `json:"usuario,omitempty"`
}

// UserRecord is the backend's user row as returned by the login endpoint.
type UserRecord struct {
	ID        int64  `json:"id_usuario"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Email     string `json:"email"`
	BirthDate string `json:"fecha_nacimiento"`
	RoleID    int64  `json:"id_rol"`
	CreatedAt string `json:"created_at"`
}

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleID    int64  `json:"id_rol"`
	BirthDate string `json:"fecha_nacimiento"`
}

// RegisterResult carries the backend's machine code for a registration
// attempt. Registration never issues tokens; the user logs in afterwards.
type RegisterResult struct {
	StatusCode int
	IntCode    string
}

// Registered reports whether the backend accepted the registration.
func (r *RegisterResult) Registered() bool {
	return r.StatusCode == 201 && r.IntCode == CodeRegistered
}

// ============================================================================
// Profile Types
// ============================================================================

// Profile is the "who am I" record from GET /v1/usuarios/perfil. Unlike
// the envelope endpoints it is returned as a bare JSON object.
type Profile struct {
	ID        int64       `json:"id"`
	FirstName string      `json:"nombre"`
	LastName  string      `json:"apellido"`
	Email     string      `json:"email"`
	Role      ProfileRole `json:"rol"`
}

// ProfileRole is the role reference embedded in a Profile.
type ProfileRole struct {
	ID          int64    `json:"id"`
	Name        string   `json:"nombre"`
	Permissions []string `json:"permisos"`
}

// ============================================================================
// Role / Permission Types
// ============================================================================

// Permission is an atomic (resource, action) grant.
type Permission struct {
	ID          int64  `json:"id_permiso"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Resource    string `json:"recurso"`
	Action      string `json:"accion"`
}

// Role is a named bundle of permissions, fetched as a whole unit keyed
// by role id.
type Role struct {
	ID          int64        `json:"id_rol"`
	Name        string       `json:"nombre"`
	Description string       `json:"descripcion"`
	Permissions []Permission `json:"permisos"`
}
