package middleware

// Machine-readable error codes carried in the error field of failure
// responses. Clients branch on these, never on the human-readable message.
const (
	// CodeNoCredential: no session cookie and no bearer token were presented.
	CodeNoCredential = "no_credential"

	// CodeInvalidToken: a bearer token was presented but failed signature,
	// issuer, audience or structural checks.
	CodeInvalidToken = "invalid_token"

	// CodeExpiredToken: a bearer token was well-formed and correctly signed
	// but past its expiry. Distinct from CodeInvalidToken so clients know to
	// refresh rather than re-authenticate.
	CodeExpiredToken = "expired_token"

	// CodeSessionStoreUnavailable: a session cookie was presented but the
	// session store could not be reached.
	CodeSessionStoreUnavailable = "session_store_unavailable"

	// CodeAuthorityUnavailable: the permission authority could not be
	// reached and no cached grants existed. The pipeline fails closed.
	CodeAuthorityUnavailable = "authority_unavailable"

	// CodePermissionDenied: the caller authenticated but lacks the required
	// permission.
	CodePermissionDenied = "permission_denied"

	// CodeInvalidAuthMethod: the credential was valid but the route pins a
	// different authentication mechanism.
	CodeInvalidAuthMethod = "invalid_auth_method"
)
