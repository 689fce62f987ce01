// Package common contains shared constants and sentinel errors used across
// cribfeed components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on outbound acknowledgement requests.
const AccessTokenHeaderName = "access_token"

// Keys of the persisted session record in local durable storage.
const (
	SessionAccountKey = "session_account"
	SessionTokenKey   = "session_token"
)

// InvalidCredentialsMessage is shown inline when a login attempt fails.
const InvalidCredentialsMessage = "Invalid email or password"
