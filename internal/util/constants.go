package util

const (
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	ContextUserKey   = "user"
	SessionCookie    = "mt_session"
	OAuthStateCookie = "mt_oauth_state"

	InteractionSecretHeader = "X-Interaction-Secret"
)
