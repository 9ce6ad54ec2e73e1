package consts

const (
	DirectoryUserKey = "chat:directory:user:"
	RevokedTokenKey  = "auth:revoked:"
)

const (
	ProvisionLock = "lock:chat:provision"
)
