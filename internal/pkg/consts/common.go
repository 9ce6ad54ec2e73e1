package consts

const (
	MimePrefixImage = "image"
	MimePrefixAudio = "audio"
	MimePrefixVideo = "video"
)

// Gin Context 中的键
const (
	CtxUserID = "user_id"
)

const (
	CategoryKeyBranch     = "branch:"
	CategoryKeyMC         = "mc:"
	CategoryKeyIndividual = "individual:"
)

// CategoryChatSuffix 分堂/小组会话命名后缀
const CategoryChatSuffix = " Chat"
