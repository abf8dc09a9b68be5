package errcode

// 通知消息中的错误码：
// - 0：无错误
// - 4xxx：请求侧问题（作品集不存在、格式不支持），重试无意义
// - 5xxx：系统错误（存储写入失败、渲染失败等）
const (
	OK              = 0
	UnknownFormat   = 4000
	ResourceMissing = 4004
	SystemError     = 5000
	StorageFailure  = 5003
)
