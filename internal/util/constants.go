package util

const DateFormat = "2006-01-02"

// 完成结果标签，用于日志和监控
const (
	OutcomeCompleted        = "completed"
	OutcomeMarkedIncomplete = "marked_incomplete"
	OutcomeRejected         = "rejected"
	OutcomeFailed           = "failed"
)
