package service

import (
	"errors"
	"fmt"
)

// RejectReason 业务规则拒绝的原因，会原样返回给客户端
type RejectReason string

const (
	ReasonNotFound          RejectReason = "not_found"
	ReasonAlreadyCompleted  RejectReason = "already_completed"
	ReasonDailyLimitReached RejectReason = "daily_limit_reached"
	ReasonGoalCompleted     RejectReason = "goal_completed"
)

// Rejection 表示预期内的拒绝（不是故障）。其它错误一律视为基础设施故障。
type Rejection struct {
	Reason RejectReason
	Err    error
}

func (r *Rejection) Error() string {
	if r.Err == nil {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %v", r.Reason, r.Err)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

func reject(reason RejectReason, err error) error {
	return &Rejection{Reason: reason, Err: err}
}

// AsRejection 判断 err 是否为业务拒绝
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsRejected 判断 err 是否为指定原因的拒绝
func IsRejected(err error, reason RejectReason) bool {
	rej, ok := AsRejection(err)
	return ok && rej.Reason == reason
}
