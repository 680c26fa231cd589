package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")

	ErrAnswerNotFound   = errors.New("answer not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrCaseNotFound     = errors.New("arbitration case not found")

	// 校验类错误：记录不会被改动，调用方修正后可重试
	ErrScoreOutOfRange    = errors.New("score out of range")
	ErrEmptyDisputeReason = errors.New("dispute reason is required")

	// 状态类错误：操作与当前生命周期状态不兼容
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrOpenCaseExists         = errors.New("an open arbitration case already exists for this answer")

	// 并发写冲突：调用方应重读后整体重试
	ErrConflict = errors.New("concurrent modification detected")
)
