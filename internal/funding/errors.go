package funding

import (
	"errors"
	"fmt"
)

// ErrorKind 出资错误分类
type ErrorKind int

const (
	KindValidationError ErrorKind = iota + 1 // 参数或身份校验失败，未发生任何状态变更
	KindNotFoundError                        // 权威存储中不存在该项目
	KindTransientError                       // 存储不可用或网络失败
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidationError:
		return "validation"
	case KindNotFoundError:
		return "not_found"
	case KindTransientError:
		return "transient"
	default:
		return "unknown"
	}
}

var (
	ErrValidation = errors.New("invalid contribution")
	ErrNotFound   = errors.New("project not found")
	ErrTransient  = errors.New("authoritative store unavailable")
)

// ContributionError 出资失败时返回给调用方的错误
// 返回时本地预测状态已经恢复到出资前的值
type ContributionError struct {
	Kind      ErrorKind
	ProjectID string
	Reason    string
	Err       error
}

func (e *ContributionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("contribution to project %s failed (%s): %s", e.ProjectID, e.Kind, e.Reason)
	}
	return fmt.Sprintf("contribution to project %s failed (%s)", e.ProjectID, e.Kind)
}

func (e *ContributionError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is 可以按分类匹配哨兵错误
func (e *ContributionError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidationError
	case ErrNotFound:
		return e.Kind == KindNotFoundError
	case ErrTransient:
		return e.Kind == KindTransientError
	}
	return false
}

func validationError(projectID, reason string) *ContributionError {
	return &ContributionError{Kind: KindValidationError, ProjectID: projectID, Reason: reason}
}

// NewValidationError 创建校验错误
func NewValidationError(projectID, reason string) error {
	return validationError(projectID, reason)
}

// NewNotFoundError 创建项目不存在错误
func NewNotFoundError(projectID string) error {
	return &ContributionError{Kind: KindNotFoundError, ProjectID: projectID, Reason: "项目不存在"}
}

// NewTransientError 创建存储或网络错误
func NewTransientError(projectID string, err error) error {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return &ContributionError{Kind: KindTransientError, ProjectID: projectID, Reason: reason, Err: err}
}

// Classify 将协作方返回的任意错误归类，未识别的错误视为临时错误
func Classify(projectID string, err error) *ContributionError {
	var ce *ContributionError
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, ErrValidation):
		return &ContributionError{Kind: KindValidationError, ProjectID: projectID, Reason: err.Error(), Err: err}
	case errors.Is(err, ErrNotFound):
		return &ContributionError{Kind: KindNotFoundError, ProjectID: projectID, Reason: err.Error(), Err: err}
	}
	return &ContributionError{Kind: KindTransientError, ProjectID: projectID, Reason: err.Error(), Err: err}
}
