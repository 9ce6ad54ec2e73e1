package service

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

const (
	Unprocessable       = http.StatusUnprocessableEntity
	Unauthorized        = http.StatusUnauthorized
	Forbidden           = http.StatusForbidden
	NotFound            = http.StatusNotFound
	InternalServerError = http.StatusInternalServerError
)

var (
	ErrParamInvalid         = errors.New("the given data was invalid")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrCategoryNotFound     = errors.New("branch or mc not found")
	ErrPermissionDenied     = errors.New("you do not have permission to perform this action")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrEditNotOwner         = errors.New("you can only edit your own messages")
	ErrEditWindowExpired    = errors.New("messages can only be edited within 2 minutes of sending")
	ErrDeleteDenied         = errors.New("you do not have permission to delete this message")
	ErrAnnouncementReadOnly = errors.New("only announcement admins can post here")
	ErrGroupOnly            = errors.New("membership can only be managed in group conversations")
	ErrFileNotSupported     = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file is too large")
	UnExpectedError         = errors.New("something went wrong, please try again later")
)

// ErrorMap 业务错误到 HTTP 状态码
var ErrorMap = map[error]int{
	ErrParamInvalid:         Unprocessable,
	ErrUnauthenticated:      Unauthorized,
	ErrUserNotFound:         NotFound,
	ErrConversationNotFound: NotFound,
	ErrMessageNotFound:      NotFound,
	ErrCategoryNotFound:     NotFound,
	ErrPermissionDenied:     Forbidden,
	ErrNotParticipant:       Forbidden,
	ErrEditNotOwner:         Forbidden,
	ErrEditWindowExpired:    Forbidden,
	ErrDeleteDenied:         Forbidden,
	ErrAnnouncementReadOnly: Forbidden,
	ErrGroupOnly:            Unprocessable,
	ErrFileNotSupported:     Unprocessable,
	ErrFileTooLarge:         Unprocessable,
	UnExpectedError:         InternalServerError,
}

// ValidationError 字段级校验失败
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrParamInvalid
}

// StatusOf 解析错误对应的状态码，未登记的错误返回 false
func StatusOf(err error) (int, bool) {
	if err == nil {
		return http.StatusOK, true
	}
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for known, code := range ErrorMap {
		if errors.Is(err, known) {
			return code, true
		}
	}
	return InternalServerError, false
}
