package batch

import (
	"errors"
	"fmt"
)

// ConfigurationError は入力ファイルや実行条件の不備を表す。
// リモート呼び出しの前に実行全体を中断させる。
type ConfigurationError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError は書式付きのConfigurationErrorを作成する
func NewConfigurationError(err error, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...), Err: err}
}

// IsConfigurationError checks if the error is a configuration error
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
