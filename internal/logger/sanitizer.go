package logger

import (
	"regexp"
	"strings"
)

const masked = "***MASKED***"

// センシティブなキーのパターン（大文字小文字を区別しない）
var sensitiveKeyPatterns = []string{
	"password",
	"token",
	"api_token",
	"bearer_token",
	"secret",
	"authorization",
	"auth",
	"credential",
	"access_token",
}

// センシティブな値のパターン
var sensitiveValuePatterns = []*regexp.Regexp{
	// Atlassian API tokens
	regexp.MustCompile(`^ATATT[A-Za-z0-9\-_=]{20,}$`),
	regexp.MustCompile(`(?i)^Bearer\s+[A-Za-z0-9\-_\.=]{20,}$`),
	regexp.MustCompile(`(?i)^Basic\s+[A-Za-z0-9+/=]{8,}$`),
}

// SanitizeKeyValue はキーと値の組み合わせをチェックし、センシティブな情報をマスクする
func SanitizeKeyValue(key string, value interface{}) (string, interface{}) {
	if isSensitiveKey(key) {
		if str, ok := value.(string); ok && str == "" {
			return key, value
		}
		return key, maskValue(value)
	}
	if isSensitiveValue(value) {
		return key, maskValue(value)
	}
	return key, value
}

// SanitizeArgs はログ引数（key-valueペア）をサニタイズする
func SanitizeArgs(args ...interface{}) []interface{} {
	if len(args) == 0 {
		return args
	}

	sanitized := make([]interface{}, len(args))
	copy(sanitized, args)

	// 偶数インデックスがkey、奇数インデックスがvalue
	for i := 0; i < len(sanitized)-1; i += 2 {
		if key, ok := sanitized[i].(string); ok {
			_, sanitized[i+1] = SanitizeKeyValue(key, sanitized[i+1])
		}
	}

	return sanitized
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	for _, pattern := range sensitiveKeyPatterns {
		if lowerKey == pattern ||
			strings.HasPrefix(lowerKey, pattern+"_") ||
			strings.HasSuffix(lowerKey, "_"+pattern) ||
			strings.Contains(lowerKey, "_"+pattern+"_") {
			return true
		}
	}

	return false
}

func isSensitiveValue(value interface{}) bool {
	str, ok := value.(string)
	if !ok || str == "" {
		return false
	}

	for _, pattern := range sensitiveValuePatterns {
		if pattern.MatchString(str) {
			return true
		}
	}

	return false
}

// maskValue はセンシティブな値をマスクする（認証スキームのプレフィックスは保持）
func maskValue(value interface{}) string {
	str, ok := value.(string)
	if !ok {
		return masked
	}

	for _, prefix := range []string{"Bearer ", "Basic ", "ATATT"} {
		if strings.HasPrefix(str, prefix) {
			return prefix + masked
		}
	}

	return masked
}
