package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 是注册与重置密码时的最短长度。
const MinPasswordLength = 8

// ErrWeakPassword 表示密码不满足最短长度。
var ErrWeakPassword = errors.New("password too short")

// ValidatePassword 检查密码强度（目前只校验长度，且不能全是空白）。
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	return nil
}

// HashPassword 使用 bcrypt 生成密码哈希。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash 校验密码是否匹配哈希。
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
