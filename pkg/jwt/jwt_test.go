package jwt

import (
	"testing"
	"time"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16-chars",
		AccessTokenTTL: ttl,
	})
}

func TestManager_GenerateAndParse(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	token, err := m.GenerateAccessToken("user-001", "student", "213220001")
	if err != nil {
		t.Fatalf("生成 Token 应成功: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 应成功: %v", err)
	}
	if claims.UserID != "user-001" {
		t.Errorf("期望 UserID=user-001，实际=%s", claims.UserID)
	}
	if claims.Role != "student" {
		t.Errorf("期望 Role=student，实际=%s", claims.Role)
	}
	if claims.StudentID != "213220001" {
		t.Errorf("期望 StudentID=213220001，实际=%s", claims.StudentID)
	}
	if claims.TokenType != "access" {
		t.Errorf("期望 TokenType=access，实际=%s", claims.TokenType)
	}
}

func TestManager_ParseExpired(t *testing.T) {
	m := newTestManager(-time.Minute) // 生成即过期

	token, err := m.GenerateAccessToken("user-001", "student", "213220001")
	if err != nil {
		t.Fatalf("生成 Token 应成功: %v", err)
	}

	if _, err := m.ParseToken(token); err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestManager_ParseInvalid(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	if _, err := m.ParseToken("not-a-token"); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}

	// 不同密钥签发的 Token 应拒绝
	other := NewManager(&config.AuthConfig{
		JWTSecret:      "another-secret-16-chars-long",
		AccessTokenTTL: 15 * time.Minute,
	})
	token, _ := other.GenerateAccessToken("user-001", "admin", "")
	if _, err := m.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}
