package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestLoginUser(t *testing.T) {
	db := setupTestDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	user := seedUser(t, db, "alice")
	user.Password = string(hash)
	if err := db.Save(&user).Error; err != nil {
		t.Fatalf("failed to update user: %v", err)
	}

	svc := NewAuthService(testSecret)

	got, err := svc.LoginUser(db, "alice", "correct horse")
	if err != nil {
		t.Fatalf("LoginUser failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("user ID = %s, want %s", got.ID, user.ID)
	}

	if _, err := svc.LoginUser(db, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.LoginUser(db, "nobody", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUser_InactiveAccount(t *testing.T) {
	db := setupTestDB(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw12345678"), bcrypt.MinCost)
	user := seedUser(t, db, "bob")
	user.Password = string(hash)
	user.IsActive = false
	if err := db.Save(&user).Error; err != nil {
		t.Fatalf("failed to update user: %v", err)
	}

	svc := NewAuthService(testSecret)

	if _, err := svc.LoginUser(db, "bob", "pw12345678"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestGenerateAndRefreshToken(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "carol")

	svc := NewAuthService(testSecret)

	access, refresh, err := svc.GenerateToken(db, user.ID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("empty token pair")
	}

	var count int64
	if err := db.Model(&models.Token{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count tokens: %v", err)
	}
	if count != 1 {
		t.Fatalf("token records = %d, want 1", count)
	}

	newAccess, newRefresh, expiresIn, err := svc.RefreshToken(db, refresh)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if newAccess == "" || newRefresh == "" {
		t.Fatal("empty refreshed token pair")
	}
	if expiresIn != int64(time.Hour.Seconds()) {
		t.Errorf("expires_in = %d, want %d", expiresIn, int64(time.Hour.Seconds()))
	}

	// Rotation: the old refresh token is single use.
	if _, _, _, err := svc.RefreshToken(db, refresh); err == nil {
		t.Error("reused refresh token accepted, want error")
	}
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "dave")

	svc := NewAuthService(testSecret)

	access, _, err := svc.GenerateToken(db, user.ID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, _, _, err := svc.RefreshToken(db, access); err == nil {
		t.Error("access token accepted as refresh token, want error")
	}
}

func TestRevokeToken(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "erin")

	svc := NewAuthService(testSecret)

	_, refresh, err := svc.GenerateToken(db, user.ID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if err := svc.RevokeToken(db, refresh); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	if _, _, _, err := svc.RefreshToken(db, refresh); err == nil {
		t.Error("revoked refresh token accepted, want error")
	}
}
