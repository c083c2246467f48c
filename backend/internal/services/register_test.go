package services

import (
	"errors"
	"testing"
)

func TestRegisterUser(t *testing.T) {
	db := setupTestDB(t)

	svc := NewRegisterService()

	user, err := svc.RegisterUser(db, RegistrationRequest{
		Username: "newuser",
		Email:    "newuser@example.com",
		Password: "supersecret1",
	})
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if user.Username != "newuser" || !user.IsActive {
		t.Errorf("user = %+v, want active newuser", user)
	}
	if user.Password == "supersecret1" {
		t.Error("password stored in plaintext")
	}

	auth := NewAuthService(testSecret)
	if _, err := auth.LoginUser(db, "newuser", "supersecret1"); err != nil {
		t.Errorf("login with registered credentials failed: %v", err)
	}
}

func TestRegisterUser_Duplicates(t *testing.T) {
	db := setupTestDB(t)

	svc := NewRegisterService()

	base := RegistrationRequest{
		Username: "taken",
		Email:    "taken@example.com",
		Password: "supersecret1",
	}
	if _, err := svc.RegisterUser(db, base); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	dupEmail := base
	dupEmail.Username = "other"
	if _, err := svc.RegisterUser(db, dupEmail); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate email: error = %v, want ErrDuplicateEmail", err)
	}

	dupName := base
	dupName.Email = "other@example.com"
	if _, err := svc.RegisterUser(db, dupName); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("duplicate username: error = %v, want ErrDuplicateUsername", err)
	}
}
