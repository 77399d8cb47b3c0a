package loginapp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// LoginType tags how an account was created
type LoginType string

const (
	LoginTypeSite   LoginType = "site"
	LoginTypeGoogle LoginType = "google"
	LoginTypeFB     LoginType = "fb"
	LoginTypeGithub LoginType = "github"
)

// IsSocial returns true for accounts vouched for by an external provider
func (t LoginType) IsSocial() bool {
	switch t {
	case LoginTypeGoogle, LoginTypeFB, LoginTypeGithub:
		return true
	}
	return false
}

const lastLoginLayout = "02 Jan 2006 - 15:04:05"

// randomPasswordChars matches the character set used for throwaway social passwords
const randomPasswordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

const randomPasswordLength = 12

// User is the single persisted account record
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	LoginType    LoginType  `json:"login_type"`
	Confirmed    bool       `json:"confirmed"`
	Created      time.Time  `json:"created"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// NewUser builds an unsaved user record.
//
// Social accounts get a random throwaway password and start confirmed since the
// provider already vouched for the email. Site accounts start unconfirmed.
func NewUser(email, name, password string, loginType LoginType) (*User, error) {
	confirmed := false
	if loginType.IsSocial() {
		var err error
		if password, err = RandomPassword(); err != nil {
			return nil, err
		}
		confirmed = true
	}

	user := &User{
		ID:        GenerateUserId(),
		Name:      name,
		Email:     email,
		LoginType: loginType,
		Confirmed: confirmed,
		Created:   time.Now(),
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	user.SetLastLogin()
	return user, nil
}

// SetPassword replaces the stored hash with a bcrypt hash of password
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) SetLastLogin() {
	now := time.Now()
	u.LastLogin = &now
}

// LastLoginString formats the last login time for display
func (u *User) LastLoginString() string {
	if u.LastLogin == nil {
		return ""
	}
	return u.LastLogin.Format(lastLoginLayout)
}

func (u *User) String() string {
	return fmt.Sprintf("<User %s>", u.Name)
}

// GenerateUserId generates a cryptographically secure user ID
func GenerateUserId() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RandomPassword returns a password nobody knows, for accounts without local credentials
func RandomPassword() (string, error) {
	out := make([]byte, randomPasswordLength)
	max := big.NewInt(int64(len(randomPasswordChars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = randomPasswordChars[n.Int64()]
	}
	return string(out), nil
}
