package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UUID      string `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	Username  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username" validate:"required,min=3,max=100"`
	Email     string `gorm:"type:varchar(200);uniqueIndex;not null" json:"email" validate:"required,email,min=5,max=200"`
	Password  string `gorm:"type:text" json:"-" validate:"required,min=8"`
	FirstName string `gorm:"type:varchar(150)" json:"first_name" validate:"max=150"`
	LastName  string `gorm:"type:varchar(150)" json:"last_name" validate:"max=150"`
	// Level gates which article access levels the user may read (1..3).
	Level     int  `gorm:"type:int;default:1" json:"level" validate:"min=1,max=3"`
	IsAdmin   bool `gorm:"default:false" json:"is_admin"`
	IsCreator bool `gorm:"default:false" json:"is_creator"`
	IsActive  bool `gorm:"default:true" json:"is_active"`
	// DownloadCount feeds the download quota gate; once it reaches the free
	// allowance the user must submit detailed profile info to keep downloading.
	DownloadCount         int     `gorm:"default:0" json:"download_count"`
	DetailedInfoSubmitted bool    `gorm:"default:false" json:"detailed_info_submitted"`
	Address               *string `gorm:"type:varchar(500)" json:"-"`
	Phone                 *string `gorm:"type:varchar(50)" json:"-"`
	Organization          *string `gorm:"type:varchar(255)" json:"-"`
	ResearchPurpose       *string `gorm:"type:text" json:"-"`
	ProfileImageURL       string  `gorm:"type:varchar(500)" json:"profile_image_url"`
	// APITokenHash holds the SHA-256 of the opaque bearer token issued at
	// login. Only the hash is stored.
	APITokenHash string     `gorm:"type:char(64);index" json:"-"`
	LastLoginAt  *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns a UUID when none is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == "" {
		u.UUID = uuid.New().String()
	}
	return nil
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds a new level-1 user with a hashed password.
func CreateUser(username, email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username: username,
		Email:    email,
		Password: pw,
		Level:    ACCESS_PUBLIC,
		IsActive: true,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

// IssueAPIToken generates a fresh opaque token, stores its hash on the user
// and returns the plaintext token. The plaintext is never persisted.
func (u *User) IssueAPIToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	u.APITokenHash = HashAPIToken(token)
	return token, nil
}

// HashAPIToken returns the hex SHA-256 of a plaintext API token.
func HashAPIToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DisplayName renders "First Last", falling back to the username.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
