package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Plan is a subscription tier with its limits.
type Plan struct {
	Name      string `json:"name"`
	DocQuota  int    `json:"doc_quota"`
	StorageMB int    `json:"storage_mb"`
}

// Plans holds the tiers offered. Starter is the signup default.
var Plans = map[string]Plan{
	"starter": {Name: "starter", DocQuota: 50, StorageMB: 500},
	"pro":     {Name: "pro", DocQuota: 200, StorageMB: 2048},
}

const DefaultPlan = "starter"

// User is an authenticated account handle. Processing and answering are
// gated on holding one.
type User struct {
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// Limits resolves the user's plan, falling back to starter for unknown tiers.
func (u User) Limits() Plan {
	if p, ok := Plans[u.Plan]; ok {
		return p
	}
	return Plans[DefaultPlan]
}

var ErrInvalidCredentials = errors.New("invalid email or password")

// Provider verifies credentials and yields the account handle.
type Provider interface {
	Authenticate(email, password string) (User, error)
}

type fileUser struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Plan         string `json:"plan"`
}

// FileProvider reads accounts from a JSON file of
// {email, password_hash (bcrypt), plan} records. The file is read once at
// startup; account management itself lives outside this service.
type FileProvider struct {
	users map[string]fileUser
}

func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var records []fileUser
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	users := make(map[string]fileUser, len(records))
	for _, r := range records {
		email := strings.ToLower(strings.TrimSpace(r.Email))
		if email == "" || r.PasswordHash == "" {
			return nil, fmt.Errorf("users file: record missing email or password_hash")
		}
		if r.Plan == "" {
			r.Plan = DefaultPlan
		}
		if _, ok := Plans[r.Plan]; !ok {
			return nil, fmt.Errorf("users file: unknown plan %q for %s", r.Plan, email)
		}
		users[email] = r
	}
	return &FileProvider{users: users}, nil
}

// Authenticate checks credentials against the loaded records. The bcrypt
// compare runs even for unknown emails so both failure paths cost the same.
func (p *FileProvider) Authenticate(email, password string) (User, error) {
	record, ok := p.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return User{Email: record.Email, Plan: record.Plan}, nil
}

// Count reports how many accounts are loaded, for startup logging.
func (p *FileProvider) Count() int { return len(p.users) }

// dummyHash is a valid bcrypt hash of a random string, used to equalize
// timing when the email does not exist.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
