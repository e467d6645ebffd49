package users

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/url"
	"strings"
	"sync"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/Mubi-byte/thinktank/internal/auth"
)

const (
	minPasswordLength = 8
	qrImageSize       = 256
)

var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrDuplicateUsername        = errors.New("username already registered")
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrSecondFactorEnabled      = errors.New("second factor already enabled")
	ErrSecondFactorNotSetUp     = errors.New("second factor not set up")
	ErrInvalidSecondFactorToken = errors.New("invalid second factor token")
)

// dummyHash is verified for unknown usernames so login spends the same work
// whether or not the account exists.
var dummyHash, _ = HashPassword("thinktank-placeholder-credential")

// Service implements the credential and second-factor workflow.
type Service struct {
	Repo   Repo
	Tokens *auth.TokenIssuer
	Issuer string

	// usedCodes holds the last accepted code per username so a captured
	// code cannot be replayed within its validity window.
	mu        sync.Mutex
	usedCodes map[string]string
}

func NewService(repo Repo, tokens *auth.TokenIssuer, issuer string) *Service {
	if issuer == "" {
		issuer = "thinktank"
	}
	return &Service{
		Repo:      repo,
		Tokens:    tokens,
		Issuer:    issuer,
		usedCodes: make(map[string]string),
	}
}

// LoginResult is the outcome of a password check. Exactly one of AccessToken
// and RequiresSecondFactor is meaningful.
type LoginResult struct {
	AccessToken          string
	RequiresSecondFactor bool
}

// Register creates a new account with a salted Argon2id password hash.
func (s *Service) Register(ctx context.Context, username, password string) error {
	username = NormalizeUsername(username)
	if username == "" || len(password) < minPasswordLength {
		return ErrInvalidInput
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	// Insert-only so two concurrent registrations cannot both pass an
	// existence check and silently overwrite each other's hash.
	return s.Repo.Create(ctx, User{
		Username:     username,
		PasswordHash: hash,
	})
}

// Login validates credentials. Unknown user and wrong password both return
// ErrInvalidCredentials; a dummy hash is verified for unknown users so the
// two cases are not distinguishable by timing.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = NormalizeUsername(username)
	user, err := s.Repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = VerifyPassword(password, dummyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		return LoginResult{RequiresSecondFactor: true}, nil
	}

	token, err := s.Tokens.Mint(username, []string{"pwd"})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: token}, nil
}

// SetupSecondFactor provisions (or re-issues, while still pending) a TOTP
// secret for the account and returns the provisioning QR code as a PNG.
// The account is not considered enabled until a code is verified.
func (s *Service) SetupSecondFactor(ctx context.Context, username string) ([]byte, error) {
	username = NormalizeUsername(username)
	user, err := s.Repo.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, ErrSecondFactorEnabled
	}

	var key *otp.Key
	if user.TwoFactorSecret != "" {
		key, err = keyFromSecret(s.Issuer, username, user.TwoFactorSecret)
	} else {
		key, err = totp.Generate(totp.GenerateOpts{
			Issuer:      s.Issuer,
			AccountName: username,
			Period:      30,
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err == nil {
			user.TwoFactorSecret = key.Secret()
			err = s.Repo.Put(ctx, user)
		}
	}
	if err != nil {
		return nil, err
	}

	img, err := key.Image(qrImageSize, qrImageSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// VerifySecondFactor checks a TOTP code against the stored secret (30s
// window, one window of skew). A code is accepted at most once; repeating
// the last accepted code fails even inside its window. The first successful
// verification of a pending enrollment flips the enabled flag; every
// success mints a token.
func (s *Service) VerifySecondFactor(ctx context.Context, username, code string) (string, error) {
	username = NormalizeUsername(username)
	user, err := s.Repo.Get(ctx, username)
	if err != nil {
		return "", err
	}
	if user.TwoFactorSecret == "" {
		return "", ErrSecondFactorNotSetUp
	}

	code = strings.TrimSpace(code)
	if !totp.Validate(code, user.TwoFactorSecret) {
		return "", ErrInvalidSecondFactorToken
	}

	s.mu.Lock()
	if s.usedCodes[username] == code {
		s.mu.Unlock()
		return "", ErrInvalidSecondFactorToken
	}
	s.usedCodes[username] = code
	s.mu.Unlock()

	if !user.TwoFactorEnabled {
		user.TwoFactorEnabled = true
		if err := s.Repo.Put(ctx, user); err != nil {
			return "", err
		}
	}

	return s.Tokens.Mint(username, []string{"pwd", "otp"})
}

// NormalizeUsername lowercases and trims a username so the table key is
// case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func keyFromSecret(issuer, account, secret string) (*otp.Key, error) {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("period", "30")
	v.Set("algorithm", "SHA1")
	v.Set("digits", "6")
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + account,
		RawQuery: v.Encode(),
	}
	return otp.NewKeyFromURL(u.String())
}
