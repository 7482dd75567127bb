package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/signgate/signgate/internal/model"
	"github.com/signgate/signgate/internal/store"
)

var (
	// ErrInvalidCredentials is returned when neither the configured admin
	// nor the store yields a matching login id / secret pair.
	ErrInvalidCredentials = errors.New("invalid id or password")
	// ErrInvalidToken covers signature mismatch, malformed encoding, and
	// expiry alike; callers cannot distinguish the cases.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMemberNotFound is returned by lookups for unknown login ids.
	ErrMemberNotFound = errors.New("member not found")
)

// TokenTTL is the fixed lifetime of issued session tokens. Tokens are never
// refreshed, only reissued via a new login.
const TokenTTL = time.Hour

// Principal is the resolved identity of an authenticated caller.
type Principal struct {
	LoginID string
	Role    model.Role
}

// AdminIdentity is the single operator account defined by process
// configuration rather than the persistent store. It is consulted before
// the store on every authentication attempt and shadows any store row with
// the same login id.
type AdminIdentity struct {
	LoginID  string
	Password string
}

// Service resolves identities against the configured admin and the member
// store, and issues and verifies session tokens.
type Service struct {
	store     *store.Store
	admin     AdminIdentity
	jwtSecret []byte
}

// New creates an auth Service backed by the given store.
func New(s *store.Store, admin AdminIdentity, jwtSecret string) *Service {
	return &Service{
		store:     s,
		admin:     admin,
		jwtSecret: []byte(jwtSecret),
	}
}

// Authenticate resolves a login id and password to a principal. The
// configured admin is checked first and always resolves to MANAGER; store
// members are verified against their bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, loginID, password string) (Principal, error) {
	if s.isAdmin(loginID) {
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1 {
			return Principal{LoginID: s.admin.LoginID, Role: model.RoleManager}, nil
		}
		return Principal{}, ErrInvalidCredentials
	}

	m, err := s.store.GetMemberByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, fmt.Errorf("resolve member: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(m.CredentialHash), []byte(password)) != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{LoginID: m.LoginID, Role: m.Role}, nil
}

// Login authenticates and issues a session token in one step.
func (s *Service) Login(ctx context.Context, loginID, password string) (string, error) {
	p, err := s.Authenticate(ctx, loginID, password)
	if err != nil {
		return "", err
	}
	return s.IssueToken(p)
}

// IssueToken creates a signed session token for the principal, valid for
// TokenTTL from now.
func (s *Service) IssueToken(p Principal) (string, error) {
	return s.issueToken(p, TokenTTL)
}

func (s *Service) issueToken(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.LoginID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "signgate",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken validates a session token and returns the embedded principal.
// Every failure mode yields ErrInvalidToken; callers cannot distinguish an
// expired token from a tampered one.
func (s *Service) VerifyToken(tokenStr string) (Principal, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	role := model.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return Principal{}, ErrInvalidToken
	}
	return Principal{LoginID: claims.Subject, Role: role}, nil
}

// CreateMember registers a new local account with role MEMBER. A login id
// that collides with the configured admin is rejected the same way as a
// store duplicate: the admin shadows the store on authentication, so such
// a row could never be used.
func (s *Service) CreateMember(ctx context.Context, loginID, password, name string) (*model.Member, error) {
	if loginID == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if s.isAdmin(loginID) {
		return nil, store.ErrDuplicateLoginID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	m := &model.Member{
		LoginID:        loginID,
		CredentialHash: string(hash),
		Name:           name,
		Role:           model.RoleMember,
	}
	if err := s.store.CreateMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// MemberByLoginID returns the member record for a login id. The configured
// admin is synthesized without a store query.
func (s *Service) MemberByLoginID(ctx context.Context, loginID string) (*model.Member, error) {
	if s.isAdmin(loginID) {
		return &model.Member{
			LoginID: s.admin.LoginID,
			Name:    "Administrator",
			Role:    model.RoleManager,
		}, nil
	}

	m, err := s.store.GetMemberByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("lookup member: %w", err)
	}
	return m, nil
}

// ListMembers returns all locally persisted members.
func (s *Service) ListMembers(ctx context.Context) ([]model.Member, error) {
	return s.store.ListMembers(ctx)
}

func (s *Service) isAdmin(loginID string) bool {
	return s.admin.LoginID != "" &&
		subtle.ConstantTimeCompare([]byte(loginID), []byte(s.admin.LoginID)) == 1
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
