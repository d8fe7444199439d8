package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const authCollection = "auth"

// FederatedVerifier verifies identity-provider tokens; *auth.Client satisfies it
type FederatedVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Authenticator implements AuthService with password accounts stored through a
// CredentialRepository and federated sign-in through Firebase ID tokens. Both
// paths end in the same HS256 session token.
type Authenticator struct {
	credentials repositories.CredentialRepository
	federated   FederatedVerifier
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
}

// NewAuthenticator creates a new Authenticator. federated may be nil, which
// disables SignInWithCredential.
func NewAuthenticator(credentials repositories.CredentialRepository, federated FederatedVerifier, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{
		credentials: credentials,
		federated:   federated,
		secret:      []byte(secret),
		ttl:         ttl,
		now:         time.Now,
	}
}

// SignUp creates a password account and signs it in
func (a *Authenticator) SignUp(ctx context.Context, email, password string) (Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, newError(KindInternal, "signUp", authCollection, "", err)
	}
	cred := &models.Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := a.credentials.CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return Identity{}, newError(KindConflict, "signUp", authCollection, "",
				errors.New("The email address is already in use by another account."))
		}
		return Identity{}, newError(KindInternal, "signUp", authCollection, "", err)
	}
	return a.issue(Identity{UID: cred.UID, Email: cred.Email, Provider: models.ProviderPassword})
}

// SignInWithPassword verifies an email and password
func (a *Authenticator) SignInWithPassword(ctx context.Context, email, password string) (Identity, error) {
	cred, err := a.credentials.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrCredentialNotFound) {
			return Identity{}, newError(KindUnauthenticated, "signIn", authCollection, "",
				errors.New("There is no user record corresponding to this identifier."))
		}
		return Identity{}, newError(KindInternal, "signIn", authCollection, "", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Identity{}, newError(KindUnauthenticated, "signIn", authCollection, cred.UID,
			errors.New("The password is invalid or the user does not have a password."))
	}
	return a.issue(Identity{UID: cred.UID, Email: cred.Email, Provider: models.ProviderPassword})
}

// SignInWithCredential exchanges a federated ID token for a session
func (a *Authenticator) SignInWithCredential(ctx context.Context, idToken string) (Identity, error) {
	if a.federated == nil {
		return Identity{}, newError(KindUnauthenticated, "signInWithCredential", authCollection, "",
			errors.New("federated sign-in is not configured"))
	}
	if strings.TrimSpace(idToken) == "" {
		return Identity{}, newError(KindInvalidArgument, "signInWithCredential", authCollection, "",
			errors.New("Google ID Token is null."))
	}
	token, err := a.federated.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, newError(KindUnauthenticated, "signInWithCredential", authCollection, "", err)
	}
	identity := Identity{UID: token.UID, Provider: models.ProviderGoogle}
	identity.Email, _ = token.Claims["email"].(string)
	identity.DisplayName, _ = token.Claims["name"].(string)
	identity.PhotoURL, _ = token.Claims["picture"].(string)
	return a.issue(identity)
}

// VerifyToken parses a session token issued by this Authenticator
func (a *Authenticator) VerifyToken(_ context.Context, tokenString string) (Identity, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return Identity{}, newError(KindUnauthenticated, "verifyToken", authCollection, "", err)
	}
	return Identity{UID: claims.UID, Email: claims.Email, Provider: claims.Provider, Token: tokenString}, nil
}

// SignOut revokes provider refresh tokens for federated identities.
// Password sessions are stateless and simply dropped by the caller.
func (a *Authenticator) SignOut(ctx context.Context, identity Identity) error {
	if identity.Provider != models.ProviderGoogle || a.federated == nil {
		return nil
	}
	if err := a.federated.RevokeRefreshTokens(ctx, identity.UID); err != nil {
		return newError(KindNetwork, "signOut", authCollection, identity.UID, err)
	}
	return nil
}

func (a *Authenticator) issue(identity Identity) (Identity, error) {
	now := a.now()
	claims := &models.SessionClaims{
		UID:      identity.UID,
		Email:    identity.Email,
		Provider: identity.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Identity{}, newError(KindInternal, "issueToken", authCollection, identity.UID, err)
	}
	identity.Token = signed
	return identity, nil
}
