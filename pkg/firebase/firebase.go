package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/devconnect/backend/pkg/logger"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when no credentials file is set.
var ErrNotConfigured = errors.New("firebase credentials path not provided")

// Identity is what a verified Firebase ID token tells us about its holder.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// TokenVerifier checks Firebase ID tokens. The auth handler depends on this
// rather than on the SDK client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logger.Log.Info("Firebase app and auth client initialized")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// VerifyIDToken implements TokenVerifier.
func (a *App) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := a.AuthClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return identityFromClaims(token.UID, token.Claims)
}

func identityFromClaims(uid string, claims map[string]interface{}) (*Identity, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New("firebase token has no email claim")
	}
	name, _ := claims["name"].(string)
	return &Identity{UID: uid, Email: email, Name: name}, nil
}
