package utils

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/sharath018/campus-events-backend/config"
)

// NewFirebaseApp initializes the Firebase Admin SDK from the service account file.
// The returned app backs FCM push, ID token verification and storage.
func NewFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	credentialsPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credentialsPath == "" {
		credentialsPath = cfg.FCMCredentialsPath
	}
	if credentialsPath == "" {
		credentialsPath = "./serviceAccountKey.json"
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found: %s", credentialsPath)
	}
	if cfg.FCMProjectID == "" {
		return nil, fmt.Errorf("FCM_PROJECT_ID is required for firebase")
	}

	fbCfg := &firebase.Config{ProjectID: cfg.FCMProjectID}
	if cfg.FirebaseStorageBucket != "" {
		fbCfg.StorageBucket = cfg.FirebaseStorageBucket
	}

	app, err := firebase.NewApp(ctx, fbCfg, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase app initialization failed: %w", err)
	}
	return app, nil
}
