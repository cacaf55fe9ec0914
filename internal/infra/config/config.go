// internal/infra/config/config.go
package config

import "os"

// Config holds the environment configuration for the storefront service.
type Config struct {
	Port string

	GCPCreds                 string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string

	// CartCachePath is the sqlite file backing the local cart mirror.
	CartCachePath string

	CatalogBaseURL string

	// SendGridAPIKey wins when set; otherwise SendGridAPIKeySecret names a
	// Secret Manager secret to resolve it from.
	SendGridAPIKey       string
	SendGridAPIKeySecret string
	MailFrom             string
}

// Load reads configuration from the environment.
func Load() *Config {
	defaultProject := os.Getenv("GCP_PROJECT_ID")

	return &Config{
		Port: getenvDefault("PORT", "8080"),

		GCPCreds:                 os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		CartCachePath: getenvDefault("CART_CACHE_PATH", "shopez-cart-cache.db"),

		CatalogBaseURL: getenvDefault("CATALOG_BASE_URL", "https://fakestoreapi.com"),

		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		SendGridAPIKeySecret: os.Getenv("SENDGRID_API_KEY_SECRET"),
		MailFrom:             os.Getenv("MAIL_FROM"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
