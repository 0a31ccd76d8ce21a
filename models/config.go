package models

// Config holds the settings loaded from config.json at startup.
// AdminUserID is fixed here and immutable for the life of the process.
type Config struct {
	DBHost     string `json:"db_host"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_sslmode"`

	AdminUserID           string `json:"admin_user_id"`
	AssetSymbol           string `json:"asset_symbol"`
	DecisionWindowSeconds int    `json:"decision_window_seconds"`
}
