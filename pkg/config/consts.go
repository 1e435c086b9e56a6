package config

// EnvPrefix scopes every environment variable consumed by this service.
const EnvPrefix = "SHOPLEDGER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SHOPLEDGER_DB_DSN"
	EnvDBHost = "SHOPLEDGER_DB_HOST"
	EnvDBUser = "SHOPLEDGER_DB_USER"
	EnvDBName = "SHOPLEDGER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
