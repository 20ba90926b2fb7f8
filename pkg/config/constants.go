package config

// EnvPrefix is the envconfig prefix shared by every entrypoint.
const EnvPrefix = "teahouse"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverSQL    = "sql"
	StoreDriverRedis  = "redis"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)
