package config

// EnvPrefix is handed to envconfig; every field also declares its full variable name.
const EnvPrefix = "PACKFINDERZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                = "PACKFINDERZ_APP_ENV"
	EnvPort                  = "PACKFINDERZ_APP_PORT"
	EnvLogLevel              = "PACKFINDERZ_LOG_LEVEL"
	EnvStorageDriver         = "PACKFINDERZ_STORAGE_DRIVER"
	EnvStorageNamespace      = "PACKFINDERZ_STORAGE_NAMESPACE"
	EnvRedisURL              = "PACKFINDERZ_REDIS_URL"
	EnvRedisAddr             = "PACKFINDERZ_REDIS_ADDR"
	EnvDBDriver              = "PACKFINDERZ_DB_DRIVER"
	EnvDBDSN                 = "PACKFINDERZ_DB_DSN"
	EnvBackendBaseURL        = "PACKFINDERZ_BACKEND_BASE_URL"
	EnvBackendRequestTimeout = "PACKFINDERZ_BACKEND_REQUEST_TIMEOUT"
	EnvCheckoutTimeout       = "PACKFINDERZ_CHECKOUT_TIMEOUT"
	EnvCheckoutShippingFee   = "PACKFINDERZ_CHECKOUT_SHIPPING_FEE"
)

const (
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"
	StorageDriverMemory = "memory"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)
