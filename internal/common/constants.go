package common

// Class labels emitted by the ensemble, in model output order.
const (
	LabelFalsePositive = "FALSE POSITIVE"
	LabelCandidate     = "CANDIDATE"
	LabelConfirmed     = "CONFIRMED"
	LabelError         = "ERROR"
)

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvModelPath      = "EXOSCAN_MODEL_PATH"
	EnvDataPath       = "EXOSCAN_DATA_PATH"
	EnvAPIPort        = "EXOSCAN_API_PORT"
	EnvMetricsPort    = "EXOSCAN_METRICS_PORT"
	EnvBatchWorkers   = "EXOSCAN_BATCH_WORKERS"
	EnvMaxBatchSize   = "EXOSCAN_MAX_BATCH_SIZE"
	EnvRequestTimeout = "EXOSCAN_REQUEST_TIMEOUT"
	EnvAllowedOrigins = "EXOSCAN_ALLOWED_ORIGINS"
	EnvLogLevel       = "EXOSCAN_LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultModelPath       = "trained_models"
	DefaultAPIPort         = 8000
	DefaultMetricsPort     = 9090
	DefaultMaxBatchSize    = 10000
	DefaultRequestTimeout  = "300s"
	DefaultLogLevel        = "info"
	DefaultDashboardOrigin = "http://localhost:3000"
	DefaultDevServerOrigin = "http://localhost:5173"
)

// Validation constants
const (
	MinPort = 1
	MaxPort = 65535
)
