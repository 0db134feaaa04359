// Пакет config — загрузка и валидация конфигурации Receiver Portal
// из переменных окружения (и опционального .env файла).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Допустимые бэкенды session-хранилища.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config содержит все параметры конфигурации Receiver Portal.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешённые origins для CORS (через запятую, пусто — CORS выключен)
	CORSAllowedOrigins []string

	// --- Внешний API (recycling requests, users, notifications) ---

	// Базовый URL внешнего API (например, https://recycle.example.com)
	APIBaseURL string
	// Таймаут HTTP-запросов к внешнему API
	APITimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с API (опционально)
	APICACertPath string
	// Путь health check API для readiness и topologymetrics
	APIHealthPath string

	// --- Сессии и хранилища ---

	// URL страницы входа внешнего IdP
	SignInURL string
	// Секрет шифрования cookie local-хранилища (AES-256-GCM)
	SessionSecret string
	// Использовать Secure flag для cookie
	SecureCookie bool
	// Время жизни cookie local-хранилища (аналог localStorage)
	LocalStoreMaxAge time.Duration
	// Бэкенд session-хранилища: memory, redis
	SessionStore string
	// TTL записей session-хранилища
	SessionTTL time.Duration
	// Максимальное число записей session-хранилища в памяти
	SessionStoreSize int
	// Адрес Redis (host:port)
	RedisAddr string
	// Пароль Redis
	RedisPassword string
	// Номер БД Redis
	RedisDB int

	// --- Identity hand-off ---

	// URL JWKS внешнего IdP (пусто — hand-off отключён)
	IDPJWKSURL string
	// Ожидаемый issuer hand-off токена (опционально)
	IDPIssuer string
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- Dashboard ---

	// Показывать альтернативный контактный номер
	DashboardAlternateContact bool
	// Показывать особые инструкции по вывозу
	DashboardSpecialInstructions bool
	// Разрешить режим редактирования (повторная загрузка подтверждения)
	DashboardAllowEdit bool
	// Максимальный размер файла подтверждения в байтах
	ProofMaxBytes int64

	// --- Кэши ---

	// Максимальное количество записей кэша справочника пользователей
	DirectoryCacheSize int
	// TTL записей кэша справочника пользователей
	DirectoryCacheTTL time.Duration
	// Максимальное количество списков заявок в памяти (по одному на получателя)
	ListCacheSize int
	// TTL списков заявок в памяти
	ListCacheTTL time.Duration

	// --- topologymetrics ---

	// Группа в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Если рядом лежит .env — переменные из него подгружаются, но не
// перекрывают уже заданные в окружении.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// RP_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("RP_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("RP_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("RP_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, cfg.LogFormat, err = loadLogging()
	if err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("RP_CORS_ALLOWED_ORIGINS", ""))

	// --- Внешний API ---

	// RP_API_BASE_URL — обязательный
	cfg.APIBaseURL, err = getEnvRequired("RP_API_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return nil, fmt.Errorf("RP_API_BASE_URL: ожидается http(s) URL, получено %q", cfg.APIBaseURL)
	}

	cfg.APITimeout, err = getEnvDuration("RP_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RP_API_TIMEOUT: %w", err)
	}

	cfg.APICACertPath = getEnvDefault("RP_API_CA_CERT_PATH", "")

	cfg.APIHealthPath = getEnvDefault("RP_API_HEALTH_PATH", "/")
	if !strings.HasPrefix(cfg.APIHealthPath, "/") {
		cfg.APIHealthPath = "/" + cfg.APIHealthPath
	}

	// --- Сессии и хранилища ---

	cfg.SignInURL = getEnvDefault("RP_SIGN_IN_URL", "/sign-in")
	cfg.SessionSecret = getEnvDefault("RP_SESSION_SECRET", "")

	cfg.SecureCookie, err = getEnvBool("RP_SECURE_COOKIE", strings.HasPrefix(cfg.APIBaseURL, "https"))
	if err != nil {
		return nil, fmt.Errorf("RP_SECURE_COOKIE: %w", err)
	}

	// RP_LOCAL_STORE_MAX_AGE — срок жизни local-хранилища (по умолчанию 30 дней)
	cfg.LocalStoreMaxAge, err = getEnvDuration("RP_LOCAL_STORE_MAX_AGE", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RP_LOCAL_STORE_MAX_AGE: %w", err)
	}

	cfg.SessionStore = strings.ToLower(getEnvDefault("RP_SESSION_STORE", SessionStoreMemory))
	if cfg.SessionStore != SessionStoreMemory && cfg.SessionStore != SessionStoreRedis {
		return nil, fmt.Errorf("RP_SESSION_STORE: недопустимое значение %q, допустимые: memory, redis", cfg.SessionStore)
	}

	cfg.SessionTTL, err = getEnvDuration("RP_SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RP_SESSION_TTL: %w", err)
	}

	// RP_SESSION_STORE_SIZE — лимит записей memory-хранилища (по всем браузерам)
	cfg.SessionStoreSize, err = getEnvInt("RP_SESSION_STORE_SIZE", 2000)
	if err != nil {
		return nil, fmt.Errorf("RP_SESSION_STORE_SIZE: %w", err)
	}
	if cfg.SessionStoreSize <= 0 {
		return nil, fmt.Errorf("RP_SESSION_STORE_SIZE: значение %d должно быть больше 0", cfg.SessionStoreSize)
	}

	cfg.RedisAddr = getEnvDefault("RP_REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvDefault("RP_REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvInt("RP_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("RP_REDIS_DB: %w", err)
	}
	if cfg.RedisDB < 0 || cfg.RedisDB > 15 {
		return nil, fmt.Errorf("RP_REDIS_DB: значение %d вне допустимого диапазона 0-15", cfg.RedisDB)
	}

	// --- Identity hand-off ---

	cfg.IDPJWKSURL = getEnvDefault("RP_IDP_JWKS_URL", "")
	cfg.IDPIssuer = getEnvDefault("RP_IDP_ISSUER", "")
	cfg.JWTLeeway, err = getEnvDuration("RP_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RP_JWT_LEEWAY: %w", err)
	}

	// --- Dashboard ---

	cfg.DashboardAlternateContact, err = getEnvBool("RP_DASHBOARD_ALTERNATE_CONTACT", true)
	if err != nil {
		return nil, fmt.Errorf("RP_DASHBOARD_ALTERNATE_CONTACT: %w", err)
	}
	cfg.DashboardSpecialInstructions, err = getEnvBool("RP_DASHBOARD_SPECIAL_INSTRUCTIONS", true)
	if err != nil {
		return nil, fmt.Errorf("RP_DASHBOARD_SPECIAL_INSTRUCTIONS: %w", err)
	}
	cfg.DashboardAllowEdit, err = getEnvBool("RP_DASHBOARD_ALLOW_EDIT", false)
	if err != nil {
		return nil, fmt.Errorf("RP_DASHBOARD_ALLOW_EDIT: %w", err)
	}

	// RP_PROOF_MAX_BYTES — лимит размера изображения (по умолчанию 5 MiB)
	proofMax, err := getEnvInt("RP_PROOF_MAX_BYTES", 5<<20)
	if err != nil {
		return nil, fmt.Errorf("RP_PROOF_MAX_BYTES: %w", err)
	}
	if proofMax < 1024 {
		return nil, fmt.Errorf("RP_PROOF_MAX_BYTES: значение %d меньше минимума 1024", proofMax)
	}
	cfg.ProofMaxBytes = int64(proofMax)

	// --- Кэши ---

	cfg.DirectoryCacheSize, err = getEnvInt("RP_DIRECTORY_CACHE_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("RP_DIRECTORY_CACHE_SIZE: %w", err)
	}
	if cfg.DirectoryCacheSize < 1 {
		return nil, fmt.Errorf("RP_DIRECTORY_CACHE_SIZE: значение %d должно быть больше 0", cfg.DirectoryCacheSize)
	}
	cfg.DirectoryCacheTTL, err = getEnvDuration("RP_DIRECTORY_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RP_DIRECTORY_CACHE_TTL: %w", err)
	}

	cfg.ListCacheSize, err = getEnvInt("RP_LIST_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("RP_LIST_CACHE_SIZE: %w", err)
	}
	if cfg.ListCacheSize < 1 {
		return nil, fmt.Errorf("RP_LIST_CACHE_SIZE: значение %d должно быть больше 0", cfg.ListCacheSize)
	}
	cfg.ListCacheTTL, err = getEnvDuration("RP_LIST_CACHE_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RP_LIST_CACHE_TTL: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("RP_DEPHEALTH_GROUP", "recycleit")
	cfg.DephealthCheckInterval, err = getEnvDuration("RP_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RP_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("RP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RP_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// BackfillConfig — параметры одноразового скрипта backfill.
type BackfillConfig struct {
	// Уровень логирования
	LogLevel slog.Level
	// Формат логов
	LogFormat string
	// URI подключения к MongoDB
	MongoURI string
	// Имя базы данных
	MongoDatabase string
	// Имя коллекции заявок на переработку
	MongoCollection string
	// Общий таймаут выполнения
	Timeout time.Duration
}

// LoadBackfill загружает конфигурацию скрипта backfill.
func LoadBackfill() (*BackfillConfig, error) {
	loadDotEnv()

	cfg := &BackfillConfig{}
	var err error

	cfg.LogLevel, cfg.LogFormat, err = loadLogging()
	if err != nil {
		return nil, err
	}

	cfg.MongoURI, err = getEnvRequired("RP_MONGO_URI")
	if err != nil {
		return nil, err
	}

	cfg.MongoDatabase, err = getEnvRequired("RP_MONGO_DATABASE")
	if err != nil {
		return nil, err
	}

	// Коллекция mongoose-модели RecyclingRequest
	cfg.MongoCollection = getEnvDefault("RP_MONGO_COLLECTION", "recyclingrequests")

	cfg.Timeout, err = getEnvDuration("RP_BACKFILL_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RP_BACKFILL_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер.
func SetupLogger(level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// loadDotEnv подгружает .env, если файл есть. Отсутствие файла — не ошибка.
func loadDotEnv() {
	envFile := getEnvDefault("RP_ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("Не удалось прочитать .env файл",
			slog.String("path", envFile),
			slog.String("error", err.Error()),
		)
	}
}

// loadLogging читает RP_LOG_LEVEL и RP_LOG_FORMAT.
func loadLogging() (slog.Level, string, error) {
	level, err := parseLogLevel(getEnvDefault("RP_LOG_LEVEL", "info"))
	if err != nil {
		return level, "", fmt.Errorf("RP_LOG_LEVEL: %w", err)
	}

	format := getEnvDefault("RP_LOG_FORMAT", "json")
	if format != "json" && format != "text" {
		return level, "", fmt.Errorf("RP_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", format)
	}
	return level, format, nil
}

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
