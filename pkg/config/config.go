package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App         AppConfig
	HTTP        HTTPConfig
	DB          DBConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	JWT         JWTConfig
	SMTP        SMTPConfig
	Scheduler   SchedulerConfig
	Reservation ReservationConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL (usuarios y facturación).
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	Migrate     bool // aplica migraciones goose al arrancar
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// Modos de transacción para MongoDB.
const (
	TxModeAuto     = "auto"     // usa transacciones si el despliegue las soporta; si no, ruta degradada
	TxModeRequired = "required" // sin transacciones las operaciones de reserva fallan
	TxModeDisabled = "disabled" // fuerza la ruta sin transacciones
)

// MongoConfig configuración del almacén operativo (inventario, reservas, citas).
// URI vacío usa el almacén en memoria (solo desarrollo).
type MongoConfig struct {
	URI          string
	Database     string
	Transactions string
	Timeout      time.Duration
}

// RedisConfig configuración de Redis para los locks de la ruta sin transacciones.
// Addr vacío usa locks en proceso.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// KafkaConfig configuración del publicador de eventos. Sin brokers no se publica nada.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// SMTPConfig configuración del correo saliente. Host vacío solo registra los mensajes en el log.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// SchedulerConfig intervalos de los jobs programados.
type SchedulerConfig struct {
	Enabled         bool
	AutoCancelEvery time.Duration
	ExpiryEvery     time.Duration
	RemindersEvery  time.Duration
	JobTimeout      time.Duration
}

// ReservationConfig parámetros del gestor de reservas.
type ReservationConfig struct {
	LockTimeout time.Duration
	ExpiryBatch int
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, MONGO_URI, DB_HOST, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "evcenter-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "evcenter"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			Migrate:     getBool(v, "DB_MIGRATE", true),
		},
		Mongo: MongoConfig{
			URI:          getString(v, "MONGO_URI", ""),
			Database:     getString(v, "MONGO_DATABASE", "evcenter"),
			Transactions: strings.ToLower(getString(v, "MONGO_TRANSACTIONS", TxModeAuto)),
			Timeout:      getDuration(v, "MONGO_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			LockTTL:  getDuration(v, "REDIS_LOCK_TTL", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:   getString(v, "KAFKA_TOPIC", "evcenter.events"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "evcenter-api"),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", "no-reply@evcenter.local"),
			Timeout:  getDuration(v, "SMTP_TIMEOUT", 30*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:         getBool(v, "SCHEDULER_ENABLED", true),
			AutoCancelEvery: getDuration(v, "SCHEDULER_AUTO_CANCEL_EVERY", time.Minute),
			ExpiryEvery:     getDuration(v, "SCHEDULER_RESERVATION_EXPIRY_EVERY", 5*time.Minute),
			RemindersEvery:  getDuration(v, "SCHEDULER_REMINDERS_EVERY", 15*time.Minute),
			JobTimeout:      getDuration(v, "SCHEDULER_JOB_TIMEOUT", 2*time.Minute),
		},
		Reservation: ReservationConfig{
			LockTimeout: getDuration(v, "RESERVATION_LOCK_TIMEOUT", 5*time.Second),
			ExpiryBatch: getInt(v, "RESERVATION_EXPIRY_BATCH", 200),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate revisa combinaciones inválidas que impedirían arrancar.
func (c *Config) Validate() error {
	switch c.Mongo.Transactions {
	case TxModeAuto, TxModeRequired, TxModeDisabled:
	default:
		return fmt.Errorf("config: MONGO_TRANSACTIONS inválido %q (auto|required|disabled)", c.Mongo.Transactions)
	}
	if c.App.Env == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET es obligatorio en producción")
	}
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("config: HTTP_PORT inválido %d", c.HTTP.Port)
	}
	if c.Reservation.ExpiryBatch <= 0 {
		c.Reservation.ExpiryBatch = 200
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

// getDuration acepta "90s", "5m" o un número de segundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
