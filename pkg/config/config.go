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
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Reminder ReminderConfig
	SMTP     SMTPConfig
	WhatsApp WhatsAppConfig
	Redis    RedisConfig
	Agency   AgencyConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Timezone string // zona de la agencia; define qué es "hoy"
}

// Location resuelve Timezone; si no es válida cae a UTC.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo (ej. DATABASE_URL de Supabase).
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
	ForceIPv4   bool // contenedores sin IPv6 (Supabase resuelve solo AAAA)
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

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
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

// ReminderConfig ciclo de recordatorios de cobro.
type ReminderConfig struct {
	CadenceDays  int           // días entre recordatorios de una misma factura
	Workers      int           // envíos concurrentes por barrido
	SendTimeout  time.Duration // por llamada al canal de notificación
	StoreTimeout time.Duration // por escritura de auditoría + factura
	SweepAt      string        // HH:MM, barrido diario automático; vacío = desactivado
	LockTTL      time.Duration
}

// SMTPConfig canal email (primario).
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled indica si hay un servidor SMTP configurado.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

// WhatsAppConfig canal WhatsApp Cloud API (secundario, opcional).
type WhatsAppConfig struct {
	BaseURL       string
	PhoneNumberID string
	Token         string
	Timeout       time.Duration
}

// Enabled indica si el canal WhatsApp está configurado.
func (c WhatsAppConfig) Enabled() bool { return c.PhoneNumberID != "" && c.Token != "" }

// RedisConfig lock distribuido del barrido. Addr vacío = lock local del proceso.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AgencyConfig datos de la agencia emisora (PDF y firma de los recordatorios).
type AgencyConfig struct {
	Name    string
	TaxID   string
	Email   string
	Phone   string
	Address string
	Locale  string // BCP 47, formato de montos en los mensajes (ej: es-CO)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, REMINDER_WORKERS, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
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
			Name:     getString(v, "APP_NAME", "viajes-backoffice"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Timezone: getString(v, "APP_TIMEZONE", "America/Bogota"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "viajes_backoffice"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    int32(getInt(v, "DB_MAX_CONNS", 10)),
			ForceIPv4:   getString(v, "DB_FORCE_IPV4", "true") == "true",
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "viajes-backoffice"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Reminder: ReminderConfig{
			CadenceDays:  getInt(v, "REMINDER_CADENCE_DAYS", 7),
			Workers:      getInt(v, "REMINDER_WORKERS", 4),
			SendTimeout:  getDuration(v, "REMINDER_SEND_TIMEOUT", 15*time.Second),
			StoreTimeout: getDuration(v, "REMINDER_STORE_TIMEOUT", 5*time.Second),
			SweepAt:      getString(v, "REMINDER_SWEEP_AT", "09:00"),
			LockTTL:      getDuration(v, "REMINDER_LOCK_TTL", 10*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", "cobranzas@viajes.local"),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:       getString(v, "WHATSAPP_BASE_URL", "https://graph.facebook.com/v19.0"),
			PhoneNumberID: getString(v, "WHATSAPP_PHONE_NUMBER_ID", ""),
			Token:         getString(v, "WHATSAPP_TOKEN", ""),
			Timeout:       getDuration(v, "WHATSAPP_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Agency: AgencyConfig{
			Name:    getString(v, "AGENCY_NAME", "Viajes Back-Office"),
			TaxID:   getString(v, "AGENCY_TAX_ID", ""),
			Email:   getString(v, "AGENCY_EMAIL", ""),
			Phone:   getString(v, "AGENCY_PHONE", ""),
			Address: getString(v, "AGENCY_ADDRESS", ""),
			Locale:  getString(v, "AGENCY_LOCALE", "es-CO"),
		},
	}

	if cfg.Reminder.CadenceDays <= 0 {
		return nil, fmt.Errorf("config: REMINDER_CADENCE_DAYS debe ser > 0, recibido %d", cfg.Reminder.CadenceDays)
	}
	if cfg.Reminder.Workers <= 0 {
		cfg.Reminder.Workers = 1
	}
	if cfg.Reminder.SweepAt != "" {
		if _, _, err := ParseClock(cfg.Reminder.SweepAt); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ParseClock interpreta "HH:MM".
func ParseClock(s string) (hour, minute uint, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("config: hora inválida %q (formato HH:MM)", s)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
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

// getDuration acepta "15s", "2m" o un entero en segundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
