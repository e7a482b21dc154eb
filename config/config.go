package config

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system settings
type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
	SeedDemo bool   `yaml:"seed_demo" json:"seed_demo"`
}

// WebConfig admin and storefront http server
type WebConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Secret   string `yaml:"secret" json:"secret"`
	TokenTTL int    `yaml:"token_ttl" json:"token_ttl"` // hours
}

// DBConfig Database config
type DBConfig struct {
	Type     string `yaml:"type" json:"type"` // postgres or sqlite
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// MailConfig SMTP settings used for order receipts
type MailConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

// ShippingConfig courier rate provider
type ShippingConfig struct {
	BaseURL  string `yaml:"base_url" json:"base_url"`
	APIKey   string `yaml:"api_key" json:"api_key"`
	Timeout  int    `yaml:"timeout" json:"timeout"` // seconds
	Attempts int    `yaml:"attempts" json:"attempts"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" json:"system"`
	Web      WebConfig      `yaml:"web" json:"web"`
	Database DBConfig       `yaml:"database" json:"database"`
	Logger   LogConfig      `yaml:"logger" json:"logger"`
	Mail     MailConfig     `yaml:"mail" json:"mail"`
	Shipping ShippingConfig `yaml:"shipping" json:"shipping"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.GetLogDir(), 0o755)
	_ = os.MkdirAll(c.GetDataDir(), 0o755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "Marobi",
		Location: "Africa/Lagos",
		Workdir:  "/var/marobi",
		Debug:    true,
	},
	Web: WebConfig{
		Host:     "0.0.0.0",
		Port:     8080,
		Secret:   "9b6de5cc-0731-4bfc-8bd1-6a0b16e2f8a2",
		TokenTTL: 12,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "marobi",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/marobi/logs/marobi.log",
	},
	Mail: MailConfig{
		Host: "127.0.0.1",
		Port: 587,
		From: "Marobi <orders@marobi.local>",
	},
	Shipping: ShippingConfig{
		BaseURL:  "https://api.shipbubble.com/v1",
		Timeout:  15,
		Attempts: 3,
	},
}

// LoadConfig reads the yaml file when it exists, falls back to the defaults
// otherwise, and finally applies MAROBI_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile == "" {
		cfile = "marobi.yml"
	}
	if _, err := os.Stat(cfile); err == nil {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	}
	applyEnv(&cfg)
	return &cfg, nil
}

// MustLoad is LoadConfig that also prepares the work directories and
// panics on error. Used by the command line entrypoint.
func MustLoad(cfile string) *AppConfig {
	cfg, err := LoadConfig(cfile)
	if err != nil {
		panic(err)
	}
	cfg.initDirs()
	return cfg
}

func setEnvValue(name string, val *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = v
	}
}

func setEnvInt(name string, val *int) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if p, err := cast.ToIntE(v); err == nil {
			*val = p
		}
	}
}

func setEnvBool(name string, val *bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if p, err := cast.ToBoolE(v); err == nil {
			*val = p
		}
	}
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("MAROBI_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("MAROBI_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBool("MAROBI_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvBool("MAROBI_SYSTEM_SEED_DEMO", &cfg.System.SeedDemo)

	setEnvValue("MAROBI_WEB_HOST", &cfg.Web.Host)
	setEnvInt("MAROBI_WEB_PORT", &cfg.Web.Port)
	setEnvValue("MAROBI_WEB_SECRET", &cfg.Web.Secret)

	setEnvValue("MAROBI_DB_TYPE", &cfg.Database.Type)
	setEnvValue("MAROBI_DB_HOST", &cfg.Database.Host)
	setEnvInt("MAROBI_DB_PORT", &cfg.Database.Port)
	setEnvValue("MAROBI_DB_NAME", &cfg.Database.Name)
	setEnvValue("MAROBI_DB_USER", &cfg.Database.User)
	setEnvValue("MAROBI_DB_PWD", &cfg.Database.Passwd)
	setEnvBool("MAROBI_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("MAROBI_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBool("MAROBI_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvValue("MAROBI_MAIL_HOST", &cfg.Mail.Host)
	setEnvInt("MAROBI_MAIL_PORT", &cfg.Mail.Port)
	setEnvValue("MAROBI_MAIL_USERNAME", &cfg.Mail.Username)
	setEnvValue("MAROBI_MAIL_PASSWORD", &cfg.Mail.Password)
	setEnvValue("MAROBI_MAIL_FROM", &cfg.Mail.From)

	setEnvValue("MAROBI_SHIPPING_BASE_URL", &cfg.Shipping.BaseURL)
	setEnvValue("MAROBI_SHIPPING_API_KEY", &cfg.Shipping.APIKey)
	setEnvInt("MAROBI_SHIPPING_ATTEMPTS", &cfg.Shipping.Attempts)
}
