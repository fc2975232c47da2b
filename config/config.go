package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system" json:"system"`
	Web      WebConfig `yaml:"web" json:"web"`
	Database DBConfig  `yaml:"database" json:"database"`
	Logger   LogConfig `yaml:"logger" json:"logger"`
}

// placeholder values shipped in sample config files; treated the same
// as missing credentials.
var placeholderValues = map[string]bool{
	"": true, "changeme": true, "your-database-host": true, "example": true,
}

// DatabaseConfigured reports whether real database credentials are
// present. When false the application falls back to an embedded demo
// dataset instead of failing startup.
func (c *AppConfig) DatabaseConfigured() bool {
	if strings.EqualFold(c.Database.Type, "sqlite") {
		return c.Database.Name != ""
	}
	return !placeholderValues[strings.TrimSpace(c.Database.Host)] &&
		!placeholderValues[strings.TrimSpace(c.Database.User)]
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "DeliverDesk",
		Location: "America/Sao_Paulo",
		Workdir:  "/var/deliverdesk",
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		JwtSecret: "9b6de5cc-0001-1203-xxtt-0f568ac9da37",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "",
		Port:     5432,
		Name:     "deliverdesk",
		User:     "",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/deliverdesk/deliverdesk.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	if v := os.Getenv(name); v != "" {
		f(v)
	}
}

// LoadConfig reads the yaml config file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("DELIVERDESK_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("DELIVERDESK_SYSTEM_LOCATION", func(v string) { cfg.System.Location = v })
	setEnvValue("DELIVERDESK_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvValue("DELIVERDESK_WEB_SECRET", func(v string) { cfg.Web.JwtSecret = v })
	setEnvValue("DELIVERDESK_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("DELIVERDESK_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvValue("DELIVERDESK_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("DELIVERDESK_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("DELIVERDESK_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("DELIVERDESK_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })

	return cfg
}
