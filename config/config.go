package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

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

type AssistantConfig struct {
	Url     string `yaml:"url" json:"url"`
	Timeout int    `yaml:"timeout" json:"timeout"` // seconds
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System    SysConfig       `yaml:"system" json:"system"`
	Web       WebConfig       `yaml:"web" json:"web"`
	Database  DBConfig        `yaml:"database" json:"database"`
	Assistant AssistantConfig `yaml:"assistant" json:"assistant"`
	Logger    LogConfig       `yaml:"logger" json:"logger"`
}

// SessionDir is the local session directory written by the WhatsApp client
// and snapshotted to the remote store.
func (c *AppConfig) SessionDir() string {
	return filepath.Join(c.System.Workdir, "session")
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "warelay",
		Location: "Asia/Jakarta",
		Workdir:  "/var/warelay",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 8090,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "warelay",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  50,
		IdleConn: 10,
	},
	Assistant: AssistantConfig{
		Url:     "",
		Timeout: 30,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/warelay/warelay.log",
	},
}

func setEnvValue(name string, val *string) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = evalue
	}
}

func setEnvIntValue(name string, val *int) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = cast.ToInt(evalue)
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = cast.ToBool(evalue)
	}
}

// LoadConfig reads the yaml configuration file if one exists and applies
// WARELAY_* environment overrides on top of the defaults.
func LoadConfig(cfile string) *AppConfig {
	if cfile == "" {
		cfile = "warelay.yml"
	}
	cfg := DefaultAppConfig
	if _, err := os.Stat(cfile); err == nil {
		data, err := os.ReadFile(cfile)
		if err != nil {
			panic(err)
		}
		cfg = new(AppConfig)
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(err)
		}
	}

	setEnvValue("WARELAY_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("WARELAY_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("WARELAY_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("WARELAY_WEB_PORT", &cfg.Web.Port)

	setEnvValue("WARELAY_DB_TYPE", &cfg.Database.Type)
	setEnvValue("WARELAY_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("WARELAY_DB_PORT", &cfg.Database.Port)
	setEnvValue("WARELAY_DB_NAME", &cfg.Database.Name)
	setEnvValue("WARELAY_DB_USER", &cfg.Database.User)
	setEnvValue("WARELAY_DB_PWD", &cfg.Database.Passwd)

	setEnvValue("WARELAY_ASSISTANT_URL", &cfg.Assistant.Url)
	setEnvIntValue("WARELAY_ASSISTANT_TIMEOUT", &cfg.Assistant.Timeout)

	setEnvValue("WARELAY_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("WARELAY_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("WARELAY_LOGGER_FILENAME", &cfg.Logger.Filename)

	return cfg
}

// Validate checks the remote store credentials, which are the only settings
// with no usable default in production.
func (c *AppConfig) Validate() error {
	if c.Database.Type == "postgres" {
		if c.Database.User == "" || c.Database.Passwd == "" {
			return fmt.Errorf("database user and password are required (WARELAY_DB_USER / WARELAY_DB_PWD)")
		}
	}
	return nil
}
