package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "SPENDWISE_"

// geminiKeyEnv is the variable name the hosted Gemini tooling uses for its key.
// It is honoured when advisor.apikey is not set explicitly.
const geminiKeyEnv = "GEMINI_API_KEY"

type Application struct {
	Host     string   `koanf:"host"`
	Addr     string   `koanf:"addr"`
	Frontend Frontend `koanf:"frontend"`
	Google   Google   `koanf:"google"`
	Database Database `koanf:"db"`
	Session  Session  `koanf:"session"`
	Budget   Budget   `koanf:"budget"`
	Currency Currency `koanf:"currency"`
	Advisor  Advisor  `koanf:"advisor"`
}

type Frontend struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

// Enabled reports whether Google login can be offered at all.
func (g Google) Enabled() bool {
	return g.ClientId != "" && g.ClientSecret != ""
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Session struct {
	CookieName   string        `koanf:"cookiename"`
	TTL          time.Duration `koanf:"ttl"`
	SecureCookie bool          `koanf:"securecookie"`
}

type Budget struct {
	// DefaultGoal is the budget goal every new session starts with.
	DefaultGoal string `koanf:"defaultgoal"`
}

type Currency struct {
	Symbol   string `koanf:"symbol"`
	Language string `koanf:"language"`
}

type Advisor struct {
	ApiKey            string        `koanf:"apikey"`
	BaseUrl           string        `koanf:"baseurl"`
	ApiVersion        string        `koanf:"apiversion"`
	Models            []string      `koanf:"models"`
	SystemInstruction string        `koanf:"systeminstruction"`
	Timeout           time.Duration `koanf:"timeout"`
}

// DefaultModels is the candidate order tried when none is configured.
var DefaultModels = []string{"gemini-1.5-flash-latest", "gemini-2.0-flash", "gemini-1.5-flash"}

const DefaultSystemInstruction = "You are a friendly savings advisor for university students in India. " +
	"All amounts are Indian Rupees: always write money with the ₹ symbol and never convert to, " +
	"or print, any other currency symbol such as $ or €. Keep advice short, practical and specific to the expenses given."

func defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Addr: ":8181",
		Frontend: Frontend{
			Enabled: true,
			Dir:     "frontend",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "spendwise",
			Pass:   "",
			Name:   "spendwise",
			Schema: "spendwise",
		},
		Session: Session{
			CookieName: "spendwise_session",
			TTL:        12 * time.Hour,
		},
		Budget: Budget{
			DefaultGoal: "5000",
		},
		Currency: Currency{
			Symbol:   "₹",
			Language: "en-IN",
		},
		Advisor: Advisor{
			ApiVersion:        "v1beta",
			Models:            DefaultModels,
			SystemInstruction: DefaultSystemInstruction,
			Timeout:           30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and SPENDWISE_* environment
// variables, in that order. An optional .env file next to the process is loaded first.
func Load(path string) (Application, error) {
	var k = koanf.New(".")

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("No .env file found, skipping")
		} else {
			log.Errorf("error loading .env file: %v", err)
			return Application{}, err
		}
	} else {
		log.Info("Loaded environment from .env file")
	}

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			// comma separated lists, e.g. SPENDWISE_ADVISOR_MODELS=a,b,c
			if k == "advisor.models" {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	if app.Advisor.ApiKey == "" {
		app.Advisor.ApiKey = strings.TrimSpace(os.Getenv(geminiKeyEnv))
	}
	app.Advisor.Models = normalizeModels(app.Advisor.Models)

	return app, nil
}

func normalizeModels(models []string) []string {
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}
