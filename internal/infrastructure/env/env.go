package env

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	SenderEmailKey    = "SENDER_EMAIL"
	SenderPasswordKey = "SENDER_PASSWORD"
)

// EnvService exposes process environment after loading .env files. Secrets
// such as SMTP credentials live in .env; per-environment overrides in
// .env.<APP_ENV>.
type EnvService struct {
	appEnv string
	loaded []string
}

// SenderCredentials authenticate the mailbox the merged output is sent from.
type SenderCredentials struct {
	Email    string
	Password string
}

// NewEnvServiceIn loads .env and .env.<APP_ENV> from dir. Missing files are
// not an error. Variables already set in the process win over .env, the
// overlay wins over both.
func NewEnvServiceIn(dir string) *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	s := &EnvService{appEnv: appEnv}

	base := filepath.Join(dir, ".env")
	if err := godotenv.Load(base); err == nil {
		s.loaded = append(s.loaded, base)
	}

	overlay := base + "." + appEnv
	if err := godotenv.Overload(overlay); err == nil {
		s.loaded = append(s.loaded, overlay)
	}

	return s
}

func (e *EnvService) AppEnv() string {
	return e.appEnv
}

// Loaded lists the env files that were found and applied.
func (e *EnvService) Loaded() []string {
	return e.loaded
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

// Sender returns the SMTP login. Either field may be empty; the notifier
// rejects incomplete credentials at send time.
func (e *EnvService) Sender() SenderCredentials {
	return SenderCredentials{
		Email:    os.Getenv(SenderEmailKey),
		Password: os.Getenv(SenderPasswordKey),
	}
}
