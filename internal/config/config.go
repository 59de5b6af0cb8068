package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Port             string
	Env              string
	GatewayURL       string
	GatewaySecretKey string
	GatewayTimeout   time.Duration
	RetryMaxAttempts int
	RetryDelay       time.Duration
	LedgerBackend    string
	DBSource         string
	BoltPath         string
}

func Load() (*Config, error) {
	gatewayURL := os.Getenv("GATEWAY_URL")
	if gatewayURL == "" {
		return nil, fmt.Errorf("GATEWAY_URL environment variable is required")
	}

	secretKey := os.Getenv("GATEWAY_SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("GATEWAY_SECRET_KEY environment variable is required")
	}

	backend := os.Getenv("LEDGER_BACKEND")
	if backend == "" {
		backend = "memory"
	}
	switch backend {
	case "memory", "postgres", "bolt":
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q (want memory, postgres or bolt)", backend)
	}

	dbSource := os.Getenv("DB_SOURCE")
	if backend == "postgres" && dbSource == "" {
		return nil, fmt.Errorf("DB_SOURCE environment variable is required when LEDGER_BACKEND=postgres")
	}

	boltPath := os.Getenv("BOLT_PATH")
	if boltPath == "" {
		boltPath = "payinit.db"
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	gatewayTimeout, err := durationEnv("GATEWAY_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	retryDelay, err := durationEnv("RETRY_DELAY", time.Second)
	if err != nil {
		return nil, err
	}

	attempts := 3
	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &attempts); err != nil || attempts < 1 {
			return nil, fmt.Errorf("invalid RETRY_MAX_ATTEMPTS %q", v)
		}
	}

	return &Config{
		Port:             port,
		Env:              env,
		GatewayURL:       gatewayURL,
		GatewaySecretKey: secretKey,
		GatewayTimeout:   gatewayTimeout,
		RetryMaxAttempts: attempts,
		RetryDelay:       retryDelay,
		LedgerBackend:    backend,
		DBSource:         dbSource,
		BoltPath:         boltPath,
	}, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return d, nil
}
