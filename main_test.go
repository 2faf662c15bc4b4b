package main

import (
	"errors"
	"net/http"
	"os"
	"testing"

	"todo-service/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadSecretMapErrors(t *testing.T) {
	originalGetSecret := getSecret
	getSecret = func(name string) (string, error) {
		return "", errors.New("secret error")
	}
	defer func() { getSecret = originalGetSecret }()

	_, err := loadSecretMap("prod/jwt")
	assert.Error(t, err)

	getSecret = func(name string) (string, error) {
		return "not-json", nil
	}
	_, err = loadSecretMap("prod/jwt")
	assert.Error(t, err)
}

func TestLoadProdSecretsSuccess(t *testing.T) {
	originalGetSecret := getSecret
	getSecret = func(name string) (string, error) {
		switch name {
		case "prod/jwt":
			return `{"JWT_SECRET":"prod-secret","JWT_ISSUER":"todo-service"}`, nil
		case "prod/postgres":
			return `{"username":"user","password":"pass","engine":"postgres","host":"localhost","port":5432,"dbInstanceIdentifier":"todos"}`, nil
		default:
			return "", errors.New("unknown")
		}
	}
	defer func() { getSecret = originalGetSecret }()

	assert.NoError(t, loadProdSecrets())
	assert.Equal(t, "prod-secret", os.Getenv("JWT_SECRET"))
	assert.Equal(t, "user", os.Getenv("DB_USERNAME"))
	assert.Equal(t, "localhost", os.Getenv("DB_HOST"))
	assert.Equal(t, "5432", os.Getenv("DB_PORT"))
	assert.Equal(t, "todos", os.Getenv("DB_INSTANCE_IDENTIFIER"))
}

func TestLoadProdSecretsInvalidPostgresJSON(t *testing.T) {
	originalGetSecret := getSecret
	getSecret = func(name string) (string, error) {
		switch name {
		case "prod/jwt":
			return `{"JWT_SECRET":"prod-secret"}`, nil
		case "prod/postgres":
			return "not-json", nil
		default:
			return "", errors.New("unknown")
		}
	}
	defer func() { getSecret = originalGetSecret }()

	assert.Error(t, loadProdSecrets())
}

func TestRunConfigError(t *testing.T) {
	originalLoadEnv := loadEnv
	originalLoadConfig := loadConfig
	loadEnv = func(...string) error { return errors.New("no .env") }
	loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("config error")
	}
	defer func() {
		loadEnv = originalLoadEnv
		loadConfig = originalLoadConfig
	}()

	assert.Error(t, run())
}

func TestRunConnectError(t *testing.T) {
	originalLoadEnv := loadEnv
	originalLoadConfig := loadConfig
	originalConnectDB := connectDB
	loadEnv = func(...string) error { return nil }
	loadConfig = func() (config.Config, error) {
		return config.Config{AppEnv: "dev"}, nil
	}
	connectDB = func(cfg config.DatabaseConfig) error {
		return errors.New("connect error")
	}
	defer func() {
		loadEnv = originalLoadEnv
		loadConfig = originalLoadConfig
		connectDB = originalConnectDB
	}()

	assert.Error(t, run())
}

func TestRunServesConfiguredPort(t *testing.T) {
	originalLoadEnv := loadEnv
	originalLoadConfig := loadConfig
	originalConnectDB := connectDB
	originalMigrateDB := migrateDB
	originalListenAndServe := listenAndServe
	loadEnv = func(...string) error { return nil }
	loadConfig = func() (config.Config, error) {
		return config.Config{
			AppEnv: "dev",
			Port:   "9090",
			Auth:   config.AuthConfig{TokenSecret: []byte("secret")},
			CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		}, nil
	}
	connectDB = func(cfg config.DatabaseConfig) error { return nil }
	migrateDB = func(cfg config.DatabaseConfig) error { return nil }
	var servedAddr string
	listenAndServe = func(addr string, handler http.Handler) error {
		servedAddr = addr
		assert.NotNil(t, handler)
		return nil
	}
	defer func() {
		loadEnv = originalLoadEnv
		loadConfig = originalLoadConfig
		connectDB = originalConnectDB
		migrateDB = originalMigrateDB
		listenAndServe = originalListenAndServe
	}()

	assert.NoError(t, run())
	assert.Equal(t, ":9090", servedAddr)
}
