package config

import (
	"encoding/base64"
	"fmt"
)

const (
	BackendFile   = "file"
	BackendPebble = "pebble"
)

type Config struct {
	ServerAddr     string
	DataDir        string
	StoreBackend   string
	SigningKey     []byte
	AllowedOrigins []string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, dataDir, storeBackend, base64Secret string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if storeBackend == "" {
		storeBackend = BackendFile
	}
	if storeBackend != BackendFile && storeBackend != BackendPebble {
		return nil, fmt.Errorf("unknown store backend %q", storeBackend)
	}

	// Decode the base64 encoded signing secret
	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		ServerAddr:     serverAddr,
		DataDir:        dataDir,
		StoreBackend:   storeBackend,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
	}, nil
}
