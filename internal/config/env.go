package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv seeds the process environment from a .env file. A missing file
// is not an error; variables already set in the environment win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyEnv overlays LOCALLM_* variables onto c. getenv defaults to os.Getenv.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	str("LOCALLM_ADDR", &c.Addr)
	str("LOCALLM_LOG_LEVEL", &c.LogLevel)
	str("LOCALLM_ENGINE_URL", &c.EngineURL)
	str("LOCALLM_ENGINE_BINARY", &c.EngineBinary)
	str("LOCALLM_MODELS_FILE", &c.ModelsFile)
	str("LOCALLM_PULL_MODE", &c.PullMode)
	num("LOCALLM_THREADS", &c.Threads)
	num("LOCALLM_MAX_WORDS", &c.MaxWords)
	num("LOCALLM_GENERATE_TIMEOUT_SECONDS", &c.GenerateTimeoutSeconds)
	if v := strings.TrimSpace(getenv("LOCALLM_MODELS")); v != "" {
		c.CandidateModels = SplitCSV(v)
	}
	return c
}

// SplitCSV splits a comma separated list, trimming blanks and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
