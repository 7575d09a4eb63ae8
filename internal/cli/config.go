package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL  string
	CookieFile string
	Output     string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:  getEnvOrDefault("EXPENSE_SERVER", "http://localhost:8080"),
		CookieFile: getEnvOrDefault("EXPENSE_COOKIE_FILE", defaultCookieFile()),
		Output:     "text",
	}
}

// LoadCookie reads the saved session cookie value. A missing file means no
// session.
func (c *Config) LoadCookie() (string, error) {
	data, err := os.ReadFile(c.CookieFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveCookie persists the session cookie value readable by the owner only.
// An empty value removes the file.
func (c *Config) SaveCookie(value string) error {
	if value == "" {
		err := os.Remove(c.CookieFile)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.CookieFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.CookieFile, []byte(value), 0o600)
}

func defaultCookieFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".expense", "cookie")
	}
	return filepath.Join(home, ".expense", "cookie")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
