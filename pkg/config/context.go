// Package config loads the project context file that flows run against: an
// ordered base URL map plus optional AI evaluator settings, written as a
// Markdown document alongside the flows.
package config

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// BaseURL is one named entry of the base URL map. Entry order matters: the
// first entry is the default base for relative request URLs.
type BaseURL struct {
	Name string
	URL  string
}

// AIConfig holds settings for the AI evaluator. The API key is read from the
// environment (APIKeyEnv, default OPENAI_API_KEY), never from the context
// file itself.
type AIConfig struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKeyEnv string
}

// APIKey resolves the configured key from the environment.
func (c AIConfig) APIKey() string {
	env := c.APIKeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	return os.Getenv(env)
}

// Enabled reports whether enough is configured to build an AI client.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && c.APIKey() != ""
}

// Context is the project context consumed by the executor.
type Context struct {
	Name     string
	BaseURLs []BaseURL
	AI       AIConfig
}

// Lookup returns the base URL registered under name.
func (c *Context) Lookup(name string) (string, bool) {
	for _, b := range c.BaseURLs {
		if b.Name == name {
			return b.URL, true
		}
	}
	return "", false
}

// Default returns the first base URL, or "" when none are configured.
func (c *Context) Default() string {
	if len(c.BaseURLs) == 0 {
		return ""
	}
	return c.BaseURLs[0].URL
}

// LoadEnv loads a dotenv file into the process environment. A missing
// default file is not an error; an explicitly named one is.
func LoadEnv(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

var (
	titlePattern   = regexp.MustCompile(`^#\s+(.+)$`)
	headingPattern = regexp.MustCompile(`^##\s+(.+)$`)
	bulletPattern  = regexp.MustCompile(`^[-*]\s+([A-Za-z][A-Za-z0-9_-]*)\s*:\s*(.+)$`)
)

// LoadContext parses a Markdown project context file. Recognized sections
// are "Base URLs" and "AI"; bullets inside them are name: value pairs.
// Bullets outside a recognized section are ignored.
func LoadContext(path string) (*Context, error) {
	f, err := os.Open(path) //#nosec G304 -- path is user-provided context file
	if err != nil {
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}
	defer f.Close()

	ctx := &Context{}
	section := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if m := titlePattern.FindStringSubmatch(line); m != nil && ctx.Name == "" {
			ctx.Name = strings.TrimSpace(m[1])
			continue
		}
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			section = normalizeSection(m[1])
			continue
		}

		m := bulletPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name, value := m[1], strings.TrimSpace(m[2])

		switch section {
		case "base urls":
			ctx.BaseURLs = append(ctx.BaseURLs, BaseURL{Name: name, URL: value})
		case "ai":
			switch strings.ToLower(name) {
			case "provider":
				ctx.AI.Provider = value
			case "model":
				ctx.AI.Model = value
			case "baseurl", "base_url", "base-url":
				ctx.AI.BaseURL = value
			case "apikeyenv", "api_key_env", "api-key-env":
				ctx.AI.APIKeyEnv = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}

	return ctx, nil
}

func normalizeSection(heading string) string {
	return strings.ToLower(strings.TrimSpace(heading))
}
