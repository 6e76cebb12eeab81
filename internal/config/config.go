// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application. It is
// constructed once at process start and treated as read-only afterwards.
type Config struct {
	Jira       JiraConfig
	LLM        LLMConfig
	MaxResults int
}

// JiraConfig holds the ticketing-backend credentials.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
}

// LLMConfig holds the Azure OpenAI completion-capability credentials.
type LLMConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

// Load reads configuration from environment variables. Missing collaborator
// credentials are not an error here: the pipeline must run with either
// collaborator absent, so validation is per-collaborator.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.token", "JIRA_TOKEN")
	v.BindEnv("llm.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("llm.apikey", "AZURE_OPENAI_API_KEY")
	v.BindEnv("llm.deployment", "AZURE_DEPLOYMENT_NAME")
	v.BindEnv("llm.apiversion", "OPENAI_API_VERSION")
	v.BindEnv("maxresults", "MAX_RESULTS")

	v.SetDefault("llm.apiversion", "2024-02-01")
	v.SetDefault("maxresults", 50)

	return &Config{
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
		},
		LLM: LLMConfig{
			Endpoint:   v.GetString("llm.endpoint"),
			APIKey:     v.GetString("llm.apikey"),
			Deployment: v.GetString("llm.deployment"),
			APIVersion: v.GetString("llm.apiversion"),
		},
		MaxResults: v.GetInt("maxresults"),
	}
}

// ValidateJira ensures the ticketing-backend credentials are complete.
func (c *Config) ValidateJira() error {
	var missing []string
	if c.Jira.URL == "" {
		missing = append(missing, "JIRA_URL")
	}
	if c.Jira.Username == "" {
		missing = append(missing, "JIRA_USERNAME")
	}
	if c.Jira.Token == "" {
		missing = append(missing, "JIRA_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

// ValidateLLM ensures the completion-capability credentials are complete.
func (c *Config) ValidateLLM() error {
	var missing []string
	if c.LLM.Endpoint == "" {
		missing = append(missing, "AZURE_OPENAI_ENDPOINT")
	}
	if c.LLM.APIKey == "" {
		missing = append(missing, "AZURE_OPENAI_API_KEY")
	}
	if c.LLM.Deployment == "" {
		missing = append(missing, "AZURE_DEPLOYMENT_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}
