package config

import (
	"github.com/technologic-ai/technologic/internal/domain"
)

// Log controls where and how verbosely the application logs.
type Log struct {
	Level string `mapstructure:"level" json:"level" jsonschema:"enum=DEBUG,enum=INFO,enum=WARN,enum=ERROR,default=INFO" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	File  string `mapstructure:"file" json:"file,omitempty" jsonschema:"description=Log file path; empty logs to stderr"`
}

// Selection names the backend and model the next turn uses.
type Selection struct {
	Name  string `mapstructure:"name" json:"name" jsonschema:"description=Name of the configured backend"`
	Model string `mapstructure:"model" json:"model,omitempty" jsonschema:"description=Model override; defaults to the backend's defaultModel"`
}

// MCPServer describes one tool server to launch over stdio.
type MCPServer struct {
	Command string            `mapstructure:"command" json:"command" validate:"required"`
	Args    []string          `mapstructure:"args" json:"args,omitempty"`
	Env     map[string]string `mapstructure:"env" json:"env,omitempty"`
}

// ConfigSchema is the fully merged configuration.
type ConfigSchema struct {
	Backends   []domain.BackendConfiguration `mapstructure:"backends" json:"backends" validate:"required,min=1,dive"`
	Backend    Selection                     `mapstructure:"backend" json:"backend"`
	DBPath     string                        `mapstructure:"dbPath" json:"dbPath" jsonschema:"description=Path of the sqlite conversation store"`
	Log        Log                           `mapstructure:"log" json:"log"`
	MCPServers map[string]MCPServer          `mapstructure:"mcpServers" json:"mcpServers,omitempty"`
}

// CurrentBackend resolves the selected backend configuration and the
// effective model.
func (c *ConfigSchema) CurrentBackend() (domain.BackendConfiguration, string, bool) {
	name := c.Backend.Name
	for _, be := range c.Backends {
		if be.Name == name || name == "" {
			model := c.Backend.Model
			if model == "" {
				model = be.DefaultModel
			}
			return be, model, true
		}
	}
	return domain.BackendConfiguration{}, "", false
}

// RuntimeOverrides are command-line level settings that win over every
// config file.
type RuntimeOverrides struct {
	Backend string
	Model   string
	DBPath  string
	Verbose bool
}
