package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// Secrets mirrors the secrets file handed to the service at deploy time.
type Secrets struct {
	CarrierToken string        `yaml:"rv_api_token"`
	Zendesk      ZendeskConfig `yaml:"zendesk"`
}

// ZendeskConfig carries ticketing credentials and field mappings.
type ZendeskConfig struct {
	Subdomain            string             `yaml:"subdomain"`
	Email                string             `yaml:"email"`
	APIToken             string             `yaml:"api_token"`
	FormID               FieldID            `yaml:"form_id"`
	CustomFields         map[string]FieldID `yaml:"custom_fields"`
	PhoneProviderMapping map[string]string  `yaml:"phone_provider_mapping"`
}

// FieldID is a platform field identifier. The file may spell it as an
// integer or a string; both decode to the same text.
type FieldID string

func (f *FieldID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: field id must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*f = ""
		return nil
	}
	*f = FieldID(strings.TrimSpace(node.Value))
	return nil
}

// LoadSecrets reads and validates the secrets file. Every failure is a
// CONFIG_ERROR: the service cannot run without ticketing credentials.
func LoadSecrets(path string) (*Secrets, error) {
	if path == "" {
		return nil, apperrors.NewConfigError("secrets path not configured", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewConfigError(fmt.Sprintf("secrets file %s not found", path), err)
		}
		return nil, apperrors.NewConfigError("read secrets", err)
	}
	return ParseSecrets(data)
}

// ParseSecrets decodes secrets YAML and drops unset custom field ids.
func ParseSecrets(data []byte) (*Secrets, error) {
	var secrets Secrets
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, apperrors.NewConfigError("parse secrets", err)
	}

	z := &secrets.Zendesk
	var missing []string
	for key, val := range map[string]string{
		"subdomain": z.Subdomain,
		"email":     z.Email,
		"api_token": z.APIToken,
		"form_id":   string(z.FormID),
	} {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, "zendesk."+key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.NewConfigError("missing secrets: "+strings.Join(missing, ", "), nil)
	}

	fields := make(map[string]FieldID, len(z.CustomFields))
	for name, id := range z.CustomFields {
		if id == "" || id == "0" {
			continue
		}
		fields[name] = id
	}
	z.CustomFields = fields
	if z.PhoneProviderMapping == nil {
		z.PhoneProviderMapping = map[string]string{}
	}
	return &secrets, nil
}

// FieldIDFor resolves the platform field id for a logical form field such as
// "client" (looked up as "client_field_id"). Empty when unconfigured.
func (z ZendeskConfig) FieldIDFor(logical string) string {
	return string(z.CustomFields[logical+"_field_id"])
}

// ProviderDisplay maps a carrier name through phone_provider_mapping.
func (z ZendeskConfig) ProviderDisplay(carrier string) string {
	if mapped, ok := z.PhoneProviderMapping[carrier]; ok && mapped != "" {
		return mapped
	}
	return carrier
}
