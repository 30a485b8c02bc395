package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/formparity/parity-go/internal/domain"
)

// EnvironmentsFile is the YAML document naming every platform instance.
// Values may reference process environment variables as ${VAR}. Only the
// braced form is expanded; any other $ is kept as written.
//
//	from: dev
//	to: qa
//	forms: [Email Notification]
//	environments:
//	  dev:
//	    name: V5 Dev
//	    base_url: https://dev.example.com
//	    customer_alias: acme
//	    database_alias: main
//	    user_id: svc
//	    password: ${DEV_PASSWORD}
//	    client_id: ${DEV_CLIENT_ID}
//	    client_secret: ${DEV_CLIENT_SECRET}
type EnvironmentsFile struct {
	From         string                        `yaml:"from"`
	To           string                        `yaml:"to"`
	Forms        []string                      `yaml:"forms"`
	Environments map[string]domain.Environment `yaml:"environments"`
}

// Migration is a resolved from/to pair and the forms to compare.
type Migration struct {
	From  domain.Environment
	To    domain.Environment
	Forms []string
}

var envRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandRefs replaces ${VAR} with the variable's value. Unset variables
// expand to the empty string.
func expandRefs(s string) string {
	return envRefRe.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// ParseEnvironments decodes an environments document, then expands ${VAR}
// references in each decoded value. Expanded text is never re-read as YAML.
func ParseEnvironments(data []byte) (EnvironmentsFile, error) {
	var f EnvironmentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return EnvironmentsFile{}, fmt.Errorf("config: parse environments: %w", err)
	}
	f.From = expandRefs(f.From)
	f.To = expandRefs(f.To)
	for i, form := range f.Forms {
		f.Forms[i] = expandRefs(form)
	}
	for key, env := range f.Environments {
		env.Key = key
		for _, field := range []*string{
			&env.Name, &env.BaseURL, &env.CustomerAlias, &env.DatabaseAlias,
			&env.UserID, &env.Password, &env.ClientID, &env.ClientSecret,
		} {
			*field = expandRefs(*field)
		}
		f.Environments[key] = env
	}
	return f, nil
}

// LoadEnvironments reads and parses the environments file at path.
func LoadEnvironments(path string) (EnvironmentsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EnvironmentsFile{}, fmt.Errorf("config: read environments file: %w", err)
	}
	return ParseEnvironments(data)
}

// Keys returns the environment keys in sorted order.
func (f EnvironmentsFile) Keys() []string {
	keys := make([]string, 0, len(f.Environments))
	for k := range f.Environments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Migration resolves the from/to environments, letting the Config values win
// over the file. Both environments and the form list are validated.
func (c Config) Migration() (Migration, error) {
	if c.EnvironmentsFile == "" {
		return Migration{}, fmt.Errorf("config: PARITY_ENVIRONMENTS_FILE is required")
	}
	f, err := LoadEnvironments(c.EnvironmentsFile)
	if err != nil {
		return Migration{}, err
	}
	return f.Resolve(c.From, c.To, c.Forms)
}

// Resolve picks the from/to environments. Empty arguments fall back to the
// file's defaults.
func (f EnvironmentsFile) Resolve(from, to string, forms []string) (Migration, error) {
	if from == "" {
		from = f.From
	}
	if to == "" {
		to = f.To
	}
	if len(forms) == 0 {
		forms = f.Forms
	}
	if from == "" || to == "" {
		return Migration{}, fmt.Errorf("config: from and to environments are required")
	}
	if from == to {
		return Migration{}, fmt.Errorf("config: from and to must differ (both %q)", from)
	}

	m := Migration{Forms: forms}
	var ok bool
	if m.From, ok = f.Environments[from]; !ok {
		return Migration{}, fmt.Errorf("config: unknown environment %q (have %v)", from, f.Keys())
	}
	if m.To, ok = f.Environments[to]; !ok {
		return Migration{}, fmt.Errorf("config: unknown environment %q (have %v)", to, f.Keys())
	}
	if err := domain.ValidateEnvironment(m.From); err != nil {
		return Migration{}, fmt.Errorf("config: environment %q: %w", from, err)
	}
	if err := domain.ValidateEnvironment(m.To); err != nil {
		return Migration{}, fmt.Errorf("config: environment %q: %w", to, err)
	}
	if len(m.Forms) > 0 {
		if err := domain.ValidateFormNames(m.Forms); err != nil {
			return Migration{}, fmt.Errorf("config: %w", err)
		}
	}
	return m, nil
}
