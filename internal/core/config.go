package core

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"
	"github.com/goccy/go-yaml"
	"github.com/jobflow-cli/jobflow/pkgs/fcrypt"
	"github.com/rs/zerolog/log"
)

type ConfigFile struct {
	Profile      map[string]any    `yaml:"profile"`
	ProfileFiles []ProfileFile     `yaml:"profile_files"`
	Browser      Browser           `yaml:"browser"`
	Age          Age               `yaml:"age"`
	Macros       map[string]string `yaml:"macros"`
	Jobs         []Job             `yaml:"jobs"`

	// ConfigDir is the directory containing the loaded configuration file.
	// Relative paths in the document resolve against it.
	ConfigDir string `yaml:"-"`
}

// Load reads and validates a configuration file without touching process
// state. Use [SetupEnv] for commands that execute jobs.
func Load(cfgpath string) (ConfigFile, error) {
	cfg := ConfigFile{
		Profile: map[string]any{},
		Macros:  map[string]string{},
	}

	absolutePath, err := filepath.Abs(cfgpath)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(absolutePath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", cfgpath, err)
	}

	cfg.ConfigDir = filepath.Dir(absolutePath)

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration %s: %w", cfgpath, err)
	}

	return cfg, nil
}

// SetupEnv loads the configuration and changes the working directory to the
// config file's directory so relative paths behave consistently.
func SetupEnv(cfgpath string) (ConfigFile, error) {
	cfg, err := Load(cfgpath)
	if err != nil {
		return cfg, err
	}

	if err := os.Chdir(cfg.ConfigDir); err != nil {
		return cfg, err
	}

	log.Debug().Str("cwd", cfg.ConfigDir).Msg("setting working directory to config dir")

	return cfg, nil
}

func (c ConfigFile) validate() error {
	if len(c.Jobs) == 0 {
		return fmt.Errorf("no jobs defined")
	}

	for i, job := range c.Jobs {
		if job.URL == "" {
			return fmt.Errorf("job %d (%s) requires a 'url'", i+1, job.Name)
		}
	}

	return nil
}

// Resolver returns a path resolver rooted at the config directory.
func (c ConfigFile) Resolver() PathResolver {
	return NewPathResolver(c.ConfigDir)
}

// MergedProfile returns the profile map with all profile_files folded in,
// later files taking precedence over earlier ones and the inline profile.
// Vaulted files are decrypted with the configured age identity.
func (c ConfigFile) MergedProfile() (map[string]any, error) {
	merged := map[string]any{}
	maps.Copy(merged, c.Profile)

	var identity age.Identity
	if c.Age.IdentityFile != "" && c.hasVaultFiles() {
		var err error
		identity, err = c.Age.ReadIdentity()
		if err != nil {
			return nil, err
		}
	}

	resolver := c.Resolver()

	for _, pf := range c.ProfileFiles {
		vars, err := pf.load(resolver, identity)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile file %s: %w", pf.Path, err)
		}

		maps.Copy(merged, vars)
	}

	return merged, nil
}

func (c ConfigFile) hasVaultFiles() bool {
	for _, pf := range c.ProfileFiles {
		if pf.IsVault {
			return true
		}
	}
	return false
}

// EncryptedFiles returns all files that should be kept age-encrypted.
func (c ConfigFile) EncryptedFiles() []string {
	files := []string{}

	for _, pf := range c.ProfileFiles {
		if pf.IsVault {
			files = append(files, pf.Path)
		}
	}

	return files
}

type ProfileFile struct {
	Path    string `yaml:"path"`
	IsVault bool   `yaml:"vault"`
}

func (pf ProfileFile) load(resolver PathResolver, identity age.Identity) (map[string]any, error) {
	path, err := resolver.Resolve(pf.Path)
	if err != nil {
		return nil, err
	}

	if pf.IsVault {
		if filepath.Ext(path) != ".age" {
			path = path + ".age"
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("vault file does not exist, skipping")
			return nil, nil
		}

		if identity == nil {
			return nil, fmt.Errorf("no identity loaded for encrypted file %s", path)
		}

		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		buff := strings.Builder{}
		if err := fcrypt.DecryptReader(file, &buff, identity); err != nil {
			return nil, err
		}

		vars := map[string]any{}
		if err := yaml.Unmarshal([]byte(buff.String()), &vars); err != nil {
			return nil, err
		}

		return vars, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn().Str("path", path).Msg("profile file does not exist, skipping")
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	vars := map[string]any{}
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, err
	}

	return vars, nil
}

type Browser struct {
	Headless  *bool   `yaml:"headless"`
	SlowMoMs  float64 `yaml:"slow_mo_ms"`
	TimeoutMs int     `yaml:"timeout_ms"`
	Locale    string  `yaml:"locale"`
}

// IsHeadless reports the configured headless mode, defaulting to true.
func (b Browser) IsHeadless() bool {
	if b.Headless == nil {
		return true
	}
	return *b.Headless
}

// Timeout returns the per-action timeout, defaulting to 10 seconds.
func (b Browser) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

type Age struct {
	Recipients   []string `yaml:"recipients"`
	IdentityFile string   `yaml:"identity_file"`
}

func (a Age) ReadIdentity() (age.Identity, error) {
	// Read the private key from the identity file
	identityData, err := os.ReadFile(a.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file %s: %w", a.IdentityFile, err)
	}

	// Parse the identity file, skipping comments and empty lines
	var keyLine string
	for _, line := range strings.Split(string(identityData), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			keyLine = line
			break
		}
	}

	if keyLine == "" {
		return nil, fmt.Errorf("no valid key found in identity file %s", a.IdentityFile)
	}

	identity, err := fcrypt.LoadPrivateKey(keyLine)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	return identity, nil
}

// Job is one target URL plus its ordered list of steps. Any keys beyond the
// reserved ones are kept as metadata and exposed to step templates.
type Job struct {
	Name  string
	URL   string
	Tags  []string
	Steps []Step
	Meta  map[string]any
}

func (j *Job) UnmarshalYAML(data []byte) error {
	var known struct {
		Name  string   `yaml:"name"`
		URL   string   `yaml:"url"`
		Tags  []string `yaml:"tags"`
		Steps []Step   `yaml:"steps"`
	}

	if err := yaml.Unmarshal(data, &known); err != nil {
		return err
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, reserved := range []string{"name", "url", "tags", "steps"} {
		delete(raw, reserved)
	}

	j.Name = known.Name
	j.URL = known.URL
	j.Tags = known.Tags
	j.Steps = known.Steps
	j.Meta = raw

	if j.Name == "" {
		j.Name = j.URL
	}

	return nil
}

// Step is one declared browser action with its free-form options mapping.
type Step struct {
	Action  string
	Options map[string]any
}

func (s *Step) UnmarshalYAML(data []byte) error {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	action, ok := raw["action"].(string)
	if !ok || action == "" {
		return fmt.Errorf("every step must define an 'action' field")
	}

	delete(raw, "action")

	s.Action = action
	s.Options = raw

	return nil
}
