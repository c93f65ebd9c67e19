package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hive-ingestion/internal/census"
	"hive-ingestion/internal/model"
)

// FailurePolicy decides what the pipeline does after a stage fails.
type FailurePolicy string

const (
	// PolicyContinue runs every stage regardless of earlier failures.
	PolicyContinue FailurePolicy = "continue"
	// PolicyAbort skips every stage after the first failure.
	PolicyAbort FailurePolicy = "abort"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyContinue, "":
		return PolicyContinue, nil
	case PolicyAbort:
		return PolicyAbort, nil
	}
	return "", fmt.Errorf("unknown failure policy %q (expected continue or abort)", s)
}

const DefaultVerifyLimit = 10

// Config is read once at startup and never mutated afterwards.
type Config struct {
	HDFSURL  string
	HDFSUser string
	DataURL  string
	HDFSPath string

	HiveHost      string
	HivePort      int
	HiveUser      string
	HivePassword  string
	HiveAuth      string
	Database      string
	Table         string
	LoadOverwrite bool

	VerifyLimit     int
	DataRetries     int
	DataTimeout     time.Duration
	OnFailure       FailurePolicy
	SchemaFile      string
	SkipHeaderLines int
}

var requiredKeys = []string{
	"HDFS_URL",
	"HDFS_USER",
	"DATA_URL",
	"HDFS_PATH",
	"HIVE_TABLE_NAME",
	"HIVE_DATABASE",
	"HIVE_HOST",
	"HIVE_PORT",
	"HIVE_USER",
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadFromEnv reads the pipeline configuration from the process environment.
func LoadFromEnv() (*Config, error) {
	return Load(os.LookupEnv)
}

// Load builds a Config from lookup and reports every problem found at once.
func Load(lookup Lookup) (*Config, error) {
	var problems []string

	values := make(map[string]string, len(requiredKeys))
	for _, k := range requiredKeys {
		v, err := lookup.require(k)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		values[k] = v
	}

	cfg := &Config{
		HDFSURL:      values["HDFS_URL"],
		HDFSUser:     values["HDFS_USER"],
		DataURL:      values["DATA_URL"],
		HDFSPath:     values["HDFS_PATH"],
		HiveHost:     values["HIVE_HOST"],
		HiveUser:     values["HIVE_USER"],
		Database:     values["HIVE_DATABASE"],
		Table:        values["HIVE_TABLE_NAME"],
		HivePassword: lookup.getOrDefault("HIVE_PASSWORD", ""),
		HiveAuth:     strings.ToUpper(lookup.getOrDefault("HIVE_AUTH", "NONE")),
		SchemaFile:   lookup.getOrDefault("TABLE_SCHEMA_FILE", ""),
	}

	if p, ok := values["HIVE_PORT"]; ok {
		port, err := lookup.intOrDefault("HIVE_PORT", 0)
		switch {
		case err != nil:
			problems = append(problems, err.Error())
		case port <= 0 || port > 65535:
			problems = append(problems, fmt.Sprintf("HIVE_PORT=%s is out of range", p))
		default:
			cfg.HivePort = port
		}
	}

	var err error
	if cfg.LoadOverwrite, err = lookup.boolOrDefault("HIVE_LOAD_OVERWRITE", false); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.VerifyLimit, err = lookup.intOrDefault("VERIFY_LIMIT", DefaultVerifyLimit); err != nil {
		problems = append(problems, err.Error())
	} else if cfg.VerifyLimit <= 0 {
		problems = append(problems, "VERIFY_LIMIT must be positive")
	}
	if cfg.DataRetries, err = lookup.intOrDefault("DATA_RETRIES", 0); err != nil {
		problems = append(problems, err.Error())
	} else if cfg.DataRetries < 0 {
		problems = append(problems, "DATA_RETRIES must not be negative")
	}
	if cfg.DataTimeout, err = lookup.durationOrDefault("DATA_TIMEOUT", 0); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.SkipHeaderLines, err = lookup.intOrDefault("HIVE_SKIP_HEADER_LINES", 0); err != nil {
		problems = append(problems, err.Error())
	} else if cfg.SkipHeaderLines < 0 {
		problems = append(problems, "HIVE_SKIP_HEADER_LINES must not be negative")
	}
	if cfg.OnFailure, err = ParseFailurePolicy(lookup.getOrDefault("PIPELINE_ON_FAILURE", "")); err != nil {
		problems = append(problems, "PIPELINE_ON_FAILURE: "+err.Error())
	}

	problems = append(problems, cfg.check()...)

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n- %s", strings.Join(problems, "\n- "))
	}
	return cfg, nil
}

// check validates the values that are present; missing ones were already reported.
func (c *Config) check() []string {
	var problems []string

	if c.HDFSURL != "" {
		u, err := url.Parse(c.HDFSURL)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("HDFS_URL: %v", err))
		case u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "hdfs":
			problems = append(problems, fmt.Sprintf("HDFS_URL scheme %q not supported (http, https or hdfs)", u.Scheme))
		case u.Host == "":
			problems = append(problems, "HDFS_URL has no host")
		}
	}
	if c.DataURL != "" {
		u, err := url.Parse(c.DataURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Sprintf("DATA_URL %q is not an http(s) URL", c.DataURL))
		}
	}
	if c.HDFSPath != "" && !strings.HasPrefix(c.HDFSPath, "/") {
		problems = append(problems, fmt.Sprintf("HDFS_PATH %q must be absolute", c.HDFSPath))
	}
	if c.Database != "" && !identifierRe.MatchString(c.Database) {
		problems = append(problems, fmt.Sprintf("HIVE_DATABASE %q is not a valid identifier", c.Database))
	}
	if c.Table != "" && !identifierRe.MatchString(c.Table) {
		problems = append(problems, fmt.Sprintf("HIVE_TABLE_NAME %q is not a valid identifier", c.Table))
	}
	switch c.HiveAuth {
	case "NONE", "NOSASL", "LDAP", "KERBEROS", "DIGEST-MD5":
	default:
		problems = append(problems, fmt.Sprintf("HIVE_AUTH %q not supported", c.HiveAuth))
	}

	return problems
}

// QualifiedTable returns "<database>.<table>".
func (c *Config) QualifiedTable() string {
	return c.Database + "." + c.Table
}

// TableSchema returns the schema from TABLE_SCHEMA_FILE, or the built-in
// county estimates layout when no file is configured.
func (c *Config) TableSchema() (model.TableSchema, error) {
	s := census.Schema()
	if c.SchemaFile != "" {
		loaded, err := LoadTableSchema(c.SchemaFile)
		if err != nil {
			return model.TableSchema{}, err
		}
		s = *loaded
	}
	if c.SkipHeaderLines > 0 {
		s.SkipHeaderLines = c.SkipHeaderLines
	}
	return s, nil
}

// Env renders the configuration back into environment variables, the inverse
// of Load. HIVE_PASSWORD is left out; it belongs in a secret.
func (c *Config) Env() []model.EnvVar {
	env := []model.EnvVar{
		{Name: "HDFS_URL", Value: c.HDFSURL},
		{Name: "HDFS_USER", Value: c.HDFSUser},
		{Name: "DATA_URL", Value: c.DataURL},
		{Name: "HDFS_PATH", Value: c.HDFSPath},
		{Name: "HIVE_TABLE_NAME", Value: c.Table},
		{Name: "HIVE_DATABASE", Value: c.Database},
		{Name: "HIVE_HOST", Value: c.HiveHost},
		{Name: "HIVE_PORT", Value: strconv.Itoa(c.HivePort)},
		{Name: "HIVE_USER", Value: c.HiveUser},
		{Name: "HIVE_AUTH", Value: c.HiveAuth},
		{Name: "HIVE_LOAD_OVERWRITE", Value: strconv.FormatBool(c.LoadOverwrite)},
		{Name: "VERIFY_LIMIT", Value: strconv.Itoa(c.VerifyLimit)},
		{Name: "DATA_RETRIES", Value: strconv.Itoa(c.DataRetries)},
		{Name: "PIPELINE_ON_FAILURE", Value: string(c.OnFailure)},
	}
	if c.DataTimeout > 0 {
		env = append(env, model.EnvVar{Name: "DATA_TIMEOUT", Value: c.DataTimeout.String()})
	}
	if c.SkipHeaderLines > 0 {
		env = append(env, model.EnvVar{Name: "HIVE_SKIP_HEADER_LINES", Value: strconv.Itoa(c.SkipHeaderLines)})
	}
	if c.SchemaFile != "" {
		env = append(env, model.EnvVar{Name: "TABLE_SCHEMA_FILE", Value: c.SchemaFile})
	}
	return env
}
