package simulation

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
)

// Snapshot source kinds.
const (
	SourceHTTP      = "http"
	SourceFirestore = "firestore"
)

type Config struct {
	// Remote endpoints
	SnapshotURL string `json:"snapshotUrl"`
	ParamsURL   string `json:"paramsUrl"` // empty: use Params below

	// Snapshot source: "http" or "firestore"
	Source              string `json:"source"`
	FirestoreCollection string `json:"firestoreCollection"`
	FirebaseCredentials string `json:"firebaseCredentials"`
	FirebaseProjectID   string `json:"firebaseProjectId"`

	// Optional redis cache in front of the snapshot source
	RedisAddr  string `json:"redisAddr"`
	CacheTTLMs int    `json:"cacheTtlMs"`

	// Timing
	TickIntervalMs   int `json:"tickIntervalMs"`
	SyncIntervalMs   int `json:"syncIntervalMs"`
	RequestTimeoutMs int `json:"requestTimeoutMs"`

	// Drop local agents the backend no longer lists
	PruneMissing bool `json:"pruneMissing"`

	// Initial window size, the window stays resizable
	WindowWidth  int `json:"windowWidth"`
	WindowHeight int `json:"windowHeight"`

	Params flock.Params `json:"params"`
}

func DefaultConfig() *Config {
	return &Config{
		Source:              SourceHTTP,
		FirestoreCollection: "boids",
		CacheTTLMs:          2000,
		TickIntervalMs:      16,
		SyncIntervalMs:      10000,
		RequestTimeoutMs:    5000,
		WindowWidth:         1000,
		WindowHeight:        800,
		Params:              flock.DefaultParams(),
	}
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMs) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
// Fields the file omits keep their DefaultConfig value. Cross-field checks wait
// for ApplyEnv since the environment may still fill in required urls.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal over the defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment, lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"BOIDS_SNAPSHOT_URL", &c.SnapshotURL},
		{"BOIDS_PARAMS_URL", &c.ParamsURL},
		{"BOIDS_SOURCE", &c.Source},
		{"BOIDS_REDIS_ADDR", &c.RedisAddr},
		{"BOIDS_FIREBASE_CREDENTIALS", &c.FirebaseCredentials},
		{"BOIDS_FIREBASE_PROJECT_ID", &c.FirebaseProjectID},
		{"BOIDS_FIRESTORE_COLLECTION", &c.FirestoreCollection},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.dst = v
		}
	}

	if v, ok := lookup("BOIDS_PRUNE_MISSING"); ok {
		prune, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BOIDS_PRUNE_MISSING %q: %w", v, err)
		}
		c.PruneMissing = prune
	}
	return c.Validate()
}

// Validate checks the fields the schema cannot see once env overrides are applied.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceHTTP:
		if c.SnapshotURL == "" {
			return fmt.Errorf("snapshot url is required for the %s source", SourceHTTP)
		}
	case SourceFirestore:
		if c.FirestoreCollection == "" {
			return fmt.Errorf("firestore collection is required for the %s source", SourceFirestore)
		}
	default:
		return fmt.Errorf("unknown snapshot source %q", c.Source)
	}
	if c.TickIntervalMs <= 0 || c.SyncIntervalMs <= 0 || c.RequestTimeoutMs <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	if c.RedisAddr != "" && c.CacheTTLMs <= 0 {
		return fmt.Errorf("cache ttl must be positive when redis is set")
	}
	if c.ParamsURL == "" {
		if err := c.Params.Validate(); err != nil {
			return err
		}
	}
	return nil
}
