package manager

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"assistd/internal/config"
	"assistd/internal/gateway"
	"assistd/internal/registry"
	"assistd/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxInflight   = config.DefaultMaxInflightPerModel
	defaultMaxQueueDepth = config.DefaultMaxQueueDepth
	defaultMaxWait       = config.DefaultMaxWaitSeconds * time.Second
	persistTimeout       = 5 * time.Second
)

// Profiler produces the current hardware profile. It never fails.
type Profiler interface {
	Profile(ctx context.Context) types.HardwareProfile
}

// Generator is the inference server as seen by the manager.
type Generator interface {
	Generate(ctx context.Context, model, system, user string) (string, error)
	EnsureModel(ctx context.Context, name string) (*gateway.ProvisionWarning, error)
	ListModels(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// Store persists conversation records.
type Store interface {
	Save(ctx context.Context, rec types.ConversationRecord) error
	Get(ctx context.Context, id string) (types.ConversationRecord, error)
	List(ctx context.Context, limit, offset int) ([]types.ConversationRecord, error)
	Search(ctx context.Context, query string, limit int) ([]types.ConversationRecord, error)
	Count(ctx context.Context) (int64, error)
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Profiler  Profiler
	Generator Generator
	Store     Store
	// Catalog defaults to registry.Default().
	Catalog *registry.Catalog
	// Personas maps a category to its system prompt. Missing categories use
	// the built-in personas.
	Personas map[string]string

	MaxInflightPerModel int
	MaxQueueDepth       int
	MaxWait             time.Duration

	Logger    *zerolog.Logger
	Publisher EventPublisher

	// Clock and id source; tests override them.
	Now   func() time.Time
	NewID func() string
}

// FromConfig maps the file configuration onto ManagerConfig. Collaborators
// are left for the caller to fill in.
func FromConfig(cfg config.Config) ManagerConfig {
	return ManagerConfig{
		Catalog:             registry.FromConfig(cfg),
		Personas:            cfg.Personas,
		MaxInflightPerModel: cfg.Manager.MaxInflightPerModel,
		MaxQueueDepth:       cfg.Manager.MaxQueueDepth,
		MaxWait:             time.Duration(cfg.Manager.MaxWaitSeconds) * time.Second,
	}
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:     StateIdle,
		profiler:  cfg.Profiler,
		gen:       cfg.Generator,
		store:     cfg.Store,
		catalog:   cfg.Catalog,
		instances: make(map[string]*Instance),
		pub:       cfg.Publisher,
		log:       zerolog.Nop(),
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	if m.catalog == nil {
		m.catalog = registry.Default()
	}
	m.personas = config.Default().Personas
	for cat, p := range cfg.Personas {
		if p != "" {
			m.personas[normalizeCategory(cat)] = p
		}
	}
	// Apply defaults if unset
	if cfg.MaxInflightPerModel <= 0 {
		m.maxInflight = defaultMaxInflight
	} else {
		m.maxInflight = cfg.MaxInflightPerModel
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	// A queue shallower than the in-flight bound would cap concurrency below it.
	if m.maxQueueDepth < m.maxInflight {
		m.maxQueueDepth = m.maxInflight
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	if m.pub == nil {
		m.pub = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	m.startTime = m.now()
	return m
}
