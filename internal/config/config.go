package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig         `mapstructure:"server"`
	Database   DatabaseConfig       `mapstructure:"database"`
	Redis      RedisConfig          `mapstructure:"redis"`
	Neo4j      Neo4jConfig          `mapstructure:"neo4j"`
	Kafka      KafkaConfig          `mapstructure:"kafka"`
	Auth       AuthConfig           `mapstructure:"auth"`
	Logging    LoggingConfig        `mapstructure:"logging"`
	Recs       RecommendationConfig `mapstructure:"recommendation"`
	Scheduler  SchedulerConfig      `mapstructure:"scheduler"`
	Monitoring MonitoringConfig     `mapstructure:"monitoring"`
	Security   SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Hot  RedisInstanceConfig `mapstructure:"hot"`
	Warm RedisInstanceConfig `mapstructure:"warm"`
	Cold RedisInstanceConfig `mapstructure:"cold"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Neo4jConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		UserInteractions string `mapstructure:"user_interactions"`
	} `mapstructure:"topics"`
	ConsumerGroup string `mapstructure:"consumer_group"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecommendationConfig is the full configuration surface named by §6:
// weight knobs, thresholds, factors, TTLs, caps, and feature flags.
type RecommendationConfig struct {
	Weights                      WeightConfig      `mapstructure:"weights"`
	MinInteractionsForConfidence int               `mapstructure:"min_interactions_for_confidence"`
	MinConfidenceToPersonalize   float64           `mapstructure:"min_confidence_to_personalize"`
	PersonalizationFactor        float64           `mapstructure:"personalization_factor"`
	DiversityFactor              float64           `mapstructure:"diversity_factor"`
	ExplorationFactor            float64           `mapstructure:"exploration_factor"`
	ContentRecExpiry             time.Duration     `mapstructure:"content_rec_expiry"`
	GroupRecExpiry               time.Duration     `mapstructure:"group_rec_expiry"`
	MaxActivePerUser             int               `mapstructure:"max_active_per_user"`
	CandidatePoolCap             int               `mapstructure:"candidate_pool_cap"`
	DecayPerDay                  float64           `mapstructure:"decay_per_day"`
	RealtimeBlend                RealtimeBlend     `mapstructure:"realtime_blend"`
	GroupWeights                 GroupWeightConfig `mapstructure:"group_weights"`
	Personality                  PersonalityConfig `mapstructure:"personality"`
	Features                     FeatureFlags      `mapstructure:"features"`
	CacheTTLs                    CacheTTLConfig    `mapstructure:"cache_ttls"`
}

// WeightConfig is the scoring-function blend; the builder MUST fail fast if
// these do not sum to 1 within 1e-6.
type WeightConfig struct {
	Genre    float64 `mapstructure:"genre"`
	Rating   float64 `mapstructure:"rating"`
	Platform float64 `mapstructure:"platform"`
	Era      float64 `mapstructure:"era"`
}

func (w WeightConfig) Sum() float64 {
	return w.Genre + w.Rating + w.Platform + w.Era
}

// RealtimeBlend is the Open-Question-resolved collaborative/trending ratio
// used by GET /recommendations/realtime when no mediaId is given.
type RealtimeBlend struct {
	Collaborative float64 `mapstructure:"collaborative"`
	Trending      float64 `mapstructure:"trending"`
}

// GroupWeightConfig backs the group-suggestion score:
// alpha*meanMemberCompatibility + beta*groupActivityLevel + gamma*sizeFit + delta*genreCompatibility.
type GroupWeightConfig struct {
	Alpha float64 `mapstructure:"alpha"`
	Beta  float64 `mapstructure:"beta"`
	Gamma float64 `mapstructure:"gamma"`
	Delta float64 `mapstructure:"delta"`
}

func (g GroupWeightConfig) Sum() float64 {
	return g.Alpha + g.Beta + g.Gamma + g.Delta
}

// PersonalityConfig exposes the classification thresholds left as an Open
// Question by spec.md; defaults are documented in DESIGN.md.
type PersonalityConfig struct {
	BingeInteractionsPerWeek float64 `mapstructure:"binge_interactions_per_week"`
	CriticMinRatingCount     int     `mapstructure:"critic_min_rating_count"`
	CriticMaxVariance        float64 `mapstructure:"critic_max_variance"`
	ExplorerMinDiversity     float64 `mapstructure:"explorer_min_diversity"`
	ComfortMaxDiversity      float64 `mapstructure:"comfort_max_diversity"`
	CompletionistMinRate     float64 `mapstructure:"completionist_min_completion_rate"`
	SamplerMaxCompletionRate float64 `mapstructure:"sampler_max_completion_rate"`
	TrendyMinOverlap         float64 `mapstructure:"trendy_min_trending_overlap"`
}

type FeatureFlags struct {
	EnableCollaborative bool `mapstructure:"enable_collaborative"`
	EnableContentBased  bool `mapstructure:"enable_content_based"`
	EnableTrending      bool `mapstructure:"enable_trending"`
	EnableSeasonal      bool `mapstructure:"enable_seasonal"`
	EnableExperimental  bool `mapstructure:"enable_experimental"`
}

type CacheTTLConfig struct {
	Trending      time.Duration `mapstructure:"trending"`
	Analytics     time.Duration `mapstructure:"analytics"`
	Insights      time.Duration `mapstructure:"insights"`
	Compatibility time.Duration `mapstructure:"compatibility"`
	PreferenceMap time.Duration `mapstructure:"preference_map"`
	ReadThrough   time.Duration `mapstructure:"read_through"`
}

// SchedulerConfig drives the cron jobs and the generation worker pool.
type SchedulerConfig struct {
	EnableSchedulers         bool          `mapstructure:"enable_schedulers"`
	DailyGenerationCron      string        `mapstructure:"daily_generation_cron"`
	ActiveUsersRefreshCron   string        `mapstructure:"active_users_refresh_cron"`
	EvictionSweepCron        string        `mapstructure:"eviction_sweep_cron"`
	ActiveUsersHoursBack     int           `mapstructure:"active_users_hours_back"`
	GenerationThreadPoolSize int           `mapstructure:"generation_thread_pool_size"`
	EvictionGraceWindow      time.Duration `mapstructure:"eviction_grace_window"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Port        string `mapstructure:"port"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerWindow int           `mapstructure:"requests_per_window"`
	Window            time.Duration `mapstructure:"window"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SHOWSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate enforces the invariants §6/§7 declare fatal at startup: weights
// must sum to 1 within 1e-6, and thresholds must sit in their valid ranges.
// An invalid config is never silently corrected.
func Validate(cfg *Config) error {
	const eps = 1e-6

	if math.Abs(cfg.Recs.Weights.Sum()-1.0) > eps {
		return fmt.Errorf("recommendation.weights must sum to 1.0 (genre=%.4f rating=%.4f platform=%.4f era=%.4f sums to %.6f)",
			cfg.Recs.Weights.Genre, cfg.Recs.Weights.Rating, cfg.Recs.Weights.Platform, cfg.Recs.Weights.Era, cfg.Recs.Weights.Sum())
	}

	if math.Abs(cfg.Recs.GroupWeights.Sum()-1.0) > eps {
		return fmt.Errorf("recommendation.group_weights must sum to 1.0, sums to %.6f", cfg.Recs.GroupWeights.Sum())
	}

	if math.Abs(cfg.Recs.RealtimeBlend.Collaborative+cfg.Recs.RealtimeBlend.Trending-1.0) > eps {
		return fmt.Errorf("recommendation.realtime_blend must sum to 1.0")
	}

	if cfg.Recs.MinConfidenceToPersonalize < 0 || cfg.Recs.MinConfidenceToPersonalize > 1 {
		return fmt.Errorf("recommendation.min_confidence_to_personalize must be in [0,1]")
	}

	if cfg.Recs.DiversityFactor < 0 || cfg.Recs.DiversityFactor > 1 {
		return fmt.Errorf("recommendation.diversity_factor must be in [0,1]")
	}

	if cfg.Recs.DecayPerDay < 0 || cfg.Recs.DecayPerDay > 1 {
		return fmt.Errorf("recommendation.decay_per_day must be in [0,1]")
	}

	if cfg.Recs.MaxActivePerUser <= 0 {
		return fmt.Errorf("recommendation.max_active_per_user must be positive")
	}

	if cfg.Scheduler.GenerationThreadPoolSize <= 0 {
		return fmt.Errorf("scheduler.generation_thread_pool_size must be positive")
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	viper.SetDefault("redis.hot.max_retries", 3)
	viper.SetDefault("redis.hot.pool_size", 10)
	viper.SetDefault("redis.hot.timeout", "5s")
	viper.SetDefault("redis.warm.max_retries", 3)
	viper.SetDefault("redis.warm.pool_size", 10)
	viper.SetDefault("redis.warm.timeout", "10s")
	viper.SetDefault("redis.cold.max_retries", 3)
	viper.SetDefault("redis.cold.pool_size", 5)
	viper.SetDefault("redis.cold.timeout", "15s")

	viper.SetDefault("kafka.topics.user_interactions", "user_interactions")
	viper.SetDefault("kafka.consumer_group", "reccore")

	viper.SetDefault("auth.token_ttl", "24h")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("recommendation.weights.genre", 0.4)
	viper.SetDefault("recommendation.weights.rating", 0.3)
	viper.SetDefault("recommendation.weights.platform", 0.15)
	viper.SetDefault("recommendation.weights.era", 0.15)

	viper.SetDefault("recommendation.min_interactions_for_confidence", 5)
	viper.SetDefault("recommendation.min_confidence_to_personalize", 0.3)
	viper.SetDefault("recommendation.personalization_factor", 1.2)
	viper.SetDefault("recommendation.diversity_factor", 0.3)
	viper.SetDefault("recommendation.exploration_factor", 0.05)
	viper.SetDefault("recommendation.content_rec_expiry", "336h") // 14 days
	viper.SetDefault("recommendation.group_rec_expiry", "168h")   // 7 days
	viper.SetDefault("recommendation.max_active_per_user", 50)
	viper.SetDefault("recommendation.candidate_pool_cap", 500)
	viper.SetDefault("recommendation.decay_per_day", 0.995)

	viper.SetDefault("recommendation.realtime_blend.collaborative", 0.7)
	viper.SetDefault("recommendation.realtime_blend.trending", 0.3)

	viper.SetDefault("recommendation.group_weights.alpha", 0.4)
	viper.SetDefault("recommendation.group_weights.beta", 0.2)
	viper.SetDefault("recommendation.group_weights.gamma", 0.15)
	viper.SetDefault("recommendation.group_weights.delta", 0.25)

	viper.SetDefault("recommendation.personality.binge_interactions_per_week", 10)
	viper.SetDefault("recommendation.personality.critic_min_rating_count", 20)
	viper.SetDefault("recommendation.personality.critic_max_variance", 1.5)
	viper.SetDefault("recommendation.personality.explorer_min_diversity", 0.7)
	viper.SetDefault("recommendation.personality.comfort_max_diversity", 0.2)
	viper.SetDefault("recommendation.personality.completionist_min_completion_rate", 0.85)
	viper.SetDefault("recommendation.personality.sampler_max_completion_rate", 0.25)
	viper.SetDefault("recommendation.personality.trendy_min_trending_overlap", 0.5)

	viper.SetDefault("recommendation.features.enable_collaborative", true)
	viper.SetDefault("recommendation.features.enable_content_based", true)
	viper.SetDefault("recommendation.features.enable_trending", true)
	viper.SetDefault("recommendation.features.enable_seasonal", false)
	viper.SetDefault("recommendation.features.enable_experimental", false)

	viper.SetDefault("recommendation.cache_ttls.trending", "6h")
	viper.SetDefault("recommendation.cache_ttls.analytics", "6h")
	viper.SetDefault("recommendation.cache_ttls.insights", "1h")
	viper.SetDefault("recommendation.cache_ttls.compatibility", "12h")
	viper.SetDefault("recommendation.cache_ttls.preference_map", "6h")
	viper.SetDefault("recommendation.cache_ttls.read_through", "60s")

	viper.SetDefault("scheduler.enable_schedulers", true)
	viper.SetDefault("scheduler.daily_generation_cron", "15 3 * * *")
	viper.SetDefault("scheduler.active_users_refresh_cron", "10 * * * *")
	viper.SetDefault("scheduler.eviction_sweep_cron", "0 */6 * * *")
	viper.SetDefault("scheduler.active_users_hours_back", 24)
	viper.SetDefault("scheduler.generation_thread_pool_size", 8)
	viper.SetDefault("scheduler.eviction_grace_window", "720h") // 30 days

	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.port", "9090")
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})

	viper.SetDefault("security.rate_limit.requests_per_window", 120)
	viper.SetDefault("security.rate_limit.window", "1m")
}
