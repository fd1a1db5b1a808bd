package configuration

import (
	"fmt"
	"os"
	"strconv"

	"flowfarm/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Flow        Flow        `json:"flow"`
	Lanes       Lanes       `json:"lanes"`
	Database    Db          `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Poller      Poller      `json:"poller"`
}

type App struct {
	Port int `json:"port"`
}

// Flow holds the provider endpoints and the ambient credentials used to build
// the fallback lane when the pool is empty.
type Flow struct {
	BaseURL          string `json:"baseURL"`
	UploadURL        string `json:"uploadURL"`
	DefaultCookies   string `json:"defaultCookies"`
	DefaultSession   string `json:"defaultSession"`
	DefaultProxy     string `json:"defaultProxy"`
	DefaultProjectID string `json:"defaultProjectId"`
	DefaultSceneID   string `json:"defaultSceneId"`
	MaxRetries       int    `json:"maxRetries"`
	RefreshCronSpec  string `json:"refreshCronSpec"`
}

// Lanes selects the credential store backend and the initial pool.
type Lanes struct {
	Store     string   `json:"store"` // file | postgres
	FilePath  string   `json:"filePath"`
	PoolNames []string `json:"poolNames"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Poller struct {
	IntervalMs  int `json:"intervalMs"`
	MaxAttempts int `json:"maxAttempts"`
}

var C Config

func init() {
	LoadConfig()
	initApp(&C)
	initFlow(&C)
	initLanes(&C)
	initDatabase(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10090
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10090
	}
}

func initFlow(C *Config) {
	if C.Flow.BaseURL == "" {
		C.Flow.BaseURL = os.Getenv("FLOW_BASE_URL")
	}
	if C.Flow.BaseURL == "" {
		C.Flow.BaseURL = "https://labs.google/fx/api/trpc"
	}
	if C.Flow.UploadURL == "" {
		C.Flow.UploadURL = os.Getenv("FLOW_UPLOAD_URL")
	}
	if C.Flow.UploadURL == "" {
		C.Flow.UploadURL = "https://labs.google/fx/api/media"
	}
	if C.Flow.DefaultCookies == "" {
		C.Flow.DefaultCookies = os.Getenv("FLOW_COOKIES")
	}
	if C.Flow.DefaultSession == "" {
		C.Flow.DefaultSession = os.Getenv("FLOW_SESSION_TOKEN")
	}
	if C.Flow.DefaultProxy == "" {
		C.Flow.DefaultProxy = os.Getenv("FLOW_PROXY")
	}
	if C.Flow.DefaultProjectID == "" {
		C.Flow.DefaultProjectID = os.Getenv("FLOW_PROJECT_ID")
	}
	if C.Flow.DefaultSceneID == "" {
		C.Flow.DefaultSceneID = os.Getenv("FLOW_SCENE_ID")
	}
	if C.Flow.MaxRetries == 0 {
		C.Flow.MaxRetries = 5
	}
	if C.Flow.RefreshCronSpec == "" {
		C.Flow.RefreshCronSpec = "@every 10m"
	}
}

func initLanes(C *Config) {
	if v := os.Getenv("LANE_STORE"); v != "" {
		C.Lanes.Store = v
	}
	if C.Lanes.Store == "" {
		C.Lanes.Store = "file"
	}
	if v := os.Getenv("LANE_FILE"); v != "" {
		C.Lanes.FilePath = v
	}
	if C.Lanes.FilePath == "" {
		C.Lanes.FilePath = "lanes.json"
	}
}

func initDatabase(C *Config) {
	if C.Database.Name == "" {
		C.Database.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Host == "" {
		C.Database.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Port == "" {
		C.Database.Port = os.Getenv("DB_PORT")
	}
	if C.Database.User == "" {
		C.Database.User = os.Getenv("DB_USER")
	}
	if C.Database.Password == "" {
		C.Database.Password = os.Getenv("DB_PASSWORD")
	}
}
