package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あればPOSTGRES_*より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	GoEnv     string // dev/prod
	APIDomain string // APIドメイン（コールバックURLやCORSなどで使う）
	FEURL     string // フロントURL（CORSなどで使う）

	Momo MomoConfig

	NATSURL        string        // 空ならイベントはログだけ
	RedisAddr      string        // 空ならキャッシュなし
	ReplayCacheTTL time.Duration // 終端ステータスのキャッシュ期間
}

// 決済ゲートウェイ（MoMo）
type MomoConfig struct {
	Endpoint    string
	PartnerCode string
	AccessKey   string
	SecretKey   string
	RequestType string
	RedirectURL string
	IPNURL      string
	Timeout     time.Duration

	SuccessCode int // 既定 0
	CancelCode  int // 既定 1006

	//falseならリダイレクトは結果を反映しない
	ReturnAppliesResult bool
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:     os.Getenv("GO_ENV"),
		APIDomain: os.Getenv("API_DOMAIN"),
		FEURL:     os.Getenv("FE_URL"),

		NATSURL:   os.Getenv("NATS_URL"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
	}

	//DATABASE_URLが無いときだけPOSTGRES_*を必須にする
	if cfg.DatabaseURL == "" {
		pgPort, err := mustAtoi("POSTGRES_PORT")
		if err != nil {
			return Config{}, err
		}
		cfg.PostgresPort = pgPort

		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.APIDomain == "" {
		return Config{}, fmt.Errorf("API_DOMAIN is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}

	momo, err := loadMomo(cfg.APIDomain)
	if err != nil {
		return Config{}, err
	}
	cfg.Momo = momo

	ttlSec, err := getenvInt("REPLAY_CACHE_TTL_SEC", 24*60*60)
	if err != nil {
		return Config{}, err
	}
	cfg.ReplayCacheTTL = time.Duration(ttlSec) * time.Second

	return cfg, nil
}

func loadMomo(apiDomain string) (MomoConfig, error) {
	m := MomoConfig{
		Endpoint:    os.Getenv("MOMO_ENDPOINT"),
		PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
		AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
		SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
		RequestType: getenv("MOMO_REQUEST_TYPE", "captureWallet"),
	}

	if m.Endpoint == "" {
		return MomoConfig{}, fmt.Errorf("MOMO_ENDPOINT is required")
	}
	if m.PartnerCode == "" {
		return MomoConfig{}, fmt.Errorf("MOMO_PARTNER_CODE is required")
	}
	if m.AccessKey == "" {
		return MomoConfig{}, fmt.Errorf("MOMO_ACCESS_KEY is required")
	}
	if m.SecretKey == "" {
		return MomoConfig{}, fmt.Errorf("MOMO_SECRET_KEY is required")
	}

	//コールバック先。未指定ならAPI_DOMAINから作る
	base := strings.TrimRight(apiDomain, "/")
	m.RedirectURL = getenv("MOMO_REDIRECT_URL", base+"/payments/momo/return")
	m.IPNURL = getenv("MOMO_IPN_URL", base+"/payments/momo/ipn")

	var err error
	if m.SuccessCode, err = getenvInt("MOMO_SUCCESS_CODE", 0); err != nil {
		return MomoConfig{}, err
	}
	if m.CancelCode, err = getenvInt("MOMO_CANCEL_CODE", 1006); err != nil {
		return MomoConfig{}, err
	}
	if m.SuccessCode == m.CancelCode {
		return MomoConfig{}, fmt.Errorf("MOMO_SUCCESS_CODE and MOMO_CANCEL_CODE must differ")
	}
	timeoutMS, err := getenvInt("MOMO_TIMEOUT_MS", 10000)
	if err != nil {
		return MomoConfig{}, err
	}
	m.Timeout = time.Duration(timeoutMS) * time.Millisecond

	if m.ReturnAppliesResult, err = getenvBool("MOMO_RETURN_APPLIES_RESULT", true); err != nil {
		return MomoConfig{}, err
	}

	return m, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}
