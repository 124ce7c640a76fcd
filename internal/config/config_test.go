package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "admin")
	t.Setenv("DB_NAME", "realty")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ModeLocal, cfg.DeploymentMode)
	require.Equal(t, FileStoreLocal, cfg.FileStore)
	require.Equal(t, TokenStorePostgres, cfg.TokenStore)
	require.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	require.Equal(t, 12, cfg.BcryptCost)
	require.Equal(t, 1, cfg.UploadWorkers)
	require.Equal(t, int64(32<<20), cfg.MaxUploadBytes())

	_, err = cfg.Validate()
	require.NoError(t, err)
}

func TestLoadConfig_RenderDeploymentSelectsRemote(t *testing.T) {
	t.Setenv("RENDER_DEPLOYMENT", "true")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("DATABASE_URL", "postgres://u:p@db.abc.supabase.co:5432/postgres")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ModeRemote, cfg.DeploymentMode)
	require.Equal(t, FileStoreS3, cfg.FileStore)
	require.Equal(t, "https://abc.supabase.co/storage/v1/object/public/images", cfg.S3PublicURL)
	require.Equal(t, "postgres://u:p@db.abc.supabase.co:5432/postgres", cfg.GetDSN())
	require.Equal(t, "***", cfg.GetDSNSafe())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DeploymentMode: ModeLocal,
			DbHost:         "localhost",
			DbUser:         "admin",
			DbName:         "realty",
			FileStore:      FileStoreLocal,
			StaticDir:      "static/images",
			TokenStore:     TokenStorePostgres,
			MailTransport:  MailSMTP,
			SMTPHost:       "smtp.example.com",
			JWTSecret:      "secret",
			BcryptCost:     12,
		}
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "unknown mode", mutate: func(c *Config) { c.DeploymentMode = "cloud" }, wantErr: true},
		{name: "no db", mutate: func(c *Config) { c.DbHost = "" }, wantErr: true},
		{name: "database url instead of parts", mutate: func(c *Config) { c.DbHost = ""; c.DatabaseURL = "postgres://x" }},
		{name: "unknown file store", mutate: func(c *Config) { c.FileStore = "ftp" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.FileStore = FileStoreS3; c.S3Bucket = "" }, wantErr: true},
		{name: "unknown token store", mutate: func(c *Config) { c.TokenStore = "memcached" }, wantErr: true},
		{name: "unknown mail transport", mutate: func(c *Config) { c.MailTransport = "pigeon" }, wantErr: true},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.BcryptCost = 2 }, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			_, err := c.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	c := &Config{
		DeploymentMode: ModeLocal,
		DatabaseURL:    "postgres://x",
		FileStore:      FileStoreLocal,
		StaticDir:      "static/images",
		TokenStore:     TokenStoreRedis,
		MailTransport:  MailSMTP,
		BcryptCost:     10,
	}
	warnings, err := c.Validate()
	require.NoError(t, err)
	require.Contains(t, warnings, "SMTP is not fully configured")
	require.Contains(t, warnings, "JWT_SECRET is empty, upload route is not guarded")
	require.Len(t, warnings, 3)
}
