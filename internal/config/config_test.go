package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
http_server:
  address: localhost:8082
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "localhost:8082", cfg.Addr)
	require.Equal(t, BackendMemory, cfg.Storage.Backend)
	require.Equal(t, 0, cfg.Students.MinAge)
	require.Equal(t, 150, cfg.Students.MaxAge)
	require.False(t, cfg.Students.ClassYearNullable)
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
env: prod
http_server:
  address: :9000
storage:
  backend: sqlite
  dsn: storage/students.db
students:
  min_age: 5
  max_age: 120
  class_year_nullable: true
  seed: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendSQLite, cfg.Storage.Backend)
	require.Equal(t, "storage/students.db", cfg.Storage.DSN)
	require.Equal(t, Students{MinAge: 5, MaxAge: 120, ClassYearNullable: true, Seed: true}, cfg.Students)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
env: dev
http_server:
  address: localhost:8082
`)
	t.Setenv("STUDENTS_MIN_AGE", "5")
	t.Setenv("HTTP_SERVER_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Students.MinAge)
	require.Equal(t, ":7000", cfg.Addr)
}

func TestLoadFromEnvOnly(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("HTTP_SERVER_ADDR", ":8080")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("STORAGE_DSN", "postgres://u:p@localhost:5432/students")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, BackendPostgres, cfg.Storage.Backend)
	require.Equal(t, "postgres://u:p@localhost:5432/students", cfg.Storage.DSN)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"persisted backend without dsn": `
env: dev
http_server: {address: ":1"}
storage: {backend: sqlite}
`,
		"unknown backend": `
env: dev
http_server: {address: ":1"}
storage: {backend: redis}
`,
		"inverted age bounds": `
env: dev
http_server: {address: ":1"}
students: {min_age: 10, max_age: 5}
`,
		"unknown env": `
env: qa
http_server: {address: ":1"}
`,
		"missing address": `
env: dev
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
