package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiztaker/internal/config"
	"quiztaker/internal/domain"
	"quiztaker/internal/identity"
	"quiztaker/internal/infra/sqlite"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedAndCleanupAgainstSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "quiz.db")
	cfgPath := writeConfig(t, fmt.Sprintf("log:\n  level: error\nsqlite:\n  path: %s\n", dbPath))

	_, err := run(t, "seed", "--config", cfgPath)
	require.NoError(t, err)

	ctx := context.Background()
	store, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	quizzes, err := store.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	_, err = store.InsertSession(ctx, domain.SessionRecord{QuizID: quizzes[0].ID, Score: 1, TotalQuestions: 3, CompletedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := run(t, "cleanup-anonymous", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, "deleted 1 anonymous sessions")
}

func TestSeedRejectsMemoryStore(t *testing.T) {
	cfgPath := writeConfig(t, "log:\n  level: error\n")
	_, err := run(t, "seed", "--config", cfgPath)
	require.ErrorContains(t, err, "persistent store")
}

func TestTokenCommand(t *testing.T) {
	cfgPath := writeConfig(t, "log:\n  level: error\nidentity:\n  jwt_secret: cli-secret\n")
	out, err := run(t, "token", "--config", cfgPath, "--user", "u7", "--email", "u7@example.com", "--ttl", "1h")
	require.NoError(t, err)

	user, err := identity.NewVerifier("cli-secret").CurrentUser(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, &domain.User{ID: "u7", Email: "u7@example.com"}, user)
}

func TestListenPort(t *testing.T) {
	var fromFile config.Config
	fromFile.Server.Port = "9090"

	require.Equal(t, "7070", listenPort("7070", fromFile))
	require.Equal(t, "9090", listenPort("", fromFile))
	require.Equal(t, defaultPort, listenPort("", config.Config{}))
}

func TestPortFlagDefaultsToEnv(t *testing.T) {
	t.Setenv("PORT", "")
	flag := newRootCmd().PersistentFlags().Lookup("port")
	require.Equal(t, "", flag.DefValue)

	t.Setenv("PORT", "6060")
	flag = newRootCmd().PersistentFlags().Lookup("port")
	require.Equal(t, "6060", flag.DefValue)
}
