// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/pkg/models"
)

const (
	PostgresDSNEnv = "CONCORDANCE_TEST_POSTGRES_DSN"
	RedisAddrEnv   = "CONCORDANCE_TEST_REDIS_ADDR"
)

var loadEnv sync.Once

// GetDSN returns the DSN of the test postgres database, or "" when
// integration tests are not configured.
func GetDSN() string {
	loadTestEnv()
	return os.Getenv(PostgresDSNEnv)
}

// GetRedisAddr returns the address of the test redis server, or "".
func GetRedisAddr() string {
	loadTestEnv()
	return os.Getenv(RedisAddrEnv)
}

func loadTestEnv() {
	loadEnv.Do(func() {
		projectRoot, err := FindProjectRoot()
		if err != nil {
			return
		}
		// a missing .env is fine
		_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
	})
}

// NewTestConfig returns the default config with placeholder deployments and
// the in-memory store.
func NewTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Store.Type = "memory"
	cfg.Concordance.AppName = "concordance-test"
	cfg.Watsonx.Deployments = config.DeploymentsConfig{
		AnalyzeV1:     "http://deployments.invalid/analyze_v1",
		AnalyzeV2:     "http://deployments.invalid/analyze_v2",
		Judge:         "http://deployments.invalid/judge",
		TestGenerator: "http://deployments.invalid/test_generator",
	}
	return cfg
}

// FindProjectRoot returns the absolute path to the project root directory.
func FindProjectRoot() (string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("could not get current file path")
	}

	dir := filepath.Dir(currentFilePath)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		// If we've reached the top-level directory, the project root is not found.
		if dir == filepath.Dir(dir) {
			return "", fmt.Errorf("project root not found")
		}

		dir = filepath.Dir(dir)
	}
}

const charset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		bigInt, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		b[i] = charset[bigInt.Int64()]
	}
	return string(b)
}

// Generation is one call seen by a ReplyGenerator.
type Generation struct {
	Purpose         models.Purpose
	PromptVariables map[string]string
}

// ReplyGenerator answers each purpose with a fixed reply. Purposes without a
// reply yield Err, or "" when Err is nil. It is safe for concurrent use.
type ReplyGenerator struct {
	Replies map[models.Purpose]string
	Err     error

	mu    sync.Mutex
	calls []Generation
}

func (g *ReplyGenerator) Generate(_ context.Context, req models.GenerationRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, Generation{Purpose: req.Purpose, PromptVariables: req.PromptVariables})
	if reply, ok := g.Replies[req.Purpose]; ok {
		return reply, nil
	}
	return "", g.Err
}

// Calls returns a copy of the calls made so far.
func (g *ReplyGenerator) Calls() []Generation {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Generation, len(g.calls))
	copy(out, g.calls)
	return out
}
