package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// DefaultRuntime is the launcher used for the parsing tool.
const DefaultRuntime = "java"

// DefaultEntrypoint is the main class of the benchmark entry point.
const DefaultEntrypoint = "org.ucfs.benchmarks.MemoryBenchmarkKt"

// CommandConfig holds the resolved launcher, classpath and entry point
// needed to run the parsing tool on one file.
type CommandConfig struct {
	Runtime    string
	Classpath  string
	Entrypoint string
	Tool       string
}

// Args returns the launcher arguments for a probe of file at memMB.
func (c CommandConfig) Args(memMB int, file string) []string {
	return []string{
		"-cp", c.Classpath,
		"-Xmx" + strconv.Itoa(memMB) + "m",
		c.Entrypoint,
		c.Tool,
		file,
	}
}

func (c CommandConfig) runtime() string {
	if c.Runtime == "" {
		return DefaultRuntime
	}

	return c.Runtime
}

// Build runs the gradle wrapper in projectDir so the classpath exists
// before the search starts.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	projectDir string,
	task string,
) error {
	gradlew := filepath.Join(projectDir, "gradlew")
	if _, err := os.Stat(gradlew); err != nil {
		return fmt.Errorf("locate gradle wrapper: %w", err)
	}

	logger.InfoContext(ctx, "building parser",
		slog.String("project_dir", projectDir),
		slog.String("task", task),
	)

	cmd := exec.CommandContext(ctx, gradlew, task)
	cmd.Dir = projectDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gradle %s: %w", task, err)
	}

	logger.InfoContext(ctx, "parser built",
		slog.String("project_dir", projectDir),
	)

	return nil
}
