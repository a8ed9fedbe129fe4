package deploycheck

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/mod/semver"
)

const probeTimeout = 5 * time.Second

// GoVersion passes when runtimeVersion (as reported by runtime.Version) is
// at least min, e.g. "1.22".
func GoVersion(runtimeVersion, min string) Check {
	return Check{
		Name: "Go version",
		Hint: "install Go " + min + " or newer",
		Run: func(ctx context.Context) (string, error) {
			have := toSemver(runtimeVersion)
			want := toSemver(min)
			if !semver.IsValid(want) {
				return "", fmt.Errorf("invalid minimum version %q", min)
			}
			if !semver.IsValid(have) {
				return "", fmt.Errorf("cannot parse runtime version %q", runtimeVersion)
			}
			if semver.Compare(have, want) < 0 {
				return "", fmt.Errorf("%s is older than %s", runtimeVersion, min)
			}
			return runtimeVersion + " (>= " + min + ")", nil
		},
	}
}

// toSemver turns "go1.22.3", "1.22" or a development version such as
// "devel go1.26-abc123 Tue Jan 1" into "v1.22.3", "v1.22" and "v1.26".
func toSemver(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.Index(v, "go"); i >= 0 {
		v = v[i+len("go"):]
	}
	if i := strings.IndexAny(v, " -+"); i >= 0 {
		v = v[:i]
	}
	return "v" + v
}

// ConfigLoads passes when load succeeds.
func ConfigLoads(load func() error) Check {
	return Check{
		Name: "Configuration",
		Hint: "fix config.yaml or the environment variables it names",
		Run: func(ctx context.Context) (string, error) {
			if err := load(); err != nil {
				return "", err
			}
			return "loaded", nil
		},
	}
}

// SettingsContain passes when the file at path contains every literal in
// required.
func SettingsContain(path string, required []string) Check {
	return Check{
		Name: "Settings file",
		Hint: "add the missing entries to " + path,
		Run: func(ctx context.Context) (string, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			var missing []string
			for _, s := range required {
				if !strings.Contains(string(data), s) {
					missing = append(missing, s)
				}
			}
			if len(missing) > 0 {
				return "", fmt.Errorf("%s is missing %s", path, strings.Join(quoteAll(missing), ", "))
			}
			return fmt.Sprintf("%s has %d required entries", path, len(required)), nil
		},
	}
}

// FilesExist passes when every path exists.
func FilesExist(paths []string) Check {
	return Check{
		Name: "Required files",
		Hint: "create the missing files or run from the project root",
		Run: func(ctx context.Context) (string, error) {
			var missing []string
			for _, p := range paths {
				if _, err := os.Stat(p); err != nil {
					missing = append(missing, p)
				}
			}
			if len(missing) > 0 {
				return "", fmt.Errorf("missing %s", strings.Join(missing, ", "))
			}
			return fmt.Sprintf("%d present", len(paths)), nil
		},
	}
}

// Database passes when a SELECT 1 round trip on dsn returns 1. An empty dsn
// means storage is not on PostgreSQL and the check is skipped.
func Database(dsn string) Check {
	return Check{
		Name: "Database",
		Hint: "check DATABASE_URL and that PostgreSQL accepts connections",
		Run: func(ctx context.Context) (string, error) {
			if dsn == "" {
				return "skipped (no database configured)", nil
			}
			ctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()

			conn, err := pgx.Connect(ctx, dsn)
			if err != nil {
				return "", fmt.Errorf("connect: %w", err)
			}
			defer conn.Close(context.Background()) //nolint:errcheck

			var one int
			if err := conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
				return "", fmt.Errorf("select 1: %w", err)
			}
			if one != 1 {
				return "", fmt.Errorf("select 1 returned %d", one)
			}
			return "SELECT 1 ok", nil
		},
	}
}

// StaticAssets passes when every name resolves in fsys.
func StaticAssets(fsys fs.FS, names []string) Check {
	return Check{
		Name: "Static assets",
		Hint: "rebuild the binary so the embedded assets are current",
		Run: func(ctx context.Context) (string, error) {
			var missing []string
			for _, n := range names {
				if _, err := fs.Stat(fsys, n); err != nil {
					missing = append(missing, n)
				}
			}
			if len(missing) > 0 {
				return "", fmt.Errorf("not embedded: %s", strings.Join(missing, ", "))
			}
			return fmt.Sprintf("%d assets embedded", len(names)), nil
		},
	}
}

// Redis passes when the server at url answers PING. An empty url means
// sessions are not stored in Redis and the check is skipped.
func Redis(url string) Check {
	return Check{
		Name: "Redis",
		Hint: "check REDIS_URL and that Redis is running",
		Run: func(ctx context.Context) (string, error) {
			if url == "" {
				return "skipped (redis sessions not configured)", nil
			}
			opts, err := goredis.ParseURL(url)
			if err != nil {
				return "", err
			}
			client := goredis.NewClient(opts)
			defer client.Close() //nolint:errcheck

			ctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			pong, err := client.Ping(ctx).Result()
			if err != nil {
				return "", err
			}
			if pong != "PONG" {
				return "", errors.New("unexpected reply " + pong)
			}
			return "PONG", nil
		},
	}
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
