package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/replware/replace/pkg/config"
	"github.com/replware/replace/pkg/userlog"
)

func testLogger() *userlog.Logger {
	return userlog.New(io.Discard, zerolog.New(io.Discard), false)
}

func rules(rs ...config.Rule) *config.Config {
	return &config.Config{Rules: rs}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{UserLog: testLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one replacement rule")

	_, err = New(Options{Rules: rules(config.Rule{From: "a", To: "b"})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user logger")

	_, err = New(Options{Rules: rules(config.Rule{From: "a", To: "b"}), UserLog: testLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin and stdout")
}

func TestRunner_Stdin(t *testing.T) {
	var out bytes.Buffer
	r, err := New(Options{
		Rules:   rules(config.Rule{From: "foo", To: "bar"}),
		Stdin:   strings.NewReader("foo fighters\nno match\n"),
		Stdout:  &out,
		UserLog: testLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "bar fighters\nno match\n", out.String())
}

// brokenWriter rejects every write.
type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestRunner_StdinFailureIsStreamFailure(t *testing.T) {
	r, err := New(Options{
		Rules:   rules(config.Rule{From: "a", To: "b"}),
		Stdin:   strings.NewReader(strings.Repeat("aaaa\n", 10000)),
		Stdout:  brokenWriter{},
		UserLog: testLogger(),
	})
	require.NoError(t, err)

	err = r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStreamFailed))
	assert.False(t, errors.Is(err, ErrFilesFailed))
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestRunner_Files(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "cat\n")
	b := writeFile(t, dir, "b.txt", "cat and cat\n")

	r, err := New(Options{
		Rules:   rules(config.Rule{From: "cat", To: "dog"}),
		Files:   []string{a, b},
		UserLog: testLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))

	gotA, _ := os.ReadFile(a)
	gotB, _ := os.ReadFile(b)
	assert.Equal(t, "dog\n", string(gotA))
	assert.Equal(t, "dog and dog\n", string(gotB))
}

func TestRunner_ContinuesPastFailedFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "cat\n")
	missing := filepath.Join(dir, "missing.txt")
	c := writeFile(t, dir, "c.txt", "cat\n")

	r, err := New(Options{
		Rules:   rules(config.Rule{From: "cat", To: "dog"}),
		Files:   []string{a, missing, c},
		UserLog: testLogger(),
	})
	require.NoError(t, err)

	err = r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFilesFailed))

	// The surviving files were still converted.
	gotA, _ := os.ReadFile(a)
	gotC, _ := os.ReadFile(c)
	assert.Equal(t, "dog\n", string(gotA))
	assert.Equal(t, "dog\n", string(gotC))
}

func TestRunner_GlobFilteredRules(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "doc.md", "cat\n")
	txt := writeFile(t, dir, "doc.txt", "cat\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	r, err := New(Options{
		Rules: rules(
			config.Rule{From: "cat", To: "dog", Files: "*.md"},
		),
		Files:   []string{"doc.md", "doc.txt"},
		UserLog: testLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))

	gotMD, _ := os.ReadFile(md)
	gotTXT, _ := os.ReadFile(txt)
	assert.Equal(t, "dog\n", string(gotMD), "rule glob matches the markdown file")
	assert.Equal(t, "cat\n", string(gotTXT), "filtered-out file is untouched")
}

func TestRunner_ParallelMatchesSequential(t *testing.T) {
	makeFiles := func(t *testing.T) (string, []string) {
		dir := t.TempDir()
		paths := make([]string, 0, 8)
		for i := 0; i < 8; i++ {
			name := string(rune('a'+i)) + ".txt"
			paths = append(paths, writeFile(t, dir, name, strings.Repeat("one two one\n", 50)))
		}
		return dir, paths
	}

	run := func(t *testing.T, paths []string, jobs int) map[string]string {
		r, err := New(Options{
			Rules:   rules(config.Rule{From: "one", To: "1"}, config.Rule{From: "two", To: "2"}),
			Files:   paths,
			Jobs:    jobs,
			UserLog: testLogger(),
		})
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background()))

		out := make(map[string]string)
		for _, p := range paths {
			data, err := os.ReadFile(p)
			require.NoError(t, err)
			out[filepath.Base(p)] = string(data)
		}
		return out
	}

	_, seqPaths := makeFiles(t)
	sequential := run(t, seqPaths, 1)

	_, parPaths := makeFiles(t)
	parallel := run(t, parPaths, 4)

	assert.Equal(t, sequential, parallel)
}
