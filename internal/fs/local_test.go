package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
)

func TestLocalFS_Stat_Root(t *testing.T) {
	dir := t.TempDir()
	l := NewLocalFS(dir)

	info, err := l.Stat("")
	if err != nil {
		t.Fatalf("Stat('') failed: %v", err)
	}
	if !info.IsDir {
		t.Error("expected root to be a directory")
	}
}

func TestLocalFS_Stat_MissingRoot(t *testing.T) {
	l := NewLocalFS(filepath.Join(t.TempDir(), "missing"))

	_, err := l.Stat("")
	if !IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLocalFS_ReadDir_Sorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := NewLocalFS(dir).ReadDir("")
	if err != nil {
		t.Fatalf("ReadDir('') failed: %v", err)
	}
	want := []DirEntry{{"a.txt", false}, {"b.txt", false}, {"c.txt", false}, {"sub", true}}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], entries[i])
		}
	}
}

func TestLocalFS_WriteCreateRemove(t *testing.T) {
	dir := t.TempDir()
	l := NewLocalFS(dir)

	if err := l.MkdirAll("docs/nested"); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := l.WriteFile("docs/nested/a.txt", []byte("first version")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := l.Replace("docs/nested/a.txt", strings.NewReader("v2")); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "docs", "nested", "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Errorf("expected Replace to overwrite, got %q", got)
	}
	assertOnlyEntries(t, l, "docs/nested", "a.txt")

	if err := l.RemoveAll("docs"); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "docs")); !os.IsNotExist(err) {
		t.Errorf("expected docs to be gone, stat err = %v", err)
	}
}

func TestLocalFS_Path(t *testing.T) {
	l := NewLocalFS("/data/replica")

	if got := l.Path(""); got != "/data/replica" {
		t.Errorf("expected root path, got %s", got)
	}
	if got := l.Path("sub/b.txt"); got != "/data/replica/sub/b.txt" {
		t.Errorf("unexpected joined path %s", got)
	}
}

func TestMemFS_SharedBacking(t *testing.T) {
	mem := memfs.New()
	if err := mem.MkdirAll("src", 0o755); err != nil {
		t.Fatal(err)
	}

	src, err := NewMemFS(mem, "/src")
	if err != nil {
		t.Fatalf("NewMemFS failed: %v", err)
	}
	if err := src.WriteFile("hello.txt", []byte("Hello")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, err := src.ReadFile("hello.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(content) != "Hello" {
		t.Errorf("expected Hello, got %q", content)
	}

	info, err := mem.Stat("src/hello.txt")
	if err != nil {
		t.Fatalf("expected file in shared backing store: %v", err)
	}
	if info.Size() != 5 {
		t.Errorf("expected size 5, got %d", info.Size())
	}
}

// brokenReader yields some bytes and then fails, like a source file that
// becomes unreadable halfway through.
type brokenReader struct {
	data []byte
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func assertOnlyEntries(t *testing.T, f FileSystem, dir string, names ...string) {
	t.Helper()
	entries, err := f.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%q) failed: %v", dir, err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name)
	}
	if strings.Join(got, ",") != strings.Join(names, ",") {
		t.Errorf("expected entries %v in %q, got %v", names, dir, got)
	}
}

func TestReplace_FailedWriteKeepsOldContent(t *testing.T) {
	dir := t.TempDir()
	l := NewLocalFS(dir)
	if err := l.WriteFile("a.txt", []byte("OLD GOOD CONTENT")); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("input/output error")
	err := l.Replace("a.txt", &brokenReader{data: []byte("NE"), err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "OLD GOOD CONTENT" {
		t.Errorf("expected old content to survive, got %q", got)
	}
	assertOnlyEntries(t, l, "", "a.txt")
}

func TestReplace_InMemory(t *testing.T) {
	m, err := NewMemFS(nil, "/replica")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.MkdirAll("sub"); err != nil {
		t.Fatal(err)
	}
	if err := m.Replace("sub/b.txt", strings.NewReader("Veeam")); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := m.ReadFile("sub/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Veeam" {
		t.Errorf("expected %q, got %q", "Veeam", got)
	}
	assertOnlyEntries(t, m, "sub", "b.txt")
}

func TestLocalFS_ReadDir_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "x.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("sub", filepath.Join(dir, "dirlink")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(filepath.Join("sub", "x.txt"), filepath.Join(dir, "filelink")); err != nil {
		t.Fatal(err)
	}

	entries, err := NewLocalFS(dir).ReadDir("")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	want := []DirEntry{
		{Name: "dirlink", IsDir: true},
		{Name: "filelink", IsDir: false},
		{Name: "sub", IsDir: true},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], entries[i])
		}
	}
}
