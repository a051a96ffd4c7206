package interaction

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrBinaryNotFound is matched by errors.Is when no UI executable could be
// located.
var ErrBinaryNotFound = errors.New("ui binary not found")

// NotFoundError carries install guidance for a missing UI executable.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("找不到 %s UI 命令。请确保：\n"+
		"1. 已构建 UI 程序并与 MCP 服务器放在同一目录\n"+
		"2. 或已全局安装，可以通过 PATH 找到\n"+
		"3. 或通过 SANSHU_UI_BINARY 指定可执行文件路径", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrBinaryNotFound
}

// Resolver locates the UI executable: next to the running server first,
// then on PATH verified by a version check.
type Resolver struct {
	name         string
	executable   func() (string, error)
	lookPath     func(string) (string, error)
	checkVersion func(path string) bool
}

// NewResolver creates a resolver for the named executable. A name that
// contains a path separator is checked directly.
func NewResolver(name string) *Resolver {
	return &Resolver{
		name:         name,
		executable:   os.Executable,
		lookPath:     exec.LookPath,
		checkVersion: checkVersion,
	}
}

// Name returns the executable name being resolved.
func (r *Resolver) Name() string {
	return r.name
}

// Resolve returns the path of a runnable UI executable or a NotFoundError.
func (r *Resolver) Resolve() (string, error) {
	if r.name == "" {
		return "", &NotFoundError{Name: r.name}
	}

	if strings.ContainsRune(r.name, '/') || strings.ContainsRune(r.name, filepath.Separator) {
		if isExecutable(r.name) {
			return r.name, nil
		}
		return "", &NotFoundError{Name: r.name}
	}

	if exe, err := r.executable(); err == nil {
		local := filepath.Join(filepath.Dir(exe), r.name)
		if isExecutable(local) {
			return local, nil
		}
	}

	if path, err := r.lookPath(r.name); err == nil && r.checkVersion(path) {
		return path, nil
	}

	return "", &NotFoundError{Name: r.name}
}

func checkVersion(path string) bool {
	return exec.Command(path, "--version").Run() == nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return strings.EqualFold(filepath.Ext(path), ".exe")
	}
	return info.Mode().Perm()&0o111 != 0
}
