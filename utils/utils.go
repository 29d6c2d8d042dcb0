// utils/utils.go
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// 确保目录存在
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// 字符串转整数
func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// WriteFileAtomic 先写同目录下的临时文件并 fsync，再重命名覆盖目标文件。
// 读者只会看到旧内容或完整的新内容。
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%s: %w", step, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync temp file", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail("chmod temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
