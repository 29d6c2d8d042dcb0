package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gofrs/flock"

	"mememeow/utils"
)

// readFile 读取并解析偏好文件；缺失字段保留默认值
func readFile(path string) (Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preferences{}, err
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return prefs, nil
}

// writeFile 整体序列化后原子替换目标文件。
// 跨进程的写入由 path+".lock" 上的文件锁串行化。
func writeFile(path string, prefs Preferences) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	defer lock.Unlock()

	return utils.WriteFileAtomic(path, data, 0o644)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
