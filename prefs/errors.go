package prefs

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy 在等待策略内未能获得偏好锁
	ErrBusy = errors.New("preferences are busy")
	// ErrIndexOutOfRange 端点下标越界，未做任何修改
	ErrIndexOutOfRange = errors.New("endpoint index out of range")
	// ErrInvalidEndpoint 端点地址为空
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// PersistError 内存中的修改已生效，但写入磁盘失败。
// 修改不会回滚，重复同一次更新即可重新持久化。
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("preferences applied in memory but not persisted to %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

func indexError(index, length int) error {
	return fmt.Errorf("%w: index %d, %d endpoints", ErrIndexOutOfRange, index, length)
}
