package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrForbidden 当前用户无权操作该资源
var ErrForbidden = errors.New("无权操作该资源")
