package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidInput 输入违反前置条件。与空结果、部分填充不同，这是引擎拒绝执行。
var ErrInvalidInput = errors.New("分配输入不合法")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
