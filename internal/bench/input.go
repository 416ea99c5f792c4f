package bench

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrNoInput 表示标准输入在读到整数之前就结束了。
var ErrNoInput = errors.New("no input")

// InputError 描述无法解析为 int32 的输入记号。
type InputError struct {
	Token string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid n %q: %v", e.Token, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ReadN 读取第一个以空白分隔的记号并解析为十进制 int32，负数按原样接受。
func ReadN(r io.Reader) (int32, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("read n: %w", err)
		}
		return 0, ErrNoInput
	}
	token := scanner.Text()
	n, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return 0, &InputError{Token: token, Err: err}
	}
	return int32(n), nil
}
