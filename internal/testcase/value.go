package testcase

import (
	"fmt"
	"strconv"
	"strings"
)

// ConstructorSelector is the value that selects the first constructor
// overload of a class instance.
const ConstructorSelector = "0"

const (
	mallocPrefix = "<<malloc "
	mallocSuffix = ">>"
)

// MallocValue returns the allocation token for n elements. n below 1
// is clamped to 1.
func MallocValue(n int) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%s%d%s", mallocPrefix, n, mallocSuffix)
}

// ParseMalloc extracts N from a "<<malloc N>>" token.
func ParseMalloc(value string) (int, bool) {
	if !strings.HasPrefix(value, mallocPrefix) || !strings.HasSuffix(value, mallocSuffix) {
		return 0, false
	}
	digits := value[len(mallocPrefix) : len(value)-len(mallocSuffix)]
	if !isDecimal(digits) {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ParseIndex parses a non-negative decimal array index. Signs,
// whitespace and separators are rejected.
func ParseIndex(s string) (int, bool) {
	if !isDecimal(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
