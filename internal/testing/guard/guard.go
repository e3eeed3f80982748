// Package guard flips the application into test mode when blank-imported by a
// test file, before any package init reads the flag.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("FACTURACAO_TEST_MODE") == "" {
			_ = os.Setenv("FACTURACAO_TEST_MODE", "1")
		}
	})
}
