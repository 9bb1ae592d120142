package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("FIELDFORCE_TEST_MODE") == "" {
			_ = os.Setenv("FIELDFORCE_TEST_MODE", "1")
		}
	})
}
