package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/cratetree/pkg/httputil"
)

func ExampleBackoff_Do() {
	b := httputil.Backoff{Attempts: 3, Delay: time.Millisecond}
	attempts := 0
	err := b.Do(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &httputil.RetryableError{Err: errors.New("temporary")}
		}
		return nil
	})
	fmt.Println("Attempts:", attempts)
	fmt.Println("Error:", err)
	// Output:
	// Attempts: 2
	// Error: <nil>
}

func ExampleBackoff_Do_permanent() {
	b := httputil.Backoff{Attempts: 3, Delay: time.Millisecond}
	attempts := 0
	err := b.Do(context.Background(), func() error {
		attempts++
		return errors.New("permanent")
	})
	fmt.Println("Attempts:", attempts)
	fmt.Println("Error:", err)
	// Output:
	// Attempts: 1
	// Error: permanent
}

func ExampleIsURL() {
	fmt.Println(httputil.IsURL("https://example.org/ro-crate-metadata.json"))
	fmt.Println(httputil.IsURL("ro-crate-metadata.json"))
	// Output:
	// true
	// false
}
