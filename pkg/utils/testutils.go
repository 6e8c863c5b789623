package utils

import (
	"os"
	"strings"
	"time"
)

// WaitForCondition polls condition every interval until it returns true or
// the timeout passes. It reports whether the condition was met.
//
//	ok := WaitForCondition(5*time.Second, 50*time.Millisecond, func() bool {
//		_, err := os.Stat(catalogPath)
//		return err == nil
//	})
func WaitForCondition(timeout, interval time.Duration, condition func() bool) bool {
	if timeout <= 0 {
		return condition()
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}

	return condition()
}

// WaitForFileContent waits until filePath exists and contains every string
// in expected.
func WaitForFileContent(timeout, interval time.Duration, filePath string, expected ...string) bool {
	return WaitForCondition(timeout, interval, func() bool {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return false
		}
		for _, s := range expected {
			if !strings.Contains(string(content), s) {
				return false
			}
		}
		return true
	})
}
