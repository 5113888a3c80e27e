//go:build !linux

package logger

import "os"

// isTerminal is a conservative fallback for platforms without a termios
// probe: color only when the standard streams are character devices.
func isTerminal(fd uintptr) bool {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		if f.Fd() != fd {
			continue
		}
		info, err := f.Stat()
		if err != nil {
			return false
		}
		return info.Mode()&os.ModeCharDevice != 0
	}
	return false
}
