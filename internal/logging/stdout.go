package logging

import "os"

// zapcoreStdout exists only so logging.go's core construction reads as a
// single expression; kept separate in case a future caller wants to
// redirect output (e.g. to a rotated file) without touching New's body.
func zapcoreStdout() *os.File {
	return os.Stdout
}
