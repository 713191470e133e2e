// Package browser opens URLs in the user's default browser.
package browser

import (
	"os/exec"
	"runtime"

	"github.com/storypane-dev/storypane/internal/errors"
)

// execCommand is swapped in tests.
var execCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open launches the default browser at url. The browser process is not
// waited on.
func Open(url string) error {
	var err error

	switch runtime.GOOS {
	case "darwin":
		err = execCommand("open", url)
	case "windows":
		err = execCommand("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		err = execCommand("xdg-open", url)
	}

	if err != nil {
		return errors.BrowserOpenFailed(url, err)
	}

	return nil
}
