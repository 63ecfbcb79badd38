// SPDX-License-Identifier: MPL-2.0

package desktop

import "os/exec"

// sendNotification is a test seam around the notify-send invocation.
var sendNotification = func(urgency, summary, body string) error {
	return exec.Command("notify-send", "-u", urgency, summary, body).Run()
}
