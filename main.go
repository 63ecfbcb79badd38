// SPDX-License-Identifier: MPL-2.0

package main

import cmd "uclaunch/cmd/uclaunch"

func main() {
	cmd.Execute()
}
