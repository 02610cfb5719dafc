// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package transport

import "syscall"

func reuseControl(network, address string, conn syscall.RawConn) error {
	return nil
}
