// SPDX-FileCopyrightText: 2025 2025 Lukas Heindl
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
)

// setupListener opens the socket given by --listen. Supports
//   - unix:/path -> second return value is the file which should be deleted in the end
//   - tcp:host:port
//
// every accepted connection carries exactly one request
func setupListener(sockArg string) (net.Listener, string, error) {
	if path, ok := strings.CutPrefix(sockArg, "unix:"); ok {
		if path == "" {
			return nil, "", fmt.Errorf("empty unix socket path in '%v'", sockArg)
		}
		_ = os.Remove(path)
		l, err := net.Listen("unix", path)
		if err != nil {
			return nil, "", fmt.Errorf("listen unix on %v failed with %w", path, err)
		}
		slog.Info("listening on unix socket", "path", path)
		return l, path, nil
	}

	if hp, ok := strings.CutPrefix(sockArg, "tcp:"); ok {
		l, err := net.Listen("tcp", hp)
		if err != nil {
			return nil, "", fmt.Errorf("listen tcp failed on %v, with %w", hp, err)
		}
		slog.Info("listening on tcp socket", "hostport", l.Addr().String())
		return l, "", nil
	}

	return nil, "", fmt.Errorf("invalid socket URL '%v'", sockArg)
}

// ambientFromAddr derives SERVER_NAME/SERVER_PORT the way tcpserver would set
// TCPLOCALIP/TCPLOCALPORT. Non-TCP addresses yield empty values.
func ambientFromAddr(addr net.Addr) Ambient {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return Ambient{}
	}
	return Ambient{LocalIP: tcp.IP.String(), LocalPort: strconv.Itoa(tcp.Port)}
}
