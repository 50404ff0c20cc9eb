// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import "github.com/sirupsen/logrus"

// SetLogger redirects the server's log output, the way
// distribution-distribution threads a *logrus.Entry through its
// context rather than calling the global logger directly. A nil
// logger restores the package-level logrus logger.
func (s *Server) SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	s.log = l
}
