/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package ember

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/emberhttp/ember/errs"
	"github.com/emberhttp/ember/tlsadapter"
)

// Gateway turns a parsed Request into a response. It is the sole required
// external collaborator; everything else in Config is optional tuning.
type Gateway interface {
	Respond(req *Request)
}

// Config holds every server-wide tunable this runtime accepts, validated
// via go-playground/validator struct tags.
type Config struct {
	// BindAddr is the listen address: "host:port" for TCP, a filesystem
	// path for a Unix socket, or "\x00name" for a Linux abstract socket.
	BindAddr string `validate:"required"`

	// Gateway is invoked once per parsed request.
	Gateway Gateway `validate:"required"`

	MinThreads int `validate:"gte=0"`
	// MaxThreads < 0 means unlimited.
	MaxThreads int

	// ServerName seeds the default Server: response header.
	ServerName string `validate:"required"`

	// Protocol is either "HTTP/1.1" or "HTTP/1.0".
	Protocol string `validate:"required,oneof=HTTP/1.1 HTTP/1.0"`

	RequestQueueSize int           `validate:"gte=0"`
	ShutdownTimeout  time.Duration `validate:"gte=0"`
	Timeout          time.Duration `validate:"gt=0"`

	// MaxRequestHeaderSize and MaxRequestBodySize of 0 mean unlimited.
	MaxRequestHeaderSize int64
	MaxRequestBodySize   int64

	NoDelay bool

	// TLS, when non-nil, wraps each accepted socket before it becomes a
	// Connection.
	TLS *tls.Config

	PeerCredsEnabled        bool
	PeerCredsResolveEnabled bool

	// KeepAliveConnLimit caps the number of idle keep-alive connections;
	// 0 means unlimited.
	KeepAliveConnLimit int `validate:"gte=0"`

	// ErrorLog receives operator-facing diagnostics: protocol errors at
	// WarnLevel, internal failures at ErrorLevel with a trace attached.
	ErrorLog ErrorLogFunc
}

// Validate runs struct-tag validation and fills in defaults (timeouts,
// queue sizes). Call once, after all fields are set and before Prepare.
func (c *Config) Validate() errs.Err {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.RequestQueueSize <= 0 {
		c.RequestQueueSize = 5
	}
	if c.ErrorLog == nil {
		c.ErrorLog = func(string, Level, error) {}
	}

	val := validator.New()
	err := val.Struct(c)
	if err == nil {
		return nil
	}

	if e, ok := err.(*validator.InvalidValidationError); ok {
		return errs.New(errs.Fatal, e)
	}

	out := errs.New(errs.Fatal, fmt.Errorf("server configuration is invalid"))
	for _, fe := range err.(validator.ValidationErrors) {
		out.Add(fmt.Errorf("config field %q fails constraint %q", fe.Field(), fe.ActualTag()))
	}
	return out
}

// tlsAdapter builds the configured TLS adapter, or nil if TLS isn't set.
func (c *Config) tlsAdapter() tlsadapter.Adapter {
	if c.TLS == nil {
		return nil
	}
	return tlsadapter.NewBuiltin(c.TLS)
}
