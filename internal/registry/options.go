// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultReceiver     = "Migrator"
	DefaultMethod       = "Migrations"
	DefaultHandleType   = "Migration"
	DefaultBackupSuffix = ".bak"
	DefaultLockTimeout  = 30 * time.Second
)

var DefaultRegistryFiles = []string{"migrator.go", "registry.go"}

// Options describes where the enumeration lives in a registry file and how it is written back.
type Options struct {
	// Receiver is the receiver type name of the enumeration method. Empty matches any receiver.
	Receiver string
	// Method is the name of the enumeration method.
	Method string
	// HandleType is the type each unit exposes, instantiated as &unit.HandleType{} in the enumeration.
	HandleType string
	// RegistryFiles are the candidate registry file names, probed in order.
	RegistryFiles []string
	BackupSuffix  string
	LockTimeout   time.Duration
	Logger        *zerolog.Logger
}

// Option configures Options.
type Option func(*Options)

func WithReceiver(receiver string) Option {
	return func(o *Options) {
		o.Receiver = receiver
	}
}

func WithMethod(method string) Option {
	return func(o *Options) {
		if method != "" {
			o.Method = method
		}
	}
}

func WithHandleType(handle string) Option {
	return func(o *Options) {
		if handle != "" {
			o.HandleType = handle
		}
	}
}

func WithRegistryFiles(files ...string) Option {
	return func(o *Options) {
		if len(files) > 0 {
			o.RegistryFiles = files
		}
	}
}

func WithBackupSuffix(suffix string) Option {
	return func(o *Options) {
		if suffix != "" {
			o.BackupSuffix = suffix
		}
	}
}

func WithLockTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.LockTimeout = timeout
		}
	}
}

// WithLogger sets the logger used by the registry operations.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// NewOptions returns the defaults with opts applied.
func NewOptions(opts ...Option) Options {
	nop := zerolog.Nop()
	o := Options{
		Receiver:      DefaultReceiver,
		Method:        DefaultMethod,
		HandleType:    DefaultHandleType,
		RegistryFiles: DefaultRegistryFiles,
		BackupSuffix:  DefaultBackupSuffix,
		LockTimeout:   DefaultLockTimeout,
		Logger:        &nop,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}
