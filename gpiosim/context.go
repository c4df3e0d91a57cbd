package gpiosim

import (
	"github.com/BertoldVdb/gpiosim/dirfs"
	"github.com/BertoldVdb/gpiosim/hostenv"
	"github.com/BertoldVdb/gpiosim/logrusconfig"
	"github.com/BertoldVdb/gpiosim/refcount"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EnvironmentChecker verifies the host can run the simulator
type EnvironmentChecker interface {
	CheckKernel() error
	CheckModule() error
}

// Mounter provides the root of the configfs tree. unmount is nil unless the
// mount was created for this caller, in which case it undoes it.
type Mounter interface {
	Mount() (root dirfs.Dir, unmount func() error, err error)
}

// Options configure Open. Zero values select the host defaults.
type Options struct {
	Environment EnvironmentChecker
	Mounter     Mounter
	// StatusRoot opens the sysfs directory containing the platform devices
	StatusRoot func() (dirfs.Dir, error)
	// DevDir is where the chip device nodes appear
	DevDir string
	Logger *logrus.Entry
}

// ConfigfsSubsystem is the name of the gpio-sim directory inside configfs
const ConfigfsSubsystem = "gpio-sim"

// Context is the entry point for creating simulated devices
type Context struct {
	ref refcount.Ref

	cfsDir     dirfs.Dir
	statusRoot dirfs.Dir
	unmount    func() error
	devDir     string

	ID  string
	log *logrus.Entry
}

func (o *Options) defaults() Options {
	result := Options{}
	if o != nil {
		result = *o
	}

	if result.Logger == nil {
		result.Logger = logrusconfig.GetLogger(logrus.WarnLevel)
	}

	var host *hostenv.Host
	if result.Environment == nil || result.Mounter == nil || result.StatusRoot == nil {
		host = hostenv.New(result.Logger)
	}
	if result.Environment == nil {
		result.Environment = host
	}
	if result.Mounter == nil {
		result.Mounter = host
	}
	if result.StatusRoot == nil {
		result.StatusRoot = host.OpenStatusRoot
	}
	if result.DevDir == "" {
		result.DevDir = "/dev"
	}

	return result
}

// Open checks the environment and opens the gpio-sim configfs tree
func Open(options *Options) (*Context, error) {
	opts := options.defaults()

	if err := opts.Environment.CheckKernel(); err != nil {
		return nil, newError(ErrorEnvironmentUnsupported, "check kernel", err)
	}
	if err := opts.Environment.CheckModule(); err != nil {
		return nil, newError(ErrorEnvironmentUnsupported, "check module", err)
	}

	ctx := &Context{
		ID:     uuid.New().String(),
		devDir: opts.DevDir,
	}
	ctx.log = logrusconfig.WithPrefix(opts.Logger, "gpiosim").WithField("context", ctx.ID)

	mnt, unmount, err := opts.Mounter.Mount()
	if err != nil {
		return nil, newError(ErrorResourceUnavailable, "mount configfs", err)
	}

	ctx.cfsDir, err = mnt.OpenDir(ConfigfsSubsystem)
	mnt.Close()
	if err != nil {
		err = newError(ErrorResourceUnavailable, "open configfs", err)
		goto failed
	}

	ctx.statusRoot, err = opts.StatusRoot()
	if err != nil {
		ctx.cfsDir.Close()
		err = newError(ErrorResourceUnavailable, "open sysfs", err)
		goto failed
	}

	ctx.unmount = unmount
	ctx.ref.Init(ctx.release)
	ctx.log.Debug("Context opened")

	return ctx, nil

failed:
	if unmount != nil {
		if err2 := unmount(); err2 != nil {
			ctx.log.WithError(err2).Warn("Failed to unmount configfs")
		}
	}
	return nil, err
}

// Acquire takes an additional reference to the context
func (c *Context) Acquire() *Context {
	c.ref.Acquire()
	return c
}

// Release drops a reference. Dropping the last one closes the configfs tree and
// unmounts it if Open mounted it.
func (c *Context) Release() {
	c.ref.Release()
}

func (c *Context) release() {
	c.cfsDir.Close()
	c.statusRoot.Close()

	if c.unmount != nil {
		if err := c.unmount(); err != nil {
			c.log.WithError(err).Warn("Failed to unmount configfs")
		}
	}

	c.log.Debug("Context released")
}
