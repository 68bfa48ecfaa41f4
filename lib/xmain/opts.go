package xmain

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"oss.terrastruct.com/cmdlog"
	"oss.terrastruct.com/xos"
)

// Opts registers flags whose defaults may be overridden by environment variables.
// Flags always win over the environment.
type Opts struct {
	Args  []string
	Flags *pflag.FlagSet
	env   *xos.Env
	log   *cmdlog.Logger

	registeredEnvs []string
}

func NewOpts(env *xos.Env, log *cmdlog.Logger, args []string) *Opts {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.Usage = func() {}
	flags.SetOutput(io.Discard)
	return &Opts{
		Args:  args,
		Flags: flags,
		env:   env,
		log:   log,
	}
}

func (o *Opts) Help() string {
	b := &strings.Builder{}
	o.Flags.SetOutput(b)
	o.Flags.PrintDefaults()

	if len(o.registeredEnvs) > 0 {
		b.WriteString("\nYou may persistently set the following as environment variables (flags take precedent):\n")
		b.WriteString("- $" + strings.Join(o.registeredEnvs, "\n- $"))
	}
	return b.String()
}

func (o *Opts) lookupEnv(k string) string {
	if k == "" {
		return ""
	}
	o.registeredEnvs = append(o.registeredEnvs, k)
	return o.env.Getenv(k)
}

func (o *Opts) Int64(envKey, flag, shortFlag string, defaultVal int64, usage string) (*int64, error) {
	if v := o.lookupEnv(envKey); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf(`invalid environment variable %s. Expected int64. Found "%s".`, envKey, v)
		}
		defaultVal = i
	}
	return o.Flags.Int64P(flag, shortFlag, defaultVal, usage), nil
}

// Duration accepts either a Go duration like 1m30s or a bare number of seconds,
// in the environment and on the command line.
func (o *Opts) Duration(envKey, flag, shortFlag string, defaultVal time.Duration, usage string) (*time.Duration, error) {
	if v := o.lookupEnv(envKey); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf(`invalid environment variable %s. Expected duration. Found "%s".`, envKey, v)
		}
		defaultVal = d
	}
	d := &durationValue{d: defaultVal}
	o.Flags.VarP(d, flag, shortFlag, usage)
	return &d.d, nil
}

func (o *Opts) String(envKey, flag, shortFlag string, defaultVal, usage string) *string {
	if v := o.lookupEnv(envKey); v != "" {
		defaultVal = v
	}
	return o.Flags.StringP(flag, shortFlag, defaultVal, usage)
}

func (o *Opts) Bool(envKey, flag, shortFlag string, defaultVal bool, usage string) (*bool, error) {
	if v := o.lookupEnv(envKey); v != "" {
		switch v {
		case "1", "true":
			defaultVal = true
		case "0", "false":
			defaultVal = false
		default:
			return nil, fmt.Errorf(`invalid environment variable %s. Expected bool. Found "%s".`, envKey, v)
		}
	}
	return o.Flags.BoolP(flag, shortFlag, defaultVal, usage), nil
}

// ParseDuration is time.ParseDuration that also takes a plain integer as seconds.
func ParseDuration(s string) (time.Duration, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(i) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d, nil
}

type durationValue struct {
	d time.Duration
}

func (v *durationValue) Set(s string) error {
	d, err := ParseDuration(s)
	if err != nil {
		return err
	}
	v.d = d
	return nil
}

func (v *durationValue) Type() string {
	return "duration"
}

func (v *durationValue) String() string {
	return v.d.String()
}
