//go:build linux
// +build linux

// jitterd feeds CPU jitter entropy into the input pool of the Linux
// random number generator whenever the pool drains below a threshold.
package main

import (
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"k8s.io/klog/v2"
)

var cli struct {
	Verbose   int    `short:"v" type:"counter" help:"Verbose logging, repeat to increase verbosity."`
	PidFile   string `short:"p" placeholder:"path" help:"Write daemon PID to file."`
	Device    string `default:"/dev/random" help:"Kernel RNG device to feed."`
	Threshold int    `default:"1024" help:"Feed when entropy_avail drops below this many bits."`
	Bytes     int    `default:"256" help:"Bytes injected per feeding."`
	OSR       uint   `name:"osr" default:"1" help:"Oversampling rate of the jitter collector."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("jitterd"),
		kong.Description("CPU jitter entropy daemon feeding the Linux input pool."),
	)

	initLogging(cli.Verbose)

	// The RNDADDENTROPY ioctl requires CAP_SYS_ADMIN.
	if os.Geteuid() != 0 {
		klog.Exit("jitterd must run as root")
	}

	f, err := newFeeder(cli.Device, cli.Threshold, cli.Bytes, cli.OSR)
	if err != nil {
		klog.Exitf("startup failed: %v", err)
	}
	defer f.close()

	if cli.PidFile != "" {
		err = writePidFile(cli.PidFile)
		if err != nil {
			klog.Exitf("pid file: %v", err)
		}
		defer os.Remove(cli.PidFile)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	err = f.run(stop)
	if err != nil {
		klog.Exitf("feed loop failed: %v", err)
	}

	klog.V(1).Info("shutting down cleanly")
}

// initLogging maps the counted -v flag onto klog verbosity: 0 warnings
// and errors only, 1 verbose, 2 debug.
func initLogging(verbosity int) {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)

	klog.InitFlags(fs)

	_ = fs.Set("logtostderr", "true")
	_ = fs.Set("v", strconv.Itoa(verbosity))
}
