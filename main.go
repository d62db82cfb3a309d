// Command chip8emu runs CHIP-8 programs in an SDL window.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/retro8/chip8emu/chip8"
)

var (
	version = "0.1.0"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	rom string

	scale  int
	speed  int
	strict bool
	mute   bool

	debug bool
	quiet bool
}

func init() {
	// SDL event handling must stay on the main OS thread
	runtime.LockOSThread()
}

func main() {
	options := readArguments()
	logger := createLogger(options.debug, options.quiet)

	if !options.quiet {
		printBanner()
	}

	if err := run(options, logger); err != nil {
		logger.Error("emulation failed", log.String("error", err.Error()))
		os.Exit(1)
	}
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.IntVar(&options.scale, "scale", 10, "window scale factor for the 64x32 display")
	flags.IntVar(&options.speed, "speed", chip8.DefaultSpeed, "execution speed in instructions per second")
	flags.BoolVar(&options.strict, "strict", false, "halt on unknown opcodes instead of skipping them")
	flags.BoolVar(&options.mute, "mute", false, "disable the beeper")
	flags.BoolVar(&options.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&options.quiet, "q", false, "perform operations quietly")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 {
		// fall back to a native file dialog before giving up
		if file, derr := dialog.File().Filter("CHIP-8 ROM", "ch8", "rom").Load(); derr == nil {
			options.rom = file
			return options
		}

		printBanner()
		fmt.Printf("usage: chip8emu [options] <rom file>\n\n")
		flags.PrintDefaults()
		os.Exit(0)
	}
	options.rom = args[0]

	return options
}

func printBanner() {
	fmt.Println("[------------------------------------]")
	fmt.Println("[ chip8emu - CHIP-8 virtual machine   ]")
	fmt.Println("[------------------------------------]")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func createLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// run wires the virtual machine to the SDL window and drives the session
// until quit. The run loop and the timers run on their own goroutines;
// the main thread pumps input events and refreshes the screen.
func run(options optionFlags, logger *log.Logger) error {
	vm, err := chip8.LoadFile(options.rom, logger)
	if err != nil {
		return err
	}
	vm.SetStrict(options.strict)
	vm.SetSpeed(options.speed)

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("initializing sdl: %w", err)
	}
	defer sdl.Quit()

	window, renderer, err := sdl.CreateWindowAndRenderer(
		int32(chip8.DisplayWidth*options.scale),
		int32(chip8.DisplayHeight*options.scale),
		sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()
	defer renderer.Destroy()

	window.SetTitle("CHIP-8")

	screen, err := newScreen(renderer)
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	defer screen.destroy()

	var beep *beeper
	if !options.mute {
		if beep, err = newBeeper(); err != nil {
			logger.Warn("no audio device, beeper disabled",
				log.String("error", err.Error()))
			beep = nil
		} else {
			defer beep.close()
		}
	}

	// start the timer and execution tasks; the session ends when all
	// of them have observed the stop signal
	var wg sync.WaitGroup
	runErr := make(chan error, 1)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vm.RunTimers()
	}()
	go func() {
		defer wg.Done()
		runErr <- vm.Run()
	}()

	refresh := time.NewTicker(time.Second / 60)
	defer refresh.Stop()

	var sessionErr error

loop:
	for processEvents(vm) {
		select {
		case sessionErr = <-runErr:
			break loop
		case <-refresh.C:
			screen.refresh(vm)
			if beep != nil {
				beep.update(vm.SoundTimer() > 0)
			}
		}
	}

	vm.Stop()
	wg.Wait()

	if sessionErr == nil {
		select {
		case sessionErr = <-runErr:
		default:
		}
	}

	return sessionErr
}
