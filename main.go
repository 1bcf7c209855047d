package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	"github.com/pkg/profile"

	"vulkan_presenter/common"
	"vulkan_presenter/present"
)

const (
	PROGRAM_NAME         = "vulkan_presenter"
	WINDOW_WIDTH         = 1280
	WINDOW_HEIGHT        = 720
	MAX_FRAMES_IN_FLIGHT = 3
	EVENT_QUEUE_CAPACITY = 64
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	// SDL event handling is only valid from the thread that initialised
	// the video subsystem.
	runtime.LockOSThread()
}

func main() {
	profileMode := flag.String("profile", "", "enable profiling: cpu|mem")
	flag.Parse()
	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	win := common.NewWindow(PROGRAM_NAME, WINDOW_WIDTH, WINDOW_HEIGHT, common.VALIDATION_LAYERS)
	defer win.Destroy()

	dev := common.NewDevice(win, common.VALIDATION_LAYERS)
	defer dev.Destroy()

	drv, err := common.NewDriver(win, dev, MAX_FRAMES_IN_FLIGHT)
	if err != nil {
		log.Panicf("Failed to initialize driver: %v", err)
	}
	defer drv.Destroy()

	events := present.NewEventChannel(EVENT_QUEUE_CAPACITY)
	sched, err := present.NewScheduler(drv, events, present.Options{
		FramesInFlight: MAX_FRAMES_IN_FLIGHT,
		InitialExtent:  win.DrawableExtent(),
		Negotiator:     common.DefaultNegotiator(),
		OnInput: func(ev present.InputEvent) {
			if ev.Released {
				log.Printf("Key released: %d", ev.Key)
			}
		},
	})
	if err != nil {
		log.Panicf("Failed to initialize scheduler: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		start := time.Now()
		for !sched.Done() {
			if err := sched.Render(); err != nil {
				log.Printf("Render failed: %v", err)
				break
			}
		}
		sched.Shutdown()
		elapsed := time.Since(start).Seconds()
		frames := sched.Frame()
		log.Printf("Rendered %d frames in %.2fs (%.1f fps), %d swapchain recreations, %d events dropped",
			frames, elapsed, float64(frames)/elapsed, sched.Recreations(), events.Dropped())
	}()

	win.PumpEvents(events, done)
	<-done
}
