package common

import (
	"fmt"
	"log"

	vk "github.com/goki/vulkan"
	"github.com/veandco/go-sdl2/sdl"

	"vulkan_presenter/present"
)

const ENGINE_NAME = "No Engine"
const ENGINE_MAJOR, ENGINE_MINOR, ENGINE_PATCH = 1, 0, 0

const SDL_MAJOR, SDL_MINOR, SDL_PATCH = int(sdl.MAJOR_VERSION), int(sdl.MINOR_VERSION), int(sdl.PATCHLEVEL)

// Vulkan spec go bindings = v1.0.7, as per: https://github.com/goki/vulkan = 1.3.239
const VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH int = 1, 3, 239

// How long one pump iteration waits for a platform event before checking
// whether the render agent has exited.
const EVENT_WAIT_MILLIS = 10

// Window encapsulates all window handling components and vulkan access objects needed to actually draw on
// screen. It uses SDL for window management and user input. Every method on it must run on the thread the
// platform mandates for window handling; the render agent only ever sees the events this side pushes into
// a present.EventChannel.
type Window struct {
	sdlVersion string
	vkVersion  string

	Win       *sdl.Window
	minimized bool

	Inst *vk.Instance
	Surf *vk.Surface
}

// NewWindow constructs a new Window struct by default initializing things, stating some meta information and
// calling the corresponding init functions for the SDL window, Vulkan API instance and so on. On tear down,
// we need to destroy the: vk.surface, vk.instance and sdl.window.
func NewWindow(title string, w int32, h int32, validationLayers []string) *Window {
	window := &Window{
		sdlVersion: fmt.Sprintf("v%d.%d.%d", SDL_MAJOR, SDL_MINOR, SDL_PATCH),
		vkVersion:  fmt.Sprintf("v%d.%d.%d", VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH),
	}
	window.initSDLWindow(title, w, h)
	window.initVulkan()
	window.createVulkanInstance(title, len(validationLayers) > 0, validationLayers)
	window.createSdlVkSurface()
	log.Printf("Generated SDL/Vulkan window - SDL: %s Vulkan Spec: %s", window.sdlVersion, window.vkVersion)
	return window
}

// Destroy is a convenience method to tear down all relevant instances (vk.surface, vk.instance and sdl.window)
// that have been initialized by itself.
func (w *Window) Destroy() {
	vk.DestroySurface(*w.Inst, *w.Surf, nil)
	vk.DestroyInstance(*w.Inst, nil)
	err := w.Win.Destroy()
	if err != nil {
		log.Fatal(err)
	}
}

// DrawableExtent reads the current drawable size in pixels, which on high-dpi
// displays differs from the window size in screen coordinates.
func (w *Window) DrawableExtent() present.Extent {
	width, height := w.Win.VulkanGetDrawableSize()
	return present.Extent{Width: uint32(width), Height: uint32(height)}
}

// PumpEvents is the platform agent's loop: it polls SDL, translates what it
// sees into present events and pushes them into the channel. Push never
// blocks, so an interactive resize that stalls this loop for its whole
// duration cannot stall the render agent. The loop runs until the render
// agent closes done, so a fatal render error also ends it.
func (w *Window) PumpEvents(ch *present.EventChannel, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		for event := sdl.WaitEventTimeout(EVENT_WAIT_MILLIS); event != nil; event = sdl.PollEvent() {
			w.translate(event, ch)
		}
	}
}

func (w *Window) translate(event sdl.Event, ch *present.EventChannel) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		ch.Push(present.CloseEvent{})
	case *sdl.WindowEvent:
		switch ev.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			if !w.minimized {
				ch.Push(present.ResizeEvent{Extent: w.DrawableExtent()})
			}
		case sdl.WINDOWEVENT_MINIMIZED:
			// A zero extent tells the render agent to idle until restore.
			w.minimized = true
			ch.Push(present.ResizeEvent{})
		case sdl.WINDOWEVENT_RESTORED:
			w.minimized = false
			ch.Push(present.ResizeEvent{Extent: w.DrawableExtent()})
		}
	case *sdl.KeyboardEvent:
		if ev.Keysym.Sym == sdl.K_ESCAPE {
			ch.Push(present.CloseEvent{})
			return
		}
		ch.Push(present.InputEvent{
			Key:      int32(ev.Keysym.Sym),
			Released: ev.Type == sdl.KEYUP,
		})
	}
}

func (w *Window) initSDLWindow(title string, width int32, height int32) {
	if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
		log.Panicf("Failed to initialize SDL: %v", err)
	}
	log.Println("Initialized SDL")
	win, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		width,
		height,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE|sdl.WINDOW_VULKAN,
	)
	if err != nil {
		log.Panicf("Failed to create SDL window for use with Vulkan: %v", err)
	}
	log.Printf("Created SDL window for use with Vulkan. Title: \"%s\", Width: %d, Height: %d", title, width, height)
	w.Win = win
}

func (w *Window) initVulkan() {
	// Find and load Vulkan addresses to be able to call driver level functions via provided mechanism
	vk.SetGetInstanceProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	err := vk.Init()
	if err != nil {
		log.Panicf("Failed to initialize Vulkan API: %v", err)
	}
}

func (w *Window) createVulkanInstance(appName string, enableValidation bool, validationLayers []string) {
	requiredExtensions := w.Win.VulkanGetInstanceExtensions()
	checkInstanceExtensionSupport(requiredExtensions)

	if enableValidation {
		log.Printf("Validation enabled, checking layer support")
		checkValidationLayerSupport(validationLayers)
	}
	applicationInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PNext:              nil,
		PApplicationName:   TerminatedStr(appName),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        ENGINE_NAME,
		EngineVersion:      vk.MakeVersion(ENGINE_MAJOR, ENGINE_MINOR, ENGINE_PATCH),
		ApiVersion:         vk.MakeVersion(VK_SPEC_MAJOR, VK_SPEC_MINOR, VK_SPEC_PATCH),
	}
	createInfo := &vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PNext:                   nil,
		Flags:                   0,
		PApplicationInfo:        applicationInfo,
		EnabledLayerCount:       0,
		PpEnabledLayerNames:     nil,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: TerminatedStrs(requiredExtensions),
	}
	if enableValidation {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = TerminatedStrs(validationLayers)
	}
	ins, err := VkCreateInstance(createInfo, nil)
	if err != nil {
		log.Panicf("Failed to create vk instance, due to: %v", err)
	}
	w.Inst = &ins
}

func checkInstanceExtensionSupport(requiredInstanceExt []string) {
	supportedExtNames := ReadInstanceExtensionPropertyNames()
	log.Printf("Required instance extensions: %v", requiredInstanceExt)
	log.Printf("Available extensions (%d): %v", len(supportedExtNames), supportedExtNames)

	if !AllOfAinB(requiredInstanceExt, supportedExtNames) {
		log.Panicf("At least one required instance extension is not supported")
	} else {
		log.Println("Success - All required instance extensions are supported")
	}
}

func checkValidationLayerSupport(requiredLayers []string) {
	supportedLayerNames := ReadInstanceLayerPropertyNames()
	log.Printf("Desired validation layers: %v", requiredLayers)
	log.Printf("Supported layers (%d): %v", len(supportedLayerNames), supportedLayerNames)

	if !AllOfAinB(requiredLayers, supportedLayerNames) {
		log.Panicf("At least one desired validation layer is not supported")
	} else {
		log.Println("Success - All desired validation layers are supported")
	}
}

func (w *Window) createSdlVkSurface() {
	surf, err := SdlCreateVkSurface(w.Win, *w.Inst)
	if err != nil {
		log.Panicf("Failed to create SDL window's Vulkan-surface, due to: %v", err)
	}
	w.Surf = &surf
}
