package common

import (
	"fmt"
	"log"
	"math"

	vk "github.com/goki/vulkan"

	"vulkan_presenter/present"
)

// frameSlot bundles the per-in-flight-frame synchronization objects and the
// command buffer recorded for that frame. Slot k is reused every
// framesInFlight iterations and never freed before Driver.Destroy.
type frameSlot struct {
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence
	cmd            vk.CommandBuffer
}

// Driver implements present.Device on top of the goki/vulkan bindings. It
// owns everything whose lifetime spans swapchain generations: the command
// pool, the frame slots and the format-keyed render pass cache.
type Driver struct {
	win *Window
	dev *Device

	cmdPool vk.CommandPool
	slots   []frameSlot
	passes  *RenderPassCache

	// Draw, when set, is invoked inside the render pass after the dynamic
	// viewport and scissor have been recorded. Pipelines bound here must
	// carry dynamic viewport/scissor state; the driver never rebuilds them
	// on resize.
	Draw func(cmd vk.CommandBuffer, extent vk.Extent2D)

	clearColor [4]float32
}

func NewDriver(w *Window, dc *Device, framesInFlight int) (*Driver, error) {
	d := &Driver{
		win:        w,
		dev:        dc,
		passes:     NewRenderPassCache(dc.D),
		clearColor: [4]float32{0.01, 0.01, 0.01, 1},
	}
	cmdPool, err := VkCreateCommandPool(dc.D, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		PNext:            nil,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: *dc.QFamilies.GraphicsFamily,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("create command pool: %w", err)
	}
	d.cmdPool = cmdPool
	if err := d.createFrameSlots(framesInFlight); err != nil {
		return nil, err
	}
	log.Printf("Driver ready with %d frame slots", framesInFlight)
	return d, nil
}

func (d *Driver) createFrameSlots(count int) error {
	cmds, err := VKAllocateCommandBuffersPrimary(d.dev.D, d.cmdPool, uint32(count))
	if err != nil {
		return fmt.Errorf("allocate command buffers: %w", err)
	}
	semCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: nil,
		Flags: 0,
	}
	// Fences start signalled so the very first BeginFrame does not wait for
	// work that was never submitted.
	fenCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		PNext: nil,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	d.slots = make([]frameSlot, count)
	for i := range d.slots {
		d.slots[i].cmd = cmds[i]
		if vk.CreateSemaphore(d.dev.D, &semCreateInfo, nil, &d.slots[i].imageAvailable) != vk.Success ||
			vk.CreateSemaphore(d.dev.D, &semCreateInfo, nil, &d.slots[i].renderFinished) != vk.Success ||
			vk.CreateFence(d.dev.D, &fenCreateInfo, nil, &d.slots[i].inFlight) != vk.Success {
			return fmt.Errorf("create sync objects for slot %d", i)
		}
	}
	return nil
}

// SurfaceSupport re-reads capabilities, formats and present modes. Called
// before every negotiation; nothing is cached.
func (d *Driver) SurfaceSupport() (present.SurfaceSupport, error) {
	return ReadSurfaceSupport(d.dev.PD, *d.win.Surf), nil
}

// BeginFrame blocks until the GPU completed the work submitted from this
// slot framesInFlight iterations ago. This is the CPU overlap guard: frame
// k+N never records before frame k's fence signalled.
func (d *Driver) BeginFrame(slot int) {
	vk.WaitForFences(d.dev.D, 1, []vk.Fence{d.slots[slot].inFlight}, vk.True, math.MaxUint64)
}

// Submit records the commands for the acquired image and hands them to the
// graphics queue. The slot fence is only reset here, right before work
// that will signal it again is queued.
func (d *Driver) Submit(slot int, psc present.Swapchain, image int, view *present.ViewportState) error {
	sc := psc.(*SwapChain)
	s := &d.slots[slot]

	vk.ResetFences(d.dev.D, 1, []vk.Fence{s.inFlight})
	vk.ResetCommandBuffer(s.cmd, 0)
	if err := d.record(s.cmd, sc, image, view); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		PNext:              nil,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.imageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{s.cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{s.renderFinished},
	}
	if res := vk.QueueSubmit(d.dev.GraphicsQ, 1, []vk.SubmitInfo{submitInfo}, s.inFlight); res != vk.Success {
		return fmt.Errorf("queue submit: %w", vk.Error(res))
	}
	return nil
}

// record replays the per-frame command stream: clear pass, dynamic
// viewport/scissor from the live generation's extent, then the optional
// application draw hook.
func (d *Driver) record(cmd vk.CommandBuffer, sc *SwapChain, image int, view *present.ViewportState) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType:            vk.StructureTypeCommandBufferBeginInfo,
		PNext:            nil,
		Flags:            0,
		PInheritanceInfo: nil,
	}
	if res := vk.BeginCommandBuffer(cmd, &beginInfo); res != vk.Success {
		return fmt.Errorf("begin command buffer: %w", vk.Error(res))
	}

	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		PNext:       nil,
		RenderPass:  sc.renderPass,
		Framebuffer: sc.FrameBuffers[image],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: sc.Extent,
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(d.clearColor[:])},
	}
	vk.CmdBeginRenderPass(cmd, &renderPassInfo, vk.SubpassContentsInline)

	vp := view.Viewport()
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		X:        vp.X,
		Y:        vp.Y,
		Width:    vp.Width,
		Height:   vp.Height,
		MinDepth: vp.MinDepth,
		MaxDepth: vp.MaxDepth,
	}})
	sci := view.Scissor()
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: sci.X, Y: sci.Y},
		Extent: vk.Extent2D{Width: sci.Extent.Width, Height: sci.Extent.Height},
	}})

	if d.Draw != nil {
		d.Draw(cmd, sc.Extent)
	}

	vk.CmdEndRenderPass(cmd)
	if res := vk.EndCommandBuffer(cmd); res != vk.Success {
		return fmt.Errorf("end command buffer: %w", vk.Error(res))
	}
	return nil
}

// WaitIdle performs a full device synchronization. The scheduler calls it
// exactly once, right before draining the reclaim queue at shutdown.
func (d *Driver) WaitIdle() {
	vk.DeviceWaitIdle(d.dev.D)
}

// Destroy tears down slots, command pool and the render pass cache. Must
// run after the scheduler's shutdown so no submission is in flight.
func (d *Driver) Destroy() {
	for i := range d.slots {
		vk.DestroySemaphore(d.dev.D, d.slots[i].imageAvailable, nil)
		vk.DestroySemaphore(d.dev.D, d.slots[i].renderFinished, nil)
		vk.DestroyFence(d.dev.D, d.slots[i].inFlight, nil)
	}
	vk.DestroyCommandPool(d.dev.D, d.cmdPool, nil)
	d.passes.Destroy()
}

// DefaultNegotiator states the format and present mode preferences in
// descending order: sRGB BGRA first, then the same channel layout without
// the sRGB transfer; mailbox as the lowest-latency non-blocking mode, then
// immediate, with the always-available FIFO mode as the fallback.
func DefaultNegotiator() present.Negotiator {
	return present.Negotiator{
		PreferredFormats: []present.SurfaceFormat{
			{Format: present.PixelFormat(vk.FormatB8g8r8a8Srgb), ColorSpace: present.ColorSpace(vk.ColorSpaceSrgbNonlinear)},
			{Format: present.PixelFormat(vk.FormatB8g8r8a8Unorm), ColorSpace: present.ColorSpace(vk.ColorSpaceSrgbNonlinear)},
		},
		PreferredModes: []present.PresentMode{
			present.PresentMode(vk.PresentModeMailbox),
			present.PresentMode(vk.PresentModeImmediate),
		},
		FallbackMode: present.PresentMode(vk.PresentModeFifo),
	}
}
