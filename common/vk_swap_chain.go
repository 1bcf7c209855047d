package common

import (
	"fmt"
	"log"
	"math"

	vk "github.com/goki/vulkan"

	"vulkan_presenter/present"
)

// SwapChain is the Vulkan side of one swapchain generation: the swapchain
// handle plus the per-image views and framebuffers derived from it. It is
// built exclusively by Driver.CreateSwapchain and destroyed exclusively by
// the reclaim queue (or the drain at shutdown).
type SwapChain struct {
	drv *Driver

	Handle vk.Swapchain
	Cfg    present.SurfaceConfig
	Extent vk.Extent2D

	Images       []vk.Image
	ImgViews     []vk.ImageView
	FrameBuffers []vk.Framebuffer

	// renderPass is owned by the driver's format-keyed cache, not by the
	// swapchain; Destroy must leave it alone.
	renderPass vk.RenderPass
}

// CreateSwapchain builds a new generation from the negotiated config. The
// old swapchain, when given, is passed to the driver purely as a reuse
// hint and stays untouched; routing it through the reclaim queue exactly
// once is the caller's contract.
func (d *Driver) CreateSwapchain(cfg present.SurfaceConfig, old present.Swapchain) (present.Swapchain, error) {
	var oldHandle vk.Swapchain
	if old != nil {
		oldHandle = old.(*SwapChain).Handle
	}
	sc := &SwapChain{
		drv:    d,
		Cfg:    cfg,
		Extent: vk.Extent2D{Width: cfg.Extent.Width, Height: cfg.Extent.Height},
	}
	if err := sc.createSwapChainHandle(d, oldHandle); err != nil {
		return nil, err
	}
	sc.Images = ReadSwapChainImages(d.dev.D, sc.Handle)
	if err := sc.createImageViews(d); err != nil {
		sc.Destroy()
		return nil, err
	}
	if err := sc.createFrameBuffers(d); err != nil {
		sc.Destroy()
		return nil, err
	}
	log.Printf("Created swap chain with %d images at %dx%d", len(sc.Images), sc.Extent.Width, sc.Extent.Height)
	return sc, nil
}

func (sc *SwapChain) createSwapChainHandle(d *Driver, oldHandle vk.Swapchain) error {
	// Depending on whether our queue families are the same for graphics and presentation, we need to choose
	// different sharing configurations: https://vulkan-tutorial.com/Drawing_a_triangle/Presentation/Swap_chain
	indices := d.dev.QFamilies
	var sharingMode vk.SharingMode
	var indexCount uint32
	qFamIndices := []uint32{*indices.GraphicsFamily, *indices.PresentFamily}
	if *indices.GraphicsFamily != *indices.PresentFamily {
		sharingMode = vk.SharingModeConcurrent
		indexCount = 2
	} else {
		sharingMode = vk.SharingModeExclusive
		indexCount = 0
		qFamIndices = nil
	}

	createInfo := &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		PNext:                 nil,
		Flags:                 0,
		Surface:               *d.win.Surf,
		MinImageCount:         sc.Cfg.ImageCount,
		ImageFormat:           vk.Format(sc.Cfg.Format.Format),
		ImageColorSpace:       vk.ColorSpace(sc.Cfg.Format.ColorSpace),
		ImageExtent:           sc.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: indexCount,
		PQueueFamilyIndices:   qFamIndices,
		PreTransform:          vk.SurfaceTransformFlagBits(sc.Cfg.Transform),
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           vk.PresentMode(sc.Cfg.PresentMode),
		Clipped:               vk.True,
		OldSwapchain:          oldHandle,
	}

	var err error
	sc.Handle, err = VkCreateSwapChain(d.dev.D, createInfo, nil)
	if err != nil {
		return fmt.Errorf("create swapchain handle: %w", err)
	}
	return nil
}

func (sc *SwapChain) createImageViews(d *Driver) error {
	sc.ImgViews = make([]vk.ImageView, 0, len(sc.Images))
	for i := range sc.Images {
		createInfo := &vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			PNext:    nil,
			Flags:    0,
			Image:    sc.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   vk.Format(sc.Cfg.Format.Format),
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		iv, err := VkCreateImageView(d.dev.D, createInfo, nil)
		if err != nil {
			return fmt.Errorf("create image view %d: %w", i, err)
		}
		sc.ImgViews = append(sc.ImgViews, iv)
	}
	return nil
}

func (sc *SwapChain) createFrameBuffers(d *Driver) error {
	rp, err := d.passes.Get(vk.Format(sc.Cfg.Format.Format))
	if err != nil {
		return fmt.Errorf("render pass for format %d: %w", sc.Cfg.Format.Format, err)
	}
	sc.renderPass = rp

	sc.FrameBuffers = make([]vk.Framebuffer, 0, len(sc.ImgViews))
	for i := range sc.ImgViews {
		framebufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			PNext:           nil,
			Flags:           0,
			RenderPass:      rp,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{sc.ImgViews[i]},
			Width:           sc.Extent.Width,
			Height:          sc.Extent.Height,
			Layers:          1,
		}
		fb, err := VkCreateFrameBuffer(d.dev.D, &framebufferInfo, nil)
		if err != nil {
			return fmt.Errorf("create frame buffer %d: %w", i, err)
		}
		sc.FrameBuffers = append(sc.FrameBuffers, fb)
	}
	return nil
}

// Acquire asks the driver for the next writable image, signalling the
// slot's acquire semaphore when the image is ready.
func (sc *SwapChain) Acquire(slot int) (int, present.Status) {
	var imgIdx uint32
	res := vk.AcquireNextImage(sc.drv.dev.D, sc.Handle, math.MaxUint64,
		sc.drv.slots[slot].imageAvailable, nil, &imgIdx)
	return int(imgIdx), statusOf(res)
}

// Present queues the image for display once the slot's render-complete
// semaphore has been signalled.
func (sc *SwapChain) Present(slot int, image int) present.Status {
	imgIdx := uint32(image)
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		PNext:              nil,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{sc.drv.slots[slot].renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Handle},
		PImageIndices:      []uint32{imgIdx},
		PResults:           nil,
	}
	return statusOf(vk.QueuePresent(sc.drv.dev.PresentQ, &presentInfo))
}

// Destroy releases framebuffers, image views and the swapchain handle. The
// render pass stays alive in the driver's cache.
func (sc *SwapChain) Destroy() {
	for i := range sc.FrameBuffers {
		vk.DestroyFramebuffer(sc.drv.dev.D, sc.FrameBuffers[i], nil)
	}
	for i := range sc.ImgViews {
		vk.DestroyImageView(sc.drv.dev.D, sc.ImgViews[i], nil)
	}
	vk.DestroySwapchain(sc.drv.dev.D, sc.Handle, nil)
}

func statusOf(res vk.Result) present.Status {
	switch res {
	case vk.Success:
		return present.Success
	case vk.Suboptimal:
		return present.Suboptimal
	case vk.ErrorOutOfDate:
		return present.OutOfDate
	default:
		return present.DeviceError
	}
}
