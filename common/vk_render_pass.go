package common

import (
	"log"

	vk "github.com/goki/vulkan"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Render passes depend on the swapchain's pixel format only, and formats
// change far more rarely than extents (usually never after startup). The
// cache keeps one pass per format so a resize reuses the existing pass and
// only a genuine format change builds a new one. The capacity is far above
// realistic format churn; an evicted pass must no longer be referenced by
// any retiring framebuffer.
type RenderPassCache struct {
	device vk.Device
	cache  *lru.Cache[vk.Format, vk.RenderPass]
}

func NewRenderPassCache(device vk.Device) *RenderPassCache {
	cache, _ := lru.NewWithEvict[vk.Format, vk.RenderPass](8, func(_ vk.Format, rp vk.RenderPass) {
		vk.DestroyRenderPass(device, rp, nil)
	})
	return &RenderPassCache{device: device, cache: cache}
}

func (c *RenderPassCache) Get(format vk.Format) (vk.RenderPass, error) {
	if rp, ok := c.cache.Get(format); ok {
		return rp, nil
	}
	rp, err := c.build(format)
	if err != nil {
		return nil, err
	}
	c.cache.Add(format, rp)
	return rp, nil
}

// Destroy drops every cached pass. Only legal after a full device sync.
func (c *RenderPassCache) Destroy() {
	c.cache.Purge()
}

// build creates a minimal single-subpass color-only pass for the given
// format, as required to clear and present a swapchain image.
func (c *RenderPassCache) build(format vk.Format) (vk.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Flags:          0,
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	colorAttachmentRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		Flags:                   0,
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		InputAttachmentCount:    0,
		PInputAttachments:       nil,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorAttachmentRef},
		PResolveAttachments:     nil,
		PDepthStencilAttachment: nil,
		PreserveAttachmentCount: 0,
		PPreserveAttachments:    nil,
	}
	dependency := vk.SubpassDependency{
		SrcSubpass:      vk.SubpassExternal,
		DstSubpass:      0,
		SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask:   0,
		DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DependencyFlags: 0,
	}
	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		PNext:           nil,
		Flags:           0,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	rp, err := VkCreateRenderPass(c.device, &renderPassInfo, nil)
	if err != nil {
		return nil, err
	}
	log.Printf("Created render pass for format %d", format)
	return rp, nil
}
