package product

import "math/rand/v2"

// Fallback images used when a product is created without one.
const (
	ImageProduce   = "https://images.unsplash.com/photo-1610832958506-aa56368176cf?auto=format&fit=crop&q=80&w=800"
	ImageFarm      = "https://images.unsplash.com/photo-1500382017468-9049fed747ef?auto=format&fit=crop&q=80&w=1200"
	ImageLogistics = "https://images.unsplash.com/photo-1586769852044-692d6e3703f0?auto=format&fit=crop&q=80&w=800"
	ImageBrand     = "https://images.unsplash.com/photo-1550989460-0adf9ea622e2?auto=format&fit=crop&q=80&w=200"
	ImageDefault   = "https://images.unsplash.com/photo-1464226184884-fa280b87c399?auto=format&fit=crop&q=80&w=800"
)

// FallbackImages is the pool RandomImage draws from.
var FallbackImages = []string{ImageProduce, ImageFarm, ImageLogistics, ImageBrand, ImageDefault}

// ImagePicker chooses one URL out of a non-empty candidate list.
type ImagePicker func(candidates []string) string

// RandomImage is the default ImagePicker.
func RandomImage(candidates []string) string {
	if len(candidates) == 0 {
		return ImageDefault
	}
	return candidates[rand.IntN(len(candidates))]
}
